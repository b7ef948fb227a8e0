// In file: internal/store/metadata.go

// Package store loads the two read-only documents the director works from:
// the learner's knowledge levels and the document metadata catalog. Both are
// read once at startup and never mutated afterwards.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrStoreNotFound is returned when a store document does not exist on disk.
var ErrStoreNotFound = errors.New("store document not found")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ResourceDescriptor is the metadata of one attachable document.
// The JSON names match the metadata document so the same value can be shown
// to the decision engine as part of a selection payload.
type ResourceDescriptor struct {
	Title     string   `json:"title" validate:"required"`
	LocalPath string   `json:"file_path" validate:"required"`
	RemoteURI string   `json:"file_uri,omitempty"`
	Summary   string   `json:"content_summary"`
	Topics    []string `json:"topics"`
}

type metadataDocument struct {
	Files []ResourceDescriptor `json:"files" validate:"dive"`
}

// MetadataStore is an immutable snapshot of the document metadata document.
type MetadataStore struct {
	files   []ResourceDescriptor
	byTitle map[string]int
}

// NewMetadataStore builds a store from descriptors. Titles are matched
// case-insensitively; a later duplicate title is rejected.
func NewMetadataStore(files []ResourceDescriptor) (*MetadataStore, error) {
	s := &MetadataStore{
		files:   make([]ResourceDescriptor, 0, len(files)),
		byTitle: make(map[string]int, len(files)),
	}
	for i, f := range files {
		if err := validate.Struct(f); err != nil {
			return nil, fmt.Errorf("invalid document metadata entry %d: %w", i, err)
		}
		key := strings.ToLower(f.Title)
		if _, exists := s.byTitle[key]; exists {
			return nil, fmt.Errorf("duplicate document title %q", f.Title)
		}
		f.Topics = append([]string(nil), f.Topics...)
		s.byTitle[key] = len(s.files)
		s.files = append(s.files, f)
	}
	return s, nil
}

// LoadMetadataStore reads and validates a metadata document from path.
func LoadMetadataStore(path string) (*MetadataStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		}
		return nil, fmt.Errorf("failed to read metadata document %s: %w", path, err)
	}
	var doc metadataDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse metadata document %s: %w", path, err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid metadata document %s: %w", path, err)
	}
	return NewMetadataStore(doc.Files)
}

// Titles returns the canonical titles in document order.
func (s *MetadataStore) Titles() []string {
	titles := make([]string, len(s.files))
	for i, f := range s.files {
		titles[i] = f.Title
	}
	return titles
}

// Files returns a copy of every descriptor in document order.
func (s *MetadataStore) Files() []ResourceDescriptor {
	out := make([]ResourceDescriptor, len(s.files))
	for i, f := range s.files {
		out[i] = f.clone()
	}
	return out
}

// Lookup finds a descriptor by title, ignoring case.
func (s *MetadataStore) Lookup(title string) (ResourceDescriptor, bool) {
	idx, ok := s.byTitle[strings.ToLower(strings.TrimSpace(title))]
	if !ok {
		return ResourceDescriptor{}, false
	}
	return s.files[idx].clone(), true
}

// ByTopics returns the documents tagged with any of the given topics.
func (s *MetadataStore) ByTopics(topics []string) []ResourceDescriptor {
	want := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		want[strings.ToLower(t)] = struct{}{}
	}
	var matched []ResourceDescriptor
	for _, f := range s.files {
		for _, t := range f.Topics {
			if _, ok := want[strings.ToLower(t)]; ok {
				matched = append(matched, f.clone())
				break
			}
		}
	}
	return matched
}

// TopicIndex maps every topic to the titles that cover it. Topics are sorted.
func (s *MetadataStore) TopicIndex() ([]string, map[string][]string) {
	index := make(map[string][]string)
	for _, f := range s.files {
		for _, t := range f.Topics {
			index[t] = append(index[t], f.Title)
		}
	}
	topics := make([]string, 0, len(index))
	for t := range index {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics, index
}

// Len is the number of documents in the store.
func (s *MetadataStore) Len() int {
	return len(s.files)
}

func (r ResourceDescriptor) clone() ResourceDescriptor {
	r.Topics = append([]string(nil), r.Topics...)
	return r
}
