// In file: internal/store/knowledge.go
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// UnknownLevel is reported for subjects the store has no record of.
const UnknownLevel = "unknown"

// KnowledgeLevel is the learner's standing in one subject.
type KnowledgeLevel struct {
	Level               string `json:"level"`
	DetailedDescription string `json:"detailed_description"`
}

type knowledgeDocument struct {
	UserID          string                    `json:"user_id" validate:"omitempty,max=256"`
	KnowledgeLevels map[string]KnowledgeLevel `json:"knowledge_levels"`
}

// KnowledgeStore is an immutable snapshot of the knowledge document.
type KnowledgeStore struct {
	userID string
	levels map[string]KnowledgeLevel
}

// NewKnowledgeStore builds a store from already decoded values.
func NewKnowledgeStore(userID string, levels map[string]KnowledgeLevel) *KnowledgeStore {
	copied := make(map[string]KnowledgeLevel, len(levels))
	for k, v := range levels {
		copied[k] = v
	}
	if userID == "" {
		userID = UnknownLevel
	}
	return &KnowledgeStore{userID: userID, levels: copied}
}

// EmptyKnowledgeStore is used when the knowledge document is unavailable.
func EmptyKnowledgeStore() *KnowledgeStore {
	return NewKnowledgeStore("", nil)
}

// LoadKnowledgeStore reads and validates the knowledge document at path.
func LoadKnowledgeStore(path string) (*KnowledgeStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		}
		return nil, fmt.Errorf("failed to read knowledge document %s: %w", path, err)
	}
	var doc knowledgeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge document %s: %w", path, err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid knowledge document %s: %w", path, err)
	}
	return NewKnowledgeStore(doc.UserID, doc.KnowledgeLevels), nil
}

// UserID identifies whose knowledge levels these are.
func (s *KnowledgeStore) UserID() string {
	return s.userID
}

// Level returns the recorded level for subject. A record with an empty
// level is reported as UnknownLevel.
func (s *KnowledgeStore) Level(subject string) (KnowledgeLevel, bool) {
	kl, ok := s.levels[subject]
	if !ok {
		return KnowledgeLevel{}, false
	}
	if kl.Level == "" {
		kl.Level = UnknownLevel
	}
	return kl, true
}

// Subjects lists the subjects with a record, sorted.
func (s *KnowledgeStore) Subjects() []string {
	subjects := make([]string, 0, len(s.levels))
	for k := range s.levels {
		subjects = append(subjects, k)
	}
	sort.Strings(subjects)
	return subjects
}
