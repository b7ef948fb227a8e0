// In file: internal/tools/select_files_tool.go
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/session"
	"github.com/dileep-u-k/tutor-director/internal/store"
)

// --- Document Selection Tool Implementation ---

// SelectFilesToolName is the name the decision engine calls the selector by.
const SelectFilesToolName = "select_relevant_files"

// Selection is the payload of a document selection.
type Selection struct {
	SelectedFiles []store.ResourceDescriptor `json:"selected_files"`
	NotFound      []string                   `json:"not_found"`
	TotalSelected int                        `json:"total_selected"`
}

// SelectFilesTool picks documents from the metadata store by title.
// Its schema enumerates exactly the titles present when the tool was built;
// documents added to the store later stay invisible until the catalog is rebuilt.
type SelectFilesTool struct {
	store      *store.MetadataStore
	definition Tool
}

var _ Handler = (*SelectFilesTool)(nil)

// NewSelectFilesTool snapshots the store's titles into the tool schema.
// An empty store yields an empty enumeration, which the catalog rejects.
func NewSelectFilesTool(s *store.MetadataStore) *SelectFilesTool {
	return &SelectFilesTool{
		store:      s,
		definition: buildSelectFilesDefinition(s),
	}
}

// Definition describes the tool to the decision engine.
func (st *SelectFilesTool) Definition() Tool {
	return st.definition
}

// Execute resolves each requested title. Titles missing from the store are
// listed in NotFound; the call itself does not fail.
func (st *SelectFilesTool) Execute(_ context.Context, args map[string]any, _ session.Snapshot) (any, error) {
	sel := Selection{
		SelectedFiles: []store.ResourceDescriptor{},
		NotFound:      []string{},
	}
	seen := make(map[string]struct{})
	for _, title := range stringList(args, "file_titles") {
		key := strings.ToLower(strings.TrimSpace(title))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		desc, ok := st.store.Lookup(title)
		if !ok {
			log.Warnf("⚠️ %v", fmt.Errorf("%w: %q", ErrResourceNotFound, title))
			sel.NotFound = append(sel.NotFound, title)
			continue
		}
		sel.SelectedFiles = append(sel.SelectedFiles, desc)
	}
	sel.TotalSelected = len(sel.SelectedFiles)
	return sel, nil
}

func buildSelectFilesDefinition(s *store.MetadataStore) Tool {
	files := s.Files()
	titles := s.Titles()

	var catalog strings.Builder
	for _, f := range files {
		summary := f.Summary
		if summary == "" {
			summary = "no summary"
		}
		fmt.Fprintf(&catalog, "- **%s**\n  content: %s\n", f.Title, summary)
	}

	var topicLines strings.Builder
	topics, index := s.TopicIndex()
	for _, topic := range topics {
		covered := index[topic]
		if len(covered) == len(titles) {
			fmt.Fprintf(&topicLines, "- %s: covered by every document\n", topic)
			continue
		}
		fmt.Fprintf(&topicLines, "- %s: %s\n", topic, strings.Join(covered, ", "))
	}

	description := fmt.Sprintf(`Select the documents from the course library that are directly relevant to the user's question.

Rules:
- read every document summary before choosing
- choose only documents whose summary explicitly covers the question's topic
- never select every document by default; several documents are fine when each one is needed

Available documents (%d):
%s
Topics:
%s`, len(files), catalog.String(), topicLines.String())

	return NewFunctionTool(
		SelectFilesToolName,
		description,
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"file_titles": {
					Type:        "array",
					Description: "Titles of the most relevant documents, chosen from the available documents.",
					Items: &JSONSchema{
						Type:         "string",
						Enum:         titles,
						AdvisoryEnum: true,
					},
				},
			},
			Required: []string{"file_titles"},
		},
	)
}
