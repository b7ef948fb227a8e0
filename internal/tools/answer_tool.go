// In file: internal/tools/answer_tool.go
package tools

import (
	"context"
	"unicode/utf8"

	"github.com/dileep-u-k/tutor-director/internal/compose"
	"github.com/dileep-u-k/tutor-director/internal/session"
	"github.com/dileep-u-k/tutor-director/internal/store"
)

// --- Answer Generation Tool Implementation ---

// AnswerToolName is the name of the terminal tool.
const AnswerToolName = "generate_detailed_response"

// Composer generates the final answer from the accumulated context.
type Composer interface {
	Compose(ctx context.Context, req compose.Request) (compose.Result, error)
}

// AnswerReport is the payload of the terminal tool.
type AnswerReport struct {
	Response           string `json:"response"`
	UsedKnowledgeLevel bool   `json:"used_knowledge_level"`
	UsedFiles          bool   `json:"used_files"`
	ResponseLength     int    `json:"response_length"`
}

// FinalAnswer is the text returned to the user.
func (r AnswerReport) FinalAnswer() string {
	return r.Response
}

// AnswerTool generates the final answer. Its successful execution ends the loop.
type AnswerTool struct {
	composer Composer
}

var (
	_ Handler  = (*AnswerTool)(nil)
	_ Terminal = (*AnswerTool)(nil)
)

// NewAnswerTool creates the terminal tool over a composer.
func NewAnswerTool(c Composer) *AnswerTool {
	return &AnswerTool{composer: c}
}

// Terminal marks this tool as the one that ends orchestration.
func (at *AnswerTool) Terminal() bool { return true }

// Definition describes the tool to the decision engine.
func (at *AnswerTool) Definition() Tool {
	return NewFunctionTool(
		AnswerToolName,
		`Generate the detailed final answer to the user's question. Call this last.

It combines whatever earlier steps gathered:
- use_knowledge_level: adapt the explanation to the knowledge level returned by get_knowledge_level
- use_selected_files: answer from the documents returned by select_relevant_files

Set a flag to false when the matching step was not performed or is irrelevant.`,
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"user_query": {
					Type:        "string",
					Description: "The user's original question.",
				},
				"use_knowledge_level": {
					Type:        "boolean",
					Description: "Whether to adapt the answer to the user's knowledge level.",
				},
				"use_selected_files": {
					Type:        "boolean",
					Description: "Whether to answer from the selected documents.",
				},
			},
			Required: []string{"user_query"},
		},
	)
}

// Execute composes the answer from the session's latest knowledge and
// selection results, each included only when its flag is set and a
// successful result exists.
func (at *AnswerTool) Execute(ctx context.Context, args map[string]any, view session.Snapshot) (any, error) {
	req := compose.Request{Query: stringArg(args, "user_query")}

	if boolArg(args, "use_knowledge_level") {
		if report, ok := knowledgeFrom(view); ok {
			req.Knowledge = report.SubjectsInfo
		}
	}
	if boolArg(args, "use_selected_files") {
		if sel, ok := selectionFrom(view); ok {
			req.Resources = append([]store.ResourceDescriptor(nil), sel.SelectedFiles...)
		}
	}

	res, err := at.composer.Compose(ctx, req)
	if err != nil {
		return nil, err
	}
	return AnswerReport{
		Response:           res.Text,
		UsedKnowledgeLevel: req.Knowledge != nil,
		UsedFiles:          len(req.Resources) > 0,
		ResponseLength:     utf8.RuneCountInString(res.Text),
	}, nil
}

func knowledgeFrom(view session.Snapshot) (KnowledgeReport, bool) {
	result, ok := view.Result(KnowledgeToolName)
	if !ok || !result.OK() {
		return KnowledgeReport{}, false
	}
	switch p := result.Payload.(type) {
	case KnowledgeReport:
		return p, p.SubjectsInfo != nil
	case *KnowledgeReport:
		if p != nil {
			return *p, p.SubjectsInfo != nil
		}
	}
	return KnowledgeReport{}, false
}

func selectionFrom(view session.Snapshot) (Selection, bool) {
	result, ok := view.Result(SelectFilesToolName)
	if !ok || !result.OK() {
		return Selection{}, false
	}
	switch p := result.Payload.(type) {
	case Selection:
		return p, true
	case *Selection:
		if p != nil {
			return *p, true
		}
	}
	return Selection{}, false
}
