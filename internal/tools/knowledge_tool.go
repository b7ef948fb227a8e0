// In file: internal/tools/knowledge_tool.go
package tools

import (
	"context"
	"fmt"

	"github.com/dileep-u-k/tutor-director/internal/session"
	"github.com/dileep-u-k/tutor-director/internal/store"
)

// --- Knowledge Level Tool Implementation ---

// KnowledgeToolName is the name the decision engine calls the lookup by.
const KnowledgeToolName = "get_knowledge_level"

// Subjects the knowledge store is organised by.
const (
	SubjectCalculus       = "calculus"
	SubjectAlgebra        = "algebra"
	SubjectAstronomy      = "astronomy"
	SubjectGeneralScience = "general_science"
)

// Subjects lists every subject the lookup accepts.
var Subjects = []string{SubjectCalculus, SubjectAlgebra, SubjectAstronomy, SubjectGeneralScience}

// KnowledgeReport is the payload of a knowledge-level lookup.
type KnowledgeReport struct {
	UserID       string                          `json:"user_id"`
	SubjectsInfo map[string]store.KnowledgeLevel `json:"subjects_info"`
}

// KnowledgeTool reports the learner's recorded level in each requested subject.
// It only reads from its store, so repeated calls with the same subjects
// produce identical payloads.
type KnowledgeTool struct {
	store *store.KnowledgeStore
}

var _ Handler = (*KnowledgeTool)(nil)

// NewKnowledgeTool creates the lookup over a loaded knowledge store.
func NewKnowledgeTool(s *store.KnowledgeStore) *KnowledgeTool {
	if s == nil {
		s = store.EmptyKnowledgeStore()
	}
	return &KnowledgeTool{store: s}
}

// Definition describes the tool to the decision engine.
func (kt *KnowledgeTool) Definition() Tool {
	return NewFunctionTool(
		KnowledgeToolName,
		`Get the user's knowledge level (level and detailed_description) in the given subjects.

Call this first whenever the question belongs to a subject, so the answer can be pitched at the user's level:
- the user asks what they have learned, their level, or how well they know something
- the question mentions a subject (derivatives, equations, planets, energy...)
- the answer should be adapted to the user's background

Subjects:
- calculus: derivatives, integrals, limits
- algebra: equations, functions, expressions
- astronomy: celestial bodies, galaxies, orbital mechanics, the Sun, telescopes
- general_science: basic physics, chemistry, biology

Examples:
- "What astronomy did I learn this term?" -> get_knowledge_level(["astronomy"])
- "Summarise my progress" -> get_knowledge_level(["calculus", "algebra", "astronomy", "general_science"])`,
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"subjects": {
					Type:        "array",
					Description: "Subjects to look up. Allowed values: calculus, algebra, astronomy, general_science.",
					Items: &JSONSchema{
						Type: "string",
						Enum: Subjects,
					},
				},
			},
			Required: []string{"subjects"},
		},
	)
}

// Execute looks up every requested subject. Subjects with no record are
// reported with an unknown level rather than failing the call.
func (kt *KnowledgeTool) Execute(_ context.Context, args map[string]any, _ session.Snapshot) (any, error) {
	report := KnowledgeReport{
		UserID:       kt.store.UserID(),
		SubjectsInfo: make(map[string]store.KnowledgeLevel),
	}
	for _, raw := range stringList(args, "subjects") {
		subject := canonicalEnum(Subjects, raw)
		if subject == "" {
			subject = raw
		}
		if kl, ok := kt.store.Level(subject); ok {
			report.SubjectsInfo[subject] = kl
			continue
		}
		report.SubjectsInfo[subject] = store.KnowledgeLevel{
			Level:               store.UnknownLevel,
			DetailedDescription: fmt.Sprintf("no knowledge level data found for %s", subject),
		}
	}
	return report, nil
}
