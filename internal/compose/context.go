// In file: internal/compose/context.go
package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dileep-u-k/tutor-director/internal/store"
)

// Attachment is a resource materialized on the generation provider's side.
type Attachment struct {
	Title    string
	URI      string
	MIMEType string
}

// Part is one element of a generation context: either text or an attachment.
type Part struct {
	Text       string
	Attachment *Attachment
	// Resource is the title of the document this part stands for, if any.
	Resource string
	// Fallback marks a text part standing in for a failed attachment.
	Fallback bool
}

// GenerationContext is the ordered input handed to the generator.
type GenerationContext struct {
	Parts     []Part
	Attached  []string
	Fallbacks []string
}

// Prompt joins every text part, which is what the conversational path sends.
func (g GenerationContext) Prompt() string {
	var b strings.Builder
	for _, p := range g.Parts {
		if p.Attachment != nil {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// HasAttachments reports whether at least one resource attached.
func (g GenerationContext) HasAttachments() bool {
	return len(g.Attached) > 0
}

const separator = "------------------------------------------------------------"

func knowledgeBlock(levels map[string]store.KnowledgeLevel) string {
	subjects := make([]string, 0, len(levels))
	for s := range levels {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	var b strings.Builder
	b.WriteString("\n[User knowledge background]\n")
	for _, s := range subjects {
		kl := levels[s]
		level := kl.Level
		if level == "" {
			level = store.UnknownLevel
		}
		fmt.Fprintf(&b, "- %s: %s level\n", s, level)
		if kl.DetailedDescription != "" {
			fmt.Fprintf(&b, "  details: %s\n", kl.DetailedDescription)
		}
	}
	b.WriteString("\nExplain concepts in a way that suits the user's knowledge level.\n")
	return b.String()
}

func summaryBlock(r store.ResourceDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n[Reference document: %s]\n", r.Title)
	if len(r.Topics) > 0 {
		fmt.Fprintf(&b, "topics: %s\n", strings.Join(r.Topics, ", "))
	}
	if r.Summary != "" {
		fmt.Fprintf(&b, "summary: %s\n", r.Summary)
	}
	b.WriteString("\n")
	return b.String()
}

func queryBlock(query string) string {
	return fmt.Sprintf("\n%s\n\nUser question: %s\n\n", separator, query)
}

const closingInstruction = "Please give a detailed, accurate and easy to follow answer."
