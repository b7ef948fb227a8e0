// In file: internal/llm/gemini_client.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/dileep-u-k/tutor-director/internal/api"
	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/session"
	"github.com/dileep-u-k/tutor-director/internal/tools"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// GeminiDecider asks a Gemini model, through function calling, what the
// orchestration loop should do next.
type GeminiDecider struct {
	client *GeminiClient
}

var _ Decider = (*GeminiDecider)(nil)

// NewGeminiDecider creates a decider on an existing client.
func NewGeminiDecider(client *GeminiClient) *GeminiDecider {
	return &GeminiDecider{client: client}
}

// Decide sends the conversation and tool catalog to the model and returns
// either its text answer or the tool calls it requested. One call, no retry.
func (d *GeminiDecider) Decide(
	ctx context.Context,
	history []session.Turn,
	catalog []tools.Tool,
	instructions string,
) (*api.Decision, error) {
	contents := toGeminiHistory(history)
	if len(contents) == 0 || contents[len(contents)-1].Role != roleUser {
		return nil, errors.New("conversation must end with a user message or tool results")
	}

	model := d.client.model()
	if instructions != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instructions)}}
	}
	model.Tools = toGeminiTools(catalog)

	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseDecision(resp)
}

// toGeminiTools converts the catalog into a single Gemini tool carrying
// every function declaration.
func toGeminiTools(catalog []tools.Tool) []*genai.Tool {
	if len(catalog) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(catalog))
	for _, t := range catalog {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  convertSchema(t.Function.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// convertSchema is a helper function to convert our JSONSchema to the Gemini SDK's schema type.
func convertSchema(s tools.JSONSchema) *genai.Schema {
	genaiSchema := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
	}
	switch s.Type {
	case "object":
		genaiSchema.Type = genai.TypeObject
	case "array":
		genaiSchema.Type = genai.TypeArray
	case "string":
		genaiSchema.Type = genai.TypeString
	case "number":
		genaiSchema.Type = genai.TypeNumber
	case "integer":
		genaiSchema.Type = genai.TypeInteger
	case "boolean":
		genaiSchema.Type = genai.TypeBoolean
	}
	if s.Items != nil {
		genaiSchema.Items = convertSchema(*s.Items)
	}
	if s.Properties != nil {
		genaiSchema.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			if v != nil {
				genaiSchema.Properties[k] = convertSchema(*v)
			}
		}
	}
	return genaiSchema
}

// toGeminiHistory converts session turns into Gemini contents.
//
// Consecutive turns of the same role are merged, so every batch of tool
// results becomes one user content. A model content only keeps the function
// calls that were actually answered: when the loop stopped a batch early, the
// skipped calls have no response and the API rejects unanswered calls.
func toGeminiHistory(turns []session.Turn) []*genai.Content {
	var contents []*genai.Content
	push := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	for i, t := range turns {
		switch t.Role {
		case session.RoleUser:
			if t.Text != "" {
				push(roleUser, genai.Text(t.Text))
			}
		case session.RoleAgent:
			answered := answeredCalls(turns[i+1:])
			var parts []genai.Part
			if t.Text != "" {
				parts = append(parts, genai.Text(t.Text))
			}
			for j, call := range t.ToolCalls {
				if j >= answered {
					break
				}
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Arguments})
			}
			push(roleModel, parts...)
		case session.RoleTool:
			if t.Result != nil {
				push(roleUser, genai.FunctionResponse{Name: t.Result.ToolName, Response: responseMap(*t.Result)})
			}
		}
	}
	return contents
}

// answeredCalls counts the tool turns directly following an agent turn.
func answeredCalls(rest []session.Turn) int {
	n := 0
	for _, t := range rest {
		if t.Role != session.RoleTool {
			break
		}
		n++
	}
	return n
}

// responseMap renders a tool result as the object Gemini expects in a
// function response.
func responseMap(result api.ToolResult) map[string]any {
	out := map[string]any{}
	raw, err := json.Marshal(result.Payload)
	if err != nil {
		out["error"] = fmt.Sprintf("tool payload could not be serialized: %v", err)
		return out
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err == nil {
		if m, ok := decoded.(map[string]any); ok {
			out = m
		} else if decoded != nil {
			out["result"] = decoded
		}
	}
	if !result.OK() {
		if _, ok := out["error"]; !ok {
			out["error"] = result.Message
		}
	}
	return out
}

// parseDecision converts a Gemini API response into a Decision.
func parseDecision(resp *genai.GenerateContentResponse) (*api.Decision, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("no candidates returned from Gemini")
	}

	decision := &api.Decision{}
	if resp.UsageMetadata != nil {
		decision.Usage = api.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		log.Warnf("⚠️ Gemini returned an empty candidate (finish reason %v)", candidate.FinishReason)
		return decision, nil
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			text.WriteString(string(v))
		case genai.FunctionCall:
			args := v.Args
			if args == nil {
				args = map[string]any{}
			}
			decision.ToolCalls = append(decision.ToolCalls, api.ToolCall{Name: v.Name, Arguments: args})
		}
	}
	// Whitespace-only text counts as no text; anything else is kept verbatim.
	if strings.TrimSpace(text.String()) != "" {
		decision.Text = text.String()
	}
	return decision, nil
}
