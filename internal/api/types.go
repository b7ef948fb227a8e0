// In file: internal/api/types.go

// Package api holds the data types shared between the orchestration loop, the
// tool layer, the model adapters and the HTTP surface. Keeping them in one
// leaf package lets every other package depend on them without cycles.
package api

// Status is the outcome variant of a tool execution.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// ToolCall is a request *from* the decision engine to run a tool.
// Arguments arrive already decoded from the model's structured output.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the normalized outcome of one tool call. Payload is the
// tool-specific, JSON-serializable value shown to the decision engine.
type ToolResult struct {
	ToolName string `json:"tool_name"`
	Status   Status `json:"status"`
	Payload  any    `json:"payload,omitempty"`
	Message  string `json:"message,omitempty"`
}

// OK reports whether the result is the success variant.
func (r ToolResult) OK() bool {
	return r.Status == StatusOK
}

// Success builds an Ok result.
func Success(name string, payload any) ToolResult {
	return ToolResult{ToolName: name, Status: StatusOK, Payload: payload}
}

// Failure builds an Error result. The message is fed back to the decision
// engine verbatim, so it should be readable by a model.
func Failure(name, message string) ToolResult {
	return ToolResult{
		ToolName: name,
		Status:   StatusError,
		Payload:  map[string]any{"error": message},
		Message:  message,
	}
}

// Decision is what the decision engine returns for one round-trip.
// Exactly one of Text or a non-empty ToolCalls is expected; when both are
// empty the loop treats it as an empty final answer.
type Decision struct {
	Text      string     `json:"text,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage"`
}

// Usage carries token accounting reported by the model provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
