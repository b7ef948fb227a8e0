// In file: internal/api/http.go
package api

// QueryRequest is the body accepted by the query endpoints.
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// QueryResponse is returned by the query endpoints.
type QueryResponse struct {
	SessionID      string `json:"session_id,omitempty"`
	Answer         string `json:"answer"`
	State          string `json:"state"`
	Iterations     int    `json:"iterations"`
	ToolExecutions int    `json:"tool_executions"`
	Usage          Usage  `json:"usage"`
	LatencyMS      int64  `json:"latency_ms"`
	Error          string `json:"error,omitempty"`
}

// TurnView is the JSON rendering of one conversation turn.
type TurnView struct {
	Role      string      `json:"role"`
	Text      string      `json:"text,omitempty"`
	ToolCalls []ToolCall  `json:"tool_calls,omitempty"`
	Result    *ToolResult `json:"result,omitempty"`
}

// HistoryResponse lists a session's turns in append order.
type HistoryResponse struct {
	SessionID string     `json:"session_id"`
	Turns     []TurnView `json:"turns"`
}
