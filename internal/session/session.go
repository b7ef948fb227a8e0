// In file: internal/session/session.go

// Package session holds the conversation state driven by the orchestration
// loop: an append-only list of turns plus the most recent result per tool.
//
// A Session has exactly one writer at a time. It performs no locking of its
// own; callers that share a session across requests serialize through a
// Registry lease.
package session

import (
	"github.com/dileep-u-k/tutor-director/internal/api"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleTool  Role = "tool"
)

// Turn is one entry of the conversation. A user turn carries Text, an agent
// turn carries Text and/or the ToolCalls it requested, and a tool turn
// carries the Result of exactly one call.
type Turn struct {
	Role      Role
	Text      string
	ToolCalls []api.ToolCall
	Result    *api.ToolResult
}

// UserTurn builds a user turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// AgentTurn builds an agent turn.
func AgentTurn(text string, calls []api.ToolCall) Turn {
	return Turn{Role: RoleAgent, Text: text, ToolCalls: calls}
}

// ToolTurn builds a tool-result turn.
func ToolTurn(result api.ToolResult) Turn {
	return Turn{Role: RoleTool, Result: &result}
}

// clone deep-copies the slices and pointer a turn owns so that appended turns
// cannot be changed through a value the caller still holds.
func (t Turn) clone() Turn {
	if t.ToolCalls != nil {
		calls := make([]api.ToolCall, len(t.ToolCalls))
		for i, c := range t.ToolCalls {
			calls[i] = api.ToolCall{Name: c.Name, Arguments: cloneArgs(c.Arguments)}
		}
		t.ToolCalls = calls
	}
	if t.Result != nil {
		r := *t.Result
		t.Result = &r
	}
	return t
}

func cloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}

// Session is the state of one conversation.
type Session struct {
	id          string
	turns       []Turn
	accumulated map[string]api.ToolResult
	iterations  int
}

// New creates an empty session.
func New(id string) *Session {
	return &Session{
		id:          id,
		accumulated: make(map[string]api.ToolResult),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// AppendTurn adds a turn at the end of the history.
func (s *Session) AppendTurn(t Turn) {
	s.turns = append(s.turns, t.clone())
}

// MergeResult records result as the latest result for its tool, replacing
// any earlier one.
func (s *Session) MergeResult(result api.ToolResult) {
	s.accumulated[result.ToolName] = result
}

// Result returns the latest result recorded for tool.
func (s *Session) Result(tool string) (api.ToolResult, bool) {
	r, ok := s.accumulated[tool]
	return r, ok
}

// ResetIterations starts a new request's iteration count at zero.
func (s *Session) ResetIterations() {
	s.iterations = 0
}

// NextIteration increments the iteration count and returns the new value.
func (s *Session) NextIteration() int {
	s.iterations++
	return s.iterations
}

// IterationCount is the number of decision rounds completed in the current request.
func (s *Session) IterationCount() int {
	return s.iterations
}

// Len is the number of turns in the history.
func (s *Session) Len() int {
	return len(s.turns)
}

// Snapshot returns an immutable view for the decision engine and composer.
func (s *Session) Snapshot() Snapshot {
	turns := make([]Turn, len(s.turns))
	for i, t := range s.turns {
		turns[i] = t.clone()
	}
	acc := make(map[string]api.ToolResult, len(s.accumulated))
	for k, v := range s.accumulated {
		acc[k] = v
	}
	return Snapshot{turns: turns, accumulated: acc, iterations: s.iterations}
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	turns       []Turn
	accumulated map[string]api.ToolResult
	iterations  int
}

// Turns returns the turns in append order.
func (v Snapshot) Turns() []Turn {
	return v.turns
}

// Result returns the latest result for tool as of the snapshot.
func (v Snapshot) Result(tool string) (api.ToolResult, bool) {
	r, ok := v.accumulated[tool]
	return r, ok
}

// Accumulated returns a copy of the per-tool results.
func (v Snapshot) Accumulated() map[string]api.ToolResult {
	out := make(map[string]api.ToolResult, len(v.accumulated))
	for k, r := range v.accumulated {
		out[k] = r
	}
	return out
}

// IterationCount as of the snapshot.
func (v Snapshot) IterationCount() int {
	return v.iterations
}

// View renders turns for the HTTP and CLI surfaces.
func View(turns []Turn) []api.TurnView {
	views := make([]api.TurnView, len(turns))
	for i, t := range turns {
		views[i] = api.TurnView{
			Role:      string(t.Role),
			Text:      t.Text,
			ToolCalls: t.ToolCalls,
			Result:    t.Result,
		}
	}
	return views
}
