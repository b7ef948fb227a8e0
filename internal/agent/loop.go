// In file: internal/agent/loop.go

// Package agent implements the orchestration loop: it asks the decision
// engine what to do next, runs the requested tools in order, feeds their
// results back, and stops on a plain answer, the terminal tool, or the
// iteration ceiling.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/dileep-u-k/tutor-director/internal/api"
	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/session"
	"github.com/dileep-u-k/tutor-director/internal/tools"
)

// DefaultMaxIterations bounds the decision rounds of one request.
const DefaultMaxIterations = 10

// IterationLimitMessage is the answer returned when the ceiling is reached.
const IterationLimitMessage = "Iteration limit reached: the assistant could not finish within the allowed number of steps. Please try rephrasing or narrowing your question."

// DecisionClient is the external decision engine.
type DecisionClient interface {
	Decide(ctx context.Context, history []session.Turn, catalog []tools.Tool, instructions string) (*api.Decision, error)
}

// State is a state of the loop's state machine.
type State string

const (
	StateAwaitingDecision State = "awaiting_decision"
	StateExecutingTools   State = "executing_tools"
	StateTerminated       State = "terminated"
	StateFailed           State = "failed"
)

// Reason records why a run ended.
type Reason string

const (
	ReasonPlainAnswer     Reason = "plain_answer"
	ReasonTerminalTool    Reason = "terminal_tool"
	ReasonIterationLimit  Reason = "iteration_limit"
	ReasonDecisionFailure Reason = "decision_failure"
	ReasonCancelled       Reason = "cancelled"
)

// Outcome describes a finished run.
type Outcome struct {
	Answer         string
	State          State
	Reason         Reason
	Iterations     int
	ToolExecutions int
	Usage          api.Usage
	// Warning is ErrIterationExceeded when the ceiling ended the run.
	Warning error
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxIterations overrides DefaultMaxIterations. Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithInstructions overrides DefaultInstructions.
func WithInstructions(instructions string) Option {
	return func(l *Loop) {
		l.instructions = instructions
	}
}

// Loop drives sessions through the decision engine and the tool executor.
// A Loop holds no per-request state and may serve many sessions; each
// session must only be run by one caller at a time.
type Loop struct {
	client        DecisionClient
	executor      *tools.Executor
	instructions  string
	maxIterations int
}

// NewLoop creates a loop.
func NewLoop(client DecisionClient, executor *tools.Executor, opts ...Option) *Loop {
	l := &Loop{
		client:        client,
		executor:      executor,
		instructions:  DefaultInstructions,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxIterations returns the configured ceiling.
func (l *Loop) MaxIterations() int {
	return l.maxIterations
}

// Run processes one user query against sess.
//
// Tool failures are fed back to the decision engine as Error results and
// never end the run. A failed decision call ends the run in StateFailed and
// returns an error wrapping ErrDecisionClient; the turns appended so far are
// kept so the caller may run the session again.
func (l *Loop) Run(ctx context.Context, sess *session.Session, query string) (*Outcome, error) {
	sess.AppendTurn(session.UserTurn(query))
	sess.ResetIterations()

	out := &Outcome{State: StateAwaitingDecision}
	catalog := l.executor.Catalog()
	definitions := catalog.Definitions()

	for {
		if err := ctx.Err(); err != nil {
			l.finish(out, sess, StateFailed, ReasonCancelled)
			out.Answer = "The request was cancelled before an answer was produced."
			return out, err
		}

		start := time.Now()
		decision, err := l.client.Decide(ctx, sess.Snapshot().Turns(), definitions, l.instructions)
		if err != nil {
			decisionDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
			log.Errorf("❌ Decision engine call failed for session %s: %v", sess.ID(), err)
			l.finish(out, sess, StateFailed, ReasonDecisionFailure)
			out.Answer = fmt.Sprintf("Sorry, something went wrong while processing your request: %v", err)
			return out, fmt.Errorf("%w: %v", ErrDecisionClient, err)
		}
		decisionDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
		if decision == nil {
			decision = &api.Decision{}
		}
		out.Usage.Add(decision.Usage)

		if len(decision.ToolCalls) == 0 {
			sess.AppendTurn(session.AgentTurn(decision.Text, nil))
			out.Answer = decision.Text
			l.finish(out, sess, StateTerminated, ReasonPlainAnswer)
			return out, nil
		}

		sess.AppendTurn(session.AgentTurn(decision.Text, decision.ToolCalls))
		out.State = StateExecutingTools
		log.Infof("🧭 Session %s: decision engine requested %d tool call(s)", sess.ID(), len(decision.ToolCalls))

		for i, call := range decision.ToolCalls {
			result := l.executor.Execute(ctx, call, sess.Snapshot())
			terminal := catalog.IsTerminal(call.Name)
			// Accumulated results feed composition; the terminal result is its output.
			if !terminal {
				sess.MergeResult(result)
			}
			sess.AppendTurn(session.ToolTurn(result))
			out.ToolExecutions++
			toolCallsTotal.WithLabelValues(toolLabel(catalog, call.Name), string(result.Status)).Inc()

			if !terminal || !result.OK() {
				continue
			}
			if skipped := len(decision.ToolCalls) - i - 1; skipped > 0 {
				log.Infof("⏭️ Terminal tool %s finished; skipping %d remaining call(s)", call.Name, skipped)
			}
			out.Answer = finalAnswer(result)
			l.finish(out, sess, StateTerminated, ReasonTerminalTool)
			return out, nil
		}

		if n := sess.NextIteration(); n >= l.maxIterations {
			log.Warnf("⚠️ Session %s reached the iteration limit (%d)", sess.ID(), l.maxIterations)
			out.Answer = IterationLimitMessage
			out.Warning = ErrIterationExceeded
			l.finish(out, sess, StateTerminated, ReasonIterationLimit)
			return out, nil
		}
		out.State = StateAwaitingDecision
	}
}

func (l *Loop) finish(out *Outcome, sess *session.Session, state State, reason Reason) {
	out.State = state
	out.Reason = reason
	out.Iterations = sess.IterationCount()
	runsTotal.WithLabelValues(string(state), string(reason)).Inc()
	iterationsPerRun.Observe(float64(out.Iterations))
	log.Infof("✅ Session %s finished: state=%s reason=%s iterations=%d tools=%d",
		sess.ID(), state, reason, out.Iterations, out.ToolExecutions)
}

func finalAnswer(result api.ToolResult) string {
	if fa, ok := result.Payload.(tools.FinalAnswerer); ok {
		return fa.FinalAnswer()
	}
	if s, ok := result.Payload.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", result.Payload)
}
