// In file: internal/agent/errors.go
package agent

import "errors"

var (
	// ErrDecisionClient marks a failed decision engine call. It is the only
	// error Run returns for a started request; the session keeps its turns.
	ErrDecisionClient = errors.New("decision client failed")
	// ErrIterationExceeded marks a run that hit the iteration ceiling. It is
	// reported through Outcome.Reason, never returned.
	ErrIterationExceeded = errors.New("iteration limit reached")
)
