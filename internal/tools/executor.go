// In file: internal/tools/executor.go
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dileep-u-k/tutor-director/internal/api"
	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/session"
)

// Handler is the contract every tool implements.
//
// By having all tools implement this interface, the catalog and executor can
// manage them in a plug-and-play fashion without knowing any tool's details.
type Handler interface {
	// Definition returns the tool's schema, which is provided to the decision
	// engine so it understands the tool's name and arguments.
	Definition() Tool

	// Execute runs the tool. Arguments have already been validated against
	// the Definition's schema. The returned payload must be JSON-serializable;
	// a returned error becomes an Error-status result.
	Execute(ctx context.Context, args map[string]any, view session.Snapshot) (any, error)
}

// Terminal is implemented by the tool whose successful execution ends the
// orchestration loop.
type Terminal interface {
	Terminal() bool
}

// FinalAnswerer is implemented by terminal payloads that carry the answer
// returned to the user.
type FinalAnswerer interface {
	FinalAnswer() string
}

// Executor dispatches tool calls to their handlers and normalizes every
// outcome into an api.ToolResult. It never returns an error and never lets a
// handler panic escape.
type Executor struct {
	catalog *Catalog
}

// NewExecutor creates an executor over a built catalog.
func NewExecutor(catalog *Catalog) *Executor {
	return &Executor{catalog: catalog}
}

// Catalog exposes the catalog the executor dispatches against.
func (e *Executor) Catalog() *Catalog {
	return e.catalog
}

// Execute runs one tool call.
func (e *Executor) Execute(ctx context.Context, call api.ToolCall, view session.Snapshot) (result api.ToolResult) {
	start := time.Now()
	desc, err := e.catalog.Lookup(call.Name)
	if err != nil {
		log.Warnf("⚠️ Decision engine requested unknown tool %q", call.Name)
		return api.Failure(call.Name, ErrUnknownTool.Error())
	}

	if err := ValidateArguments(desc.Tool.Function.Parameters, call.Arguments); err != nil {
		log.Warnf("⚠️ Rejected arguments for %s: %v", call.Name, err)
		return api.Failure(call.Name, err.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("❌ Tool %s panicked: %v", call.Name, r)
			result = api.Failure(call.Name, fmt.Sprintf("tool %s failed: %v", call.Name, r))
		}
	}()

	log.Infof("🛠️ Executing tool: %s with args: %v", call.Name, call.Arguments)
	payload, err := desc.Handler.Execute(ctx, call.Arguments, view)
	if err != nil {
		log.Warnf("⚠️ Tool %s failed after %s: %v", call.Name, time.Since(start), err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return api.Failure(call.Name, fmt.Sprintf("tool %s was cancelled", call.Name))
		}
		return api.Failure(call.Name, err.Error())
	}
	log.Debugf("✅ Tool %s finished in %s", call.Name, time.Since(start))
	return api.Success(call.Name, payload)
}
