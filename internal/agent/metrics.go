// In file: internal/agent/metrics.go
package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dileep-u-k/tutor-director/internal/tools"
)

// Package-level metrics, registered once with the default registry.
var (
	// runsTotal counts finished loop runs by terminal state and reason.
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "director",
			Subsystem: "loop",
			Name:      "runs_total",
			Help:      "Orchestration loop runs by final state and reason.",
		},
		[]string{"state", "reason"},
	)

	// toolCallsTotal counts executed tool calls.
	//
	// Labels:
	//   - tool: the catalog tool name, or "unknown" for names outside the catalog
	//   - status: "ok" or "error"
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "director",
			Subsystem: "loop",
			Name:      "tool_calls_total",
			Help:      "Tool calls executed by the orchestration loop.",
		},
		[]string{"tool", "status"},
	)

	decisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "director",
			Subsystem: "loop",
			Name:      "decision_duration_seconds",
			Help:      "Duration of decision engine calls in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)

	iterationsPerRun = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "director",
			Subsystem: "loop",
			Name:      "iterations",
			Help:      "Decision rounds with tool calls per run.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		},
	)
)

// unknownToolLabel bounds the tool label to the catalog's names.
const unknownToolLabel = "unknown"

func toolLabel(catalog *tools.Catalog, name string) string {
	if _, err := catalog.Lookup(name); err != nil {
		return unknownToolLabel
	}
	return name
}
