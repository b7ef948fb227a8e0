// In file: internal/llm/profiler.go
package llm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dileep-u-k/tutor-director/internal/api"
	"github.com/dileep-u-k/tutor-director/internal/log"
	"github.com/dileep-u-k/tutor-director/internal/session"
	"github.com/dileep-u-k/tutor-director/internal/tools"
)

// Profile statuses.
const (
	StatusOnline   = "online"
	StatusDegraded = "degraded"
)

// latencyAlpha weights the newest sample in the latency moving average.
const latencyAlpha = 0.1

// ModelProfile tracks latency, token usage and reliability of a decision model.
type ModelProfile struct {
	ModelID           string    `json:"model_id" redis:"model_id"`
	AvgLatencyMS      int64     `json:"avg_latency_ms" redis:"avg_latency_ms"`
	Status            string    `json:"status" redis:"status"`
	ErrorRate         float64   `json:"error_rate" redis:"error_rate"`
	TotalSuccesses    int64     `json:"total_successes" redis:"total_successes"`
	TotalFailures     int64     `json:"total_failures" redis:"total_failures"`
	TotalInputTokens  int64     `json:"total_input_tokens" redis:"total_input_tokens"`
	TotalOutputTokens int64     `json:"total_output_tokens" redis:"total_output_tokens"`
	LastCall          time.Time `json:"last_call" redis:"last_call"`
}

// Profiler keeps one ModelProfile per model in a Redis hash.
type Profiler struct {
	rdb *redis.Client
}

func NewProfiler(rdb *redis.Client) *Profiler {
	return &Profiler{rdb: rdb}
}

func (p *Profiler) getProfileKey(modelID string) string {
	return fmt.Sprintf("profile:%s", modelID)
}

// GetProfile retrieves a model's profile. A model never called has an empty
// profile with status online.
func (p *Profiler) GetProfile(ctx context.Context, modelID string) (*ModelProfile, error) {
	profileData, err := p.rdb.HGetAll(ctx, p.getProfileKey(modelID)).Result()
	if err != nil {
		return nil, err
	}

	profile := &ModelProfile{ModelID: modelID, Status: StatusOnline}
	if len(profileData) == 0 {
		return profile, nil
	}
	profile.AvgLatencyMS, _ = strconv.ParseInt(profileData["avg_latency_ms"], 10, 64)
	if s := profileData["status"]; s != "" {
		profile.Status = s
	}
	profile.ErrorRate, _ = strconv.ParseFloat(profileData["error_rate"], 64)
	profile.TotalSuccesses, _ = strconv.ParseInt(profileData["total_successes"], 10, 64)
	profile.TotalFailures, _ = strconv.ParseInt(profileData["total_failures"], 10, 64)
	profile.TotalInputTokens, _ = strconv.ParseInt(profileData["total_input_tokens"], 10, 64)
	profile.TotalOutputTokens, _ = strconv.ParseInt(profileData["total_output_tokens"], 10, 64)
	profile.LastCall, _ = time.Parse(time.RFC3339Nano, profileData["last_call"])
	return profile, nil
}

// RecordSuccess folds a successful call into the profile.
func (p *Profiler) RecordSuccess(ctx context.Context, modelID string, latency time.Duration, usage api.Usage) {
	key := p.getProfileKey(modelID)

	err := p.rdb.Watch(ctx, func(tx *redis.Tx) error {
		currentStr, err := tx.HGet(ctx, key, "avg_latency_ms").Result()
		if err != nil && err != redis.Nil {
			return err
		}
		newLatency := latency.Milliseconds()
		if err != redis.Nil {
			current, _ := strconv.ParseInt(currentStr, 10, 64)
			newLatency = int64(latencyAlpha*float64(latency.Milliseconds()) + (1.0-latencyAlpha)*float64(current))
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", newLatency)
			return nil
		})
		return err
	}, key)
	if err != nil {
		log.Warnf("⚠️ Error updating latency for %s: %v", modelID, err)
	}

	pipe := p.rdb.Pipeline()
	successes := pipe.HIncrBy(ctx, key, "total_successes", 1)
	failures := pipe.HGet(ctx, key, "total_failures")
	pipe.HIncrBy(ctx, key, "total_input_tokens", int64(usage.PromptTokens))
	pipe.HIncrBy(ctx, key, "total_output_tokens", int64(usage.CompletionTokens))
	pipe.HSet(ctx, key, "model_id", modelID, "status", StatusOnline, "last_call", time.Now().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		log.Warnf("⚠️ Error in success update pipeline for %s: %v", modelID, err)
		return
	}

	totalFailures, _ := strconv.ParseInt(failures.Val(), 10, 64)
	p.storeErrorRate(ctx, key, successes.Val(), totalFailures)
}

// RecordFailure counts a failed call and marks the model degraded.
func (p *Profiler) RecordFailure(ctx context.Context, modelID string) {
	key := p.getProfileKey(modelID)
	pipe := p.rdb.Pipeline()
	failures := pipe.HIncrBy(ctx, key, "total_failures", 1)
	successes := pipe.HGet(ctx, key, "total_successes")
	pipe.HSet(ctx, key, "model_id", modelID, "status", StatusDegraded, "last_call", time.Now().Format(time.RFC3339Nano))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		log.Warnf("⚠️ Error in failure update pipeline for %s: %v", modelID, err)
		return
	}

	totalSuccesses, _ := strconv.ParseInt(successes.Val(), 10, 64)
	p.storeErrorRate(ctx, key, totalSuccesses, failures.Val())
}

func (p *Profiler) storeErrorRate(ctx context.Context, key string, successes, failures int64) {
	total := successes + failures
	if total == 0 {
		return
	}
	if err := p.rdb.HSet(ctx, key, "error_rate", float64(failures)/float64(total)).Err(); err != nil {
		log.Warnf("⚠️ Error storing error rate for %s: %v", key, err)
	}
}

// ProfiledDecider records every decision call of next in the profiler.
type ProfiledDecider struct {
	next     Decider
	profiler *Profiler
	modelID  string
}

var _ Decider = (*ProfiledDecider)(nil)

// NewProfiledDecider wraps next.
func NewProfiledDecider(next Decider, profiler *Profiler, modelID string) *ProfiledDecider {
	return &ProfiledDecider{next: next, profiler: profiler, modelID: modelID}
}

// Decide delegates to the wrapped decider. Profiling never changes the outcome.
func (d *ProfiledDecider) Decide(
	ctx context.Context,
	history []session.Turn,
	catalog []tools.Tool,
	instructions string,
) (*api.Decision, error) {
	start := time.Now()
	decision, err := d.next.Decide(ctx, history, catalog, instructions)
	latency := time.Since(start)

	recordCtx := context.WithoutCancel(ctx)
	if err != nil {
		d.profiler.RecordFailure(recordCtx, d.modelID)
		return nil, err
	}
	var usage api.Usage
	if decision != nil {
		usage = decision.Usage
	}
	d.profiler.RecordSuccess(recordCtx, d.modelID, latency, usage)
	return decision, nil
}
