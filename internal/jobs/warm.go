// Package jobs defines the background tasks shared by the API and the worker.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/fpldash/pkg/fetch"
	"github.com/briangreenhill/fpldash/pkg/fpl"
)

// ErrUnknownResource is returned for resources outside the FPL allowlist.
var ErrUnknownResource = errors.New("unknown resource")

// ErrUnknownMode is returned for cache modes ParseCacheMode rejects.
var ErrUnknownMode = errors.New("unknown cache mode")

// NewWarmTask builds a fetch:warm task. Identical resources enqueued within
// the unique window collapse into one task.
func NewWarmTask(p WarmPayload) (*asynq.Task, error) {
	p.Resource = strings.TrimLeft(p.Resource, "/")
	if !fpl.Allowed(p.Resource) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, p.Resource)
	}
	if p.Mode != "" {
		if _, ok := fetch.ParseCacheMode(p.Mode); !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownMode, p.Mode)
		}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWarm, b,
		asynq.Queue(QueueWarm),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.Unique(30*time.Second),
	), nil
}

// Enqueuer is the part of asynq.Client the API uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueWarm sends one warm task per resource and returns the task IDs.
// Duplicates of an already queued task are skipped.
func EnqueueWarm(ctx context.Context, q Enqueuer, resources []string, ttl time.Duration, mode string) ([]string, error) {
	ids := make([]string, 0, len(resources))
	for _, r := range resources {
		task, err := NewWarmTask(WarmPayload{Resource: r, TTLMs: ttl.Milliseconds(), Mode: mode})
		if err != nil {
			return ids, err
		}
		info, err := q.EnqueueContext(ctx, task, asynq.TaskID(uuid.NewString()))
		if errors.Is(err, asynq.ErrDuplicateTask) {
			continue
		}
		if err != nil {
			return ids, fmt.Errorf("enqueue %s: %w", r, err)
		}
		ids = append(ids, info.ID)
	}
	return ids, nil
}

// Resolver is implemented by *fetch.Client.
type Resolver interface {
	ResolveDetailed(ctx context.Context, resource string, policy fetch.Policy) (fetch.Result, error)
}

// PolicySource is implemented by *fpl.Client.
type PolicySource interface {
	PolicyFor(resource string, expect ...string) fetch.Policy
}

// WarmHandler resolves warm tasks into the shared cache.
type WarmHandler struct {
	Resolver Resolver
	Policies PolicySource
	Log      zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h *WarmHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p WarmPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("bad payload: %v: %w", err, asynq.SkipRetry)
	}
	if !fpl.Allowed(p.Resource) {
		return fmt.Errorf("%w %q: %w", ErrUnknownResource, p.Resource, asynq.SkipRetry)
	}

	policy := h.Policies.PolicyFor(p.Resource)
	if policy.Cache != nil {
		spec := *policy.Cache
		if p.TTLMs > 0 {
			spec.TTL = time.Duration(p.TTLMs) * time.Millisecond
		}
		if m, ok := fetch.ParseCacheMode(p.Mode); ok && p.Mode != "" {
			spec.Mode = m
		}
		policy.Cache = &spec
	}

	log := h.Log.With().Str("task", t.Type()).Str("resource", p.Resource).Logger()
	start := time.Now()
	res, err := h.Resolver.ResolveDetailed(ctx, p.Resource, policy)
	duration := time.Since(start)

	if err != nil {
		if fetch.Retryable(err) {
			log.Warn().Err(err).Dur("duration", duration).Msg("retryable error")
			return err
		}
		log.Error().Err(err).Dur("duration", duration).Msg("permanent error, dropping task")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	log.Info().Str("source", string(res.Source)).Str("route", string(res.Route)).Dur("duration", duration).Msg("warmed")
	return nil
}
