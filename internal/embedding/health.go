// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package embedding

import (
	"context"
	"sync"
	"time"

	noaherr "github.com/chakany/noah/pkg/errors"
	"github.com/chakany/noah/pkg/health"
)

// DefaultHealthCooldown is the duration after which an unhealthy provider
// is reported available again.
const DefaultHealthCooldown = 30 * time.Second

// HealthTracker provides simple health state tracking for an embedding
// upstream. The provider is considered healthy until RecordFailure is
// called; after a failure it is reported unavailable for a cooldown period.
// Tracking is observational only — it never gates calls.
type HealthTracker struct {
	mu           sync.RWMutex
	healthy      bool
	failedAt     time.Time
	cooldown     time.Duration
	failureCount int64
	nowFunc      func() time.Time // for testing
}

// NewHealthTracker creates a HealthTracker that starts healthy.
func NewHealthTracker(cooldown time.Duration) (*HealthTracker, error) {
	if cooldown <= 0 {
		return nil, noaherr.Errorf(noaherr.CodeConfigValidateInvalidValue,
			"health tracker cooldown must be positive, got %s", cooldown)
	}
	return &HealthTracker{
		healthy:  true,
		cooldown: cooldown,
		nowFunc:  time.Now,
	}, nil
}

// RecordSuccess marks the provider as healthy.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	h.healthy = true
	h.mu.Unlock()
}

// RecordFailure marks the provider as unhealthy and increments the
// cumulative failure count.
func (h *HealthTracker) RecordFailure() {
	h.mu.Lock()
	h.healthy = false
	h.failedAt = h.nowFunc()
	h.failureCount++
	h.mu.Unlock()
}

// SetNowFunc overrides the time source (for testing).
func (h *HealthTracker) SetNowFunc(fn func() time.Time) {
	h.mu.Lock()
	h.nowFunc = fn
	h.mu.Unlock()
}

// isHealthyLocked reports whether the provider is healthy or the cooldown
// has elapsed. The caller MUST hold at least h.mu.RLock.
func (h *HealthTracker) isHealthyLocked() bool {
	if h.healthy {
		return true
	}
	return h.nowFunc().Sub(h.failedAt) >= h.cooldown
}

// Metrics returns a point-in-time snapshot of the tracker's state.
func (h *HealthTracker) Metrics() health.Metrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m := health.Metrics{
		FailureCount: h.failureCount,
	}

	if h.failureCount > 0 {
		t := h.failedAt
		m.LastFailureAt = &t
	}

	m.Available = h.isHealthyLocked()
	if !h.healthy {
		cooldownEnd := h.failedAt.Add(h.cooldown)
		m.CooldownUntil = &cooldownEnd
	}
	return m
}

// Compile-time interface check.
var _ Embedder = (*Tracked)(nil)

// Tracked wraps an Embedder and records per-call outcomes in a
// HealthTracker.
type Tracked struct {
	inner   Embedder
	tracker *HealthTracker
}

// WithHealth decorates an embedder with health tracking.
func WithHealth(inner Embedder, tracker *HealthTracker) *Tracked {
	return &Tracked{inner: inner, tracker: tracker}
}

func (t *Tracked) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := t.inner.Embed(ctx, text)
	if err != nil {
		t.tracker.RecordFailure()
		return nil, err
	}
	t.tracker.RecordSuccess()
	return vec, nil
}

func (t *Tracked) Dimensions() int { return t.inner.Dimensions() }

func (t *Tracked) Name() string { return t.inner.Name() }
