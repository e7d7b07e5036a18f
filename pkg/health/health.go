// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

// Package health defines the snapshot shape the daemon reports for its one
// external dependency, the embedding upstream. The daemon keeps serving
// reads while the upstream is down, so health is advisory: a snapshot says
// whether new content can be embedded right now, not whether the process
// is alive.
package health

import "time"

// Metrics is a point-in-time view of the embedding upstream. FailureCount
// is cumulative since process start and never resets. CooldownUntil is set
// only while the upstream is backing off after a failure; once the window
// passes the upstream is reported available again even without a
// confirming success. Safe to serialize to JSON as-is.
type Metrics struct {
	FailureCount  int64      `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
	Available     bool       `json:"available"`
}

// Degraded reports whether the upstream is inside a failure cooldown.
// Searches still work in this state; only ingestion of new events stalls.
func (m Metrics) Degraded() bool {
	return !m.Available
}
