// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package store

import "context"

// EventStore persists ingested events with their embeddings and answers
// similarity-ranked queries over them.
type EventStore interface {
	// Exists reports whether an event with the given ID is already stored.
	Exists(ctx context.Context, id string) (bool, error)

	// Insert stores an event together with its embedding in one atomic
	// write. Inserting an ID that already exists fails with a
	// conflict-coded error.
	Insert(ctx context.Context, event *Event, embedding []float32) error

	// SearchEvents runs the ranked similarity query for the given query
	// vector and optional filters.
	SearchEvents(ctx context.Context, queryVec []float32, filters *SearchFilters, limit, offset int64) ([]*EventMatch, error)

	// CountEvents returns the number of rows matching the filters alone,
	// using the same predicate construction as SearchEvents.
	CountEvents(ctx context.Context, filters *SearchFilters) (int64, error)

	// SimilarEvents ranks all other events by distance to the stored
	// embedding of eventID.
	SimilarEvents(ctx context.Context, eventID string, limit int64) ([]*EventMatch, error)

	// TagValues returns the distinct values recorded for a tag key with
	// occurrence counts, most frequent first.
	TagValues(ctx context.Context, key string, limit int64) ([]*TagValue, error)

	Close() error
}
