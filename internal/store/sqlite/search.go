// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/chakany/noah/internal/store"
	noaherr "github.com/chakany/noah/pkg/errors"
)

// SearchEvents runs the ranked similarity query. Distance is
// vec_distance_cosine; results come back most similar first.
func (s *EventStore) SearchEvents(ctx context.Context, queryVec []float32, filters *store.SearchFilters, limit, offset int64) ([]*store.EventMatch, error) {
	blob, err := sqlite_vec.SerializeFloat32(queryVec)
	if err != nil {
		return nil, noaherr.Errorf(noaherr.CodeStoreInvalidInput, "serializing query vector: %w", err)
	}

	q, args := searchQuery(filters, blob, limit, offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "searching events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMatches(rows)
}

// CountEvents returns the number of rows matching the filters alone. It uses
// the same predicate construction as SearchEvents so the two queries always
// agree on the matched set.
func (s *EventStore) CountEvents(ctx context.Context, filters *store.SearchFilters) (int64, error) {
	q, args := countQuery(filters)

	var total int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "counting events: %w", err)
	}
	return total, nil
}

// SimilarEvents ranks all other events by distance to the stored embedding
// of eventID.
func (s *EventStore) SimilarEvents(ctx context.Context, eventID string, limit int64) ([]*store.EventMatch, error) {
	exists, err := s.Exists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, noaherr.New(noaherr.CodeStoreEventNotFound, "event "+eventID+" not found")
	}

	const q = `WITH anchor AS (
	SELECT embedding FROM events WHERE id = ?
)
SELECT e.id, e.pubkey, e.created_at, e.kind, e.content, e.tags,
	1.0 - vec_distance_cosine(e.embedding, anchor.embedding) AS similarity
FROM events e, anchor
WHERE e.id != ?
ORDER BY vec_distance_cosine(e.embedding, anchor.embedding) ASC
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, eventID, eventID, limit)
	if err != nil {
		return nil, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "finding events similar to %s: %w", eventID, err)
	}
	defer func() { _ = rows.Close() }()

	return scanMatches(rows)
}

// TagValues aggregates distinct values for a tag key across all stored tag
// documents. Tags in the [key, value, ...] array shape contribute; records
// of any other shape are skipped by the json_type guard.
func (s *EventStore) TagValues(ctx context.Context, key string, limit int64) ([]*store.TagValue, error) {
	const q = `SELECT CAST(json_extract(tag.value, '$[1]') AS TEXT) AS value, COUNT(*) AS count
FROM events, json_each(events.tags) AS tag
WHERE json_type(tag.value) = 'array'
	AND json_extract(tag.value, '$[0]') = ?
	AND json_extract(tag.value, '$[1]') IS NOT NULL
GROUP BY value
ORDER BY count DESC
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, key, limit)
	if err != nil {
		return nil, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "aggregating values for tag %q: %w", key, err)
	}
	defer func() { _ = rows.Close() }()

	var values []*store.TagValue
	for rows.Next() {
		var tv store.TagValue
		if err := rows.Scan(&tv.Value, &tv.Count); err != nil {
			return nil, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "scanning tag value: %w", err)
		}
		values = append(values, &tv)
	}
	if err := rows.Err(); err != nil {
		return nil, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "iterating tag values: %w", err)
	}

	return values, nil
}

func scanMatches(rows *sql.Rows) ([]*store.EventMatch, error) {
	var matches []*store.EventMatch
	for rows.Next() {
		var (
			m    store.EventMatch
			tags string
		)
		if err := rows.Scan(&m.ID, &m.Pubkey, &m.CreatedAt, &m.Kind, &m.Content, &tags, &m.Similarity); err != nil {
			return nil, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "scanning event match: %w", err)
		}
		m.Tags = json.RawMessage(tags)
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "iterating event matches: %w", err)
	}
	return matches, nil
}
