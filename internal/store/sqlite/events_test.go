// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package sqlite_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/chakany/noah/internal/store"
	noaherr "github.com/chakany/noah/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStore_ExistsAndInsert(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "events")

	exists, err := s.Exists(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, exists)

	insertEvent(t, s, "e1", "p1", store.KindTextNote, "hello world", `[]`, []float32{0.1, 0.2, 0.3})

	exists, err = s.Exists(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEventStore_DuplicateInsertIsConflict(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "events-dup")

	insertEvent(t, s, "e1", "p1", store.KindTextNote, "hello", `[]`, []float32{0.1, 0.2, 0.3})

	err := s.Insert(ctx, &store.Event{
		ID: "e1", Pubkey: "p1", CreatedAt: 1, Kind: store.KindTextNote, Content: "hello",
	}, []float32{0.1, 0.2, 0.3})
	require.Error(t, err)
	assert.True(t, noaherr.IsConflict(err), "expected conflict, got %s", noaherr.CodeOf(err))

	total, err := s.CountEvents(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestEventStore_InsertRejectsEmptyEmbedding(t *testing.T) {
	s := testStore(t, "events-noembed")

	err := s.Insert(context.Background(), &store.Event{ID: "e1"}, nil)
	require.Error(t, err)
	assert.True(t, noaherr.IsInvalidInput(err))
}

func TestEventStore_SearchRanksByDistance(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "events-search")

	insertEvent(t, s, "e1", "p1", store.KindTextNote, "exact", `[]`, []float32{1, 0, 0})
	insertEvent(t, s, "e2", "p1", store.KindTextNote, "close", `[]`, []float32{0.9, 0.1, 0})
	insertEvent(t, s, "e3", "p2", store.KindTextNote, "far", `[]`, []float32{0, 1, 0})

	matches, err := s.SearchEvents(ctx, []float32{1, 0, 0}, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "e1", matches[0].ID)
	assert.Equal(t, "e2", matches[1].ID)
	assert.Equal(t, "e3", matches[2].ID)

	// Similarity is non-increasing across the returned sequence.
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Similarity, matches[i].Similarity)
	}
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestEventStore_SearchFiltersByPubkey(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "events-pubkey")

	insertEvent(t, s, "e1", "p1", store.KindTextNote, "a", `[]`, []float32{1, 0, 0})
	insertEvent(t, s, "e2", "p2", store.KindTextNote, "b", `[]`, []float32{1, 0, 0})
	insertEvent(t, s, "e3", "p1", store.KindTextNote, "c", `[]`, []float32{0, 1, 0})

	pubkey := "p1"
	filters := &store.SearchFilters{Pubkey: &pubkey}

	matches, err := s.SearchEvents(ctx, []float32{1, 0, 0}, filters, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, "p1", m.Pubkey)
	}

	total, err := s.CountEvents(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// Total is invariant under pagination.
	matches, err = s.SearchEvents(ctx, []float32{1, 0, 0}, filters, 1, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	total, err = s.CountEvents(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestEventStore_SearchFiltersByTags(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "events-tags")

	insertEvent(t, s, "e1", "p1", store.KindTextNote, "tagged", `[["t","v"]]`, []float32{1, 0, 0})
	insertEvent(t, s, "e2", "p1", store.KindTextNote, "other", `[["t","w"]]`, []float32{1, 0, 0})

	filters := &store.SearchFilters{Tags: &store.TagFilters{Exact: json.RawMessage(`[["t","v"]]`)}}

	matches, err := s.SearchEvents(ctx, []float32{1, 0, 0}, filters, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "e1", matches[0].ID)
	assert.JSONEq(t, `[["t","v"]]`, string(matches[0].Tags))

	total, err := s.CountEvents(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestEventStore_SearchOffsetPaginates(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "events-offset")

	insertEvent(t, s, "e1", "p1", store.KindTextNote, "a", `[]`, []float32{1, 0, 0})
	insertEvent(t, s, "e2", "p1", store.KindTextNote, "b", `[]`, []float32{0.9, 0.1, 0})

	matches, err := s.SearchEvents(ctx, []float32{1, 0, 0}, nil, 1, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "e2", matches[0].ID)
}

func TestEventStore_SimilarEvents(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "events-similar")

	insertEvent(t, s, "e1", "p1", store.KindTextNote, "anchor", `[]`, []float32{1, 0, 0})
	insertEvent(t, s, "e2", "p1", store.KindTextNote, "near", `[]`, []float32{0.9, 0.1, 0})
	insertEvent(t, s, "e3", "p2", store.KindTextNote, "far", `[]`, []float32{0, 1, 0})

	matches, err := s.SimilarEvents(ctx, "e1", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "e2", matches[0].ID)
	assert.Equal(t, "e3", matches[1].ID)
	for _, m := range matches {
		assert.NotEqual(t, "e1", m.ID, "anchor must be excluded")
	}
}

func TestEventStore_SimilarEventsUnknownID(t *testing.T) {
	s := testStore(t, "events-similar-missing")

	_, err := s.SimilarEvents(context.Background(), "nope", 5)
	require.Error(t, err)
	assert.True(t, noaherr.IsNotFound(err))
}

func TestEventStore_TagValues(t *testing.T) {
	ctx := context.Background()
	s := testStore(t, "events-tagvalues")

	insertEvent(t, s, "e1", "p1", store.KindTextNote, "a", `[["t","go"],["t","db"]]`, []float32{1, 0, 0})
	insertEvent(t, s, "e2", "p2", store.KindTextNote, "b", `[["t","go"],["e","ref"]]`, []float32{0, 1, 0})

	values, err := s.TagValues(ctx, "t", 10)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "go", values[0].Value)
	assert.Equal(t, int64(2), values[0].Count)
	assert.Equal(t, "db", values[1].Value)
	assert.Equal(t, int64(1), values[1].Count)

	values, err = s.TagValues(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, values)
}
