// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package sqlite

import (
	"encoding/json"
	"testing"

	"github.com/chakany/noah/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func tagsExact(doc string) *store.TagFilters {
	return &store.TagFilters{Exact: json.RawMessage(doc)}
}

// Every subset of the three predicates must yield the fixed order
// pubkey → kind → tags-exact, with absent filters contributing nothing.
func TestWhereClause_AllFilterSubsets(t *testing.T) {
	tests := []struct {
		name     string
		filters  *store.SearchFilters
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "nil filters",
			filters: nil,
			wantSQL: "",
		},
		{
			name:    "empty filters",
			filters: &store.SearchFilters{},
			wantSQL: "",
		},
		{
			name:     "pubkey only",
			filters:  &store.SearchFilters{Pubkey: strPtr("p1")},
			wantSQL:  " WHERE pubkey = ?",
			wantArgs: []any{"p1"},
		},
		{
			name:     "kind only",
			filters:  &store.SearchFilters{Kind: intPtr(1)},
			wantSQL:  " WHERE kind = ?",
			wantArgs: []any{1},
		},
		{
			name:     "tags only",
			filters:  &store.SearchFilters{Tags: tagsExact(`{"t":"v"}`)},
			wantSQL:  " WHERE json_contains(tags, ?)",
			wantArgs: []any{`{"t":"v"}`},
		},
		{
			name:     "pubkey and kind",
			filters:  &store.SearchFilters{Pubkey: strPtr("p1"), Kind: intPtr(1)},
			wantSQL:  " WHERE pubkey = ? AND kind = ?",
			wantArgs: []any{"p1", 1},
		},
		{
			name:     "pubkey and tags",
			filters:  &store.SearchFilters{Pubkey: strPtr("p1"), Tags: tagsExact(`{"t":"v"}`)},
			wantSQL:  " WHERE pubkey = ? AND json_contains(tags, ?)",
			wantArgs: []any{"p1", `{"t":"v"}`},
		},
		{
			name:     "kind and tags",
			filters:  &store.SearchFilters{Kind: intPtr(7), Tags: tagsExact(`{"t":"v"}`)},
			wantSQL:  " WHERE kind = ? AND json_contains(tags, ?)",
			wantArgs: []any{7, `{"t":"v"}`},
		},
		{
			name:     "all three",
			filters:  &store.SearchFilters{Pubkey: strPtr("p1"), Kind: intPtr(1), Tags: tagsExact(`{"t":"v"}`)},
			wantSQL:  " WHERE pubkey = ? AND kind = ? AND json_contains(tags, ?)",
			wantArgs: []any{"p1", 1, `{"t":"v"}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotArgs := whereClause(tt.filters)
			assert.Equal(t, tt.wantSQL, gotSQL)
			assert.Equal(t, tt.wantArgs, gotArgs)
		})
	}
}

// Empty tags-exact documents must not emit a predicate.
func TestWhereClause_EmptyTagsExactSkipped(t *testing.T) {
	gotSQL, gotArgs := whereClause(&store.SearchFilters{Tags: &store.TagFilters{}})
	assert.Empty(t, gotSQL)
	assert.Nil(t, gotArgs)
}

func TestSearchQuery_BindsVectorTwiceWithSameValue(t *testing.T) {
	vec := []byte{1, 2, 3, 4}
	filters := &store.SearchFilters{Pubkey: strPtr("p1")}

	q, args := searchQuery(filters, vec, 10, 0)

	assert.Equal(t,
		`SELECT id, pubkey, created_at, kind, content, tags, 1.0 - vec_distance_cosine(embedding, ?) AS similarity FROM events`+
			` WHERE pubkey = ?`+
			` ORDER BY vec_distance_cosine(embedding, ?) ASC LIMIT ? OFFSET ?`,
		q)

	require.Len(t, args, 5)
	assert.Equal(t, vec, args[0])
	assert.Equal(t, "p1", args[1])
	assert.Equal(t, vec, args[2], "ORDER BY must bind the identical vector value")
	assert.Equal(t, int64(10), args[3])
	assert.Equal(t, int64(0), args[4])
}

func TestSearchQuery_NoFiltersHasNoWhere(t *testing.T) {
	q, args := searchQuery(nil, []byte{0}, 5, 20)
	assert.NotContains(t, q, "WHERE")
	assert.Len(t, args, 4)
}

// limit <= 0 and offset < 0 pass through unvalidated; the store decides.
func TestSearchQuery_PassesThroughPagination(t *testing.T) {
	_, args := searchQuery(nil, []byte{0}, -1, -5)
	assert.Equal(t, int64(-1), args[2])
	assert.Equal(t, int64(-5), args[3])
}

func TestCountQuery_SharesWhereWithSearch(t *testing.T) {
	filters := &store.SearchFilters{
		Pubkey: strPtr("p1"),
		Kind:   intPtr(1),
		Tags:   tagsExact(`[["t","v"]]`),
	}

	q, args := countQuery(filters)

	assert.Equal(t, `SELECT COUNT(*) FROM events WHERE pubkey = ? AND kind = ? AND json_contains(tags, ?)`, q)
	assert.Equal(t, []any{"p1", 1, `[["t","v"]]`}, args)
	assert.NotContains(t, q, "LIMIT")
	assert.NotContains(t, q, "OFFSET")
	assert.NotContains(t, q, "vec_distance_cosine")
}

func TestCountQuery_NoFilters(t *testing.T) {
	q, args := countQuery(nil)
	assert.Equal(t, `SELECT COUNT(*) FROM events`, q)
	assert.Nil(t, args)
}

// Identical filter sets produce byte-identical SQL regardless of value.
func TestSearchQuery_DeterministicText(t *testing.T) {
	a, _ := searchQuery(&store.SearchFilters{Pubkey: strPtr("alice"), Kind: intPtr(1)}, []byte{1}, 10, 0)
	b, _ := searchQuery(&store.SearchFilters{Pubkey: strPtr("bob"), Kind: intPtr(30023)}, []byte{2}, 50, 100)
	assert.Equal(t, a, b)
}
