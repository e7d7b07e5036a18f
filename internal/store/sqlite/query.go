// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package sqlite

import (
	"strings"

	"github.com/chakany/noah/internal/store"
)

const eventColumns = "id, pubkey, created_at, kind, content, tags"

// predicate is one optional filter condition: a SQL fragment with a single
// placeholder and the value bound to it.
type predicate struct {
	frag string
	arg  any
}

// foldPredicates converts a filter set into the ordered predicate list.
// The order is fixed — pubkey, kind, tags-exact — so two requests with the
// same filter subset always produce identical SQL text; only bound values
// differ. Absent filters contribute nothing.
func foldPredicates(f *store.SearchFilters) []predicate {
	if f == nil {
		return nil
	}

	var preds []predicate
	if f.Pubkey != nil {
		preds = append(preds, predicate{"pubkey = ?", *f.Pubkey})
	}
	if f.Kind != nil {
		preds = append(preds, predicate{"kind = ?", *f.Kind})
	}
	if f.HasTagsExact() {
		preds = append(preds, predicate{"json_contains(tags, ?)", string(f.Tags.Exact)})
	}
	return preds
}

// whereClause joins the present predicates into a single clause. The first
// predicate is preceded by WHERE, every subsequent one by AND. With no
// predicates it returns the empty string.
func whereClause(f *store.SearchFilters) (string, []any) {
	preds := foldPredicates(f)
	if len(preds) == 0 {
		return "", nil
	}

	frags := make([]string, len(preds))
	args := make([]any, len(preds))
	for i, p := range preds {
		frags[i] = p.frag
		args[i] = p.arg
	}
	return " WHERE " + strings.Join(frags, " AND "), args
}

// searchQuery builds the ranked-results query. The serialized query vector
// is bound twice — once in the similarity projection, once in ORDER BY —
// with the identical value, so the ordering key and the reported similarity
// cannot diverge. limit and offset pass through as-is.
func searchQuery(f *store.SearchFilters, queryVec []byte, limit, offset int64) (string, []any) {
	where, whereArgs := whereClause(f)

	q := `SELECT ` + eventColumns + `, 1.0 - vec_distance_cosine(embedding, ?) AS similarity FROM events` +
		where +
		` ORDER BY vec_distance_cosine(embedding, ?) ASC LIMIT ? OFFSET ?`

	args := make([]any, 0, len(whereArgs)+4)
	args = append(args, queryVec)
	args = append(args, whereArgs...)
	args = append(args, queryVec, limit, offset)
	return q, args
}

// countQuery builds the matching count query: the same WHERE construction
// with no vector term, limit, or offset.
func countQuery(f *store.SearchFilters) (string, []any) {
	where, args := whereClause(f)
	return `SELECT COUNT(*) FROM events` + where, args
}
