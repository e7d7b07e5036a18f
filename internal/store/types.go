// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package store

import "encoding/json"

// KindTextNote is the only event kind that is embedded and indexed for
// similarity search in the current scope.
const KindTextNote = 1

// Event is the unit of storage and search. Events are created once by the
// ingestion pipeline on first sighting of an ID and never updated in place.
type Event struct {
	ID        string          `json:"id"`
	Pubkey    string          `json:"pubkey"`
	CreatedAt int64           `json:"created_at"`
	Kind      int             `json:"kind"`
	Content   string          `json:"content"`
	Tags      json.RawMessage `json:"tags"`
}

// Embeddable reports whether the event's kind is eligible for embedding.
func (e *Event) Embeddable() bool {
	return e.Kind == KindTextNote
}

// EventMatch is an event projection plus its similarity score, as returned
// by a ranked similarity query. Similarity is 1 - distance; higher is closer.
type EventMatch struct {
	Event
	Similarity float64 `json:"similarity"`
}

// TagFilters narrows events by their tag document. Exact is a JSON document
// the event's tags must structurally contain (superset containment, not
// equality).
type TagFilters struct {
	Exact json.RawMessage `json:"exact,omitempty"`
}

// SearchFilters is the closed set of optional structured predicates a search
// request may carry. Predicates are AND-combined in a fixed order: pubkey,
// kind, tags-exact.
type SearchFilters struct {
	Pubkey *string     `json:"pubkey,omitempty"`
	Kind   *int        `json:"kind,omitempty"`
	Tags   *TagFilters `json:"tags,omitempty"`
}

// HasTagsExact reports whether a tags-exact predicate is present.
func (f *SearchFilters) HasTagsExact() bool {
	return f != nil && f.Tags != nil && len(f.Tags.Exact) > 0
}

// SearchRequest is a similarity search query with optional structured
// filters and pagination.
type SearchRequest struct {
	Query   string         `json:"query"`
	Limit   *int64         `json:"limit,omitempty"`
	Offset  *int64         `json:"offset,omitempty"`
	Filters *SearchFilters `json:"filters,omitempty"`
}

// SearchResult is the ranked answer to a SearchRequest. Total is the number
// of rows matching the filters alone, independent of limit/offset.
type SearchResult struct {
	Results []*EventMatch `json:"results"`
	Total   int64         `json:"total"`
	Limit   int64         `json:"limit"`
	Offset  int64         `json:"offset"`
}

// TagValue is one distinct value for a tag key with its occurrence count.
type TagValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}
