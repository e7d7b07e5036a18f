// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

// Package search orchestrates similarity search over stored events. It
// turns a free-text query into a vector through the configured embedding
// provider and delegates ranking and counting to the event store.
package search

import (
	"context"
	"log/slog"

	"github.com/chakany/noah/internal/store"
)

// DefaultLimit is the page size applied when a request carries none.
const DefaultLimit = 10

// Embedder produces the query vector for a search request.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EventSearcher is the slice of the event store a search needs.
type EventSearcher interface {
	SearchEvents(ctx context.Context, queryVec []float32, filters *store.SearchFilters, limit, offset int64) ([]*store.EventMatch, error)
	CountEvents(ctx context.Context, filters *store.SearchFilters) (int64, error)
}

// Service answers search requests.
type Service struct {
	embedder     Embedder
	searcher     EventSearcher
	defaultLimit int64
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultLimit overrides the page size used when a request has no limit.
func WithDefaultLimit(limit int64) Option {
	return func(s *Service) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService builds a search service over the given embedder and store.
func NewService(embedder Embedder, searcher EventSearcher, opts ...Option) *Service {
	s := &Service{
		embedder:     embedder,
		searcher:     searcher,
		defaultLimit: DefaultLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search embeds the request's query text and returns the ranked page of
// matches together with the total number of rows the filters select. The
// embedding call happens first; if it fails the store is never contacted
// and the provider's error is returned as-is.
func (s *Service) Search(ctx context.Context, req *store.SearchRequest) (*store.SearchResult, error) {
	// Absent fields fall back to defaults; explicit values pass through
	// untouched, so limit: 0 really does ask for an empty page.
	limit := s.defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	var offset int64
	if req.Offset != nil {
		offset = *req.Offset
	}

	queryVec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	matches, err := s.searcher.SearchEvents(ctx, queryVec, req.Filters, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := s.searcher.CountEvents(ctx, req.Filters)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search completed",
		"results", len(matches),
		"total", total,
		"limit", limit,
		"offset", offset,
	)

	return &store.SearchResult{
		Results: matches,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}
