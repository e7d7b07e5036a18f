// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package server

import (
	"context"

	"github.com/chakany/noah/internal/store"
	noaherr "github.com/chakany/noah/pkg/errors"
	"github.com/chakany/noah/pkg/health"
)

// SearchService answers similarity search requests.
type SearchService interface {
	Search(ctx context.Context, req *store.SearchRequest) (*store.SearchResult, error)
}

// EventService serves the read-side event endpoints.
type EventService interface {
	SimilarEvents(ctx context.Context, eventID string, limit int64) ([]*store.EventMatch, error)
	TagValues(ctx context.Context, key string, limit int64) ([]*store.TagValue, error)
}

// EmbeddingStatus reports the embedding provider identity and its health.
type EmbeddingStatus interface {
	Name() string
	Metrics() health.Metrics
}

// Services holds dependencies injected into route handlers.
// Each field is an interface so subsystems can be mocked in tests.
// Use NewServices constructor to ensure all required services are provided.
type Services struct {
	search    SearchService
	events    EventService
	embedding EmbeddingStatus // optional; nil = no provider health in status
}

// NewServices creates a Services instance with validation.
// Returns an error if any required service is nil.
func NewServices(search SearchService, events EventService, embedding EmbeddingStatus) (*Services, error) {
	if search == nil {
		return nil, noaherr.New(noaherr.CodeServerRequestInvalid, "search service is required")
	}
	if events == nil {
		return nil, noaherr.New(noaherr.CodeServerRequestInvalid, "event service is required")
	}
	return &Services{
		search:    search,
		events:    events,
		embedding: embedding,
	}, nil
}
