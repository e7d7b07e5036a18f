// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chakany/noah/internal/store"
	noaherr "github.com/chakany/noah/pkg/errors"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search-events",
		Method:      http.MethodPost,
		Path:        "/api/search",
		Summary:     "Search events by semantic similarity",
		Tags:        []string{"search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "similar-events",
		Method:      http.MethodGet,
		Path:        "/api/events/{id}/similar",
		Summary:     "Find events similar to a stored event",
		Tags:        []string{"events"},
	}, s.handleSimilarEvents)

	huma.Register(s.api, huma.Operation{
		OperationID: "tag-values",
		Method:      http.MethodGet,
		Path:        "/api/tags/{key}/values",
		Summary:     "List distinct values for a tag key",
		Tags:        []string{"tags"},
	}, s.handleTagValues)

	huma.Register(s.api, huma.Operation{
		OperationID: "daemon-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Daemon status",
		Tags:        []string{"system"},
	}, s.handleStatus)
}

// --- Request/Response types for huma ---

type searchInput struct {
	Body store.SearchRequest
}
type searchOutput struct {
	Body store.SearchResult
}

type similarEventsInput struct {
	ID    string `path:"id" doc:"Event ID"`
	Limit int64  `query:"limit" minimum:"1" default:"10" doc:"Maximum number of results"`
}
type similarEventsOutput struct {
	Body struct {
		Results []*store.EventMatch `json:"results"`
	}
}

type tagValuesInput struct {
	Key   string `path:"key" doc:"Tag key"`
	Limit int64  `query:"limit" minimum:"1" default:"25" doc:"Maximum number of values"`
}
type tagValuesOutput struct {
	Body struct {
		Values []*store.TagValue `json:"values"`
	}
}

type embeddingStatusBody struct {
	Provider      string     `json:"provider"`
	Available     bool       `json:"available"`
	FailureCount  int64      `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
}

type statusOutput struct {
	Body struct {
		Status    string               `json:"status" example:"running" doc:"Daemon status"`
		Embedding *embeddingStatusBody `json:"embedding,omitempty"`
	}
}

// --- Handlers ---

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	if input.Body.Query == "" {
		return nil, huma.Error422UnprocessableEntity("query must not be empty")
	}

	result, err := s.services.search.Search(ctx, &input.Body)
	if err != nil {
		return nil, humaError(err, "searching events")
	}
	return &searchOutput{Body: *result}, nil
}

func (s *Server) handleSimilarEvents(ctx context.Context, input *similarEventsInput) (*similarEventsOutput, error) {
	matches, err := s.services.events.SimilarEvents(ctx, input.ID, input.Limit)
	if err != nil {
		if noaherr.IsNotFound(err) {
			return nil, huma.Error404NotFound(fmt.Sprintf("event %q not found", input.ID))
		}
		return nil, humaError(err, "finding similar events")
	}
	out := &similarEventsOutput{}
	out.Body.Results = matches
	return out, nil
}

func (s *Server) handleTagValues(ctx context.Context, input *tagValuesInput) (*tagValuesOutput, error) {
	values, err := s.services.events.TagValues(ctx, input.Key, input.Limit)
	if err != nil {
		return nil, humaError(err, "listing tag values")
	}
	out := &tagValuesOutput{}
	out.Body.Values = values
	return out, nil
}

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	out := &statusOutput{}
	out.Body.Status = "running"
	if s.services.embedding != nil {
		m := s.services.embedding.Metrics()
		if m.Degraded() {
			out.Body.Status = "degraded"
		}
		out.Body.Embedding = &embeddingStatusBody{
			Provider:      s.services.embedding.Name(),
			Available:     m.Available,
			FailureCount:  m.FailureCount,
			LastFailureAt: m.LastFailureAt,
			CooldownUntil: m.CooldownUntil,
		}
	}
	return out, nil
}

// humaError maps a service error to an HTTP error without leaking request
// internals. Embedding upstream failures surface as 502 so callers can tell
// a broken dependency from a broken daemon.
func humaError(err error, msg string) error {
	switch noaherr.HTTPStatus(err) {
	case http.StatusBadGateway:
		return huma.Error502BadGateway(msg + ": embedding provider unavailable")
	case http.StatusBadRequest:
		return huma.Error400BadRequest(msg + ": invalid request")
	case http.StatusNotFound:
		return huma.Error404NotFound(msg + ": not found")
	case http.StatusConflict:
		return huma.Error409Conflict(msg + ": conflict")
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
