// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package main

import (
	"os"
	"time"

	"github.com/chakany/noah/internal/config"
	"github.com/chakany/noah/internal/embedding"
	"github.com/chakany/noah/internal/embedding/cloudflare"
	"github.com/chakany/noah/internal/embedding/gemini"
	"github.com/chakany/noah/internal/embedding/openai"
	"github.com/chakany/noah/internal/search"
	"github.com/chakany/noah/internal/server"
	"github.com/chakany/noah/internal/store"
	"github.com/chakany/noah/internal/store/sqlite"
	noaherr "github.com/chakany/noah/pkg/errors"
	"github.com/chakany/noah/pkg/health"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Store    store.EventStore
	Embedder embedding.Embedder
	Health   *embedding.HealthTracker
	Search   *search.Service
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.Store.Close()
}

// WireApp creates the store, embedding client, and search service from
// config. The HTTP server is wired separately because ingest runs without
// one.
func WireApp(cfg *config.Config) (*App, error) {
	// Ensure the data directory exists.
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, noaherr.Errorf(noaherr.CodeCLISetupFailure, "creating data directory: %w", err)
	}

	st, err := sqlite.NewEventStore(cfg.DatabasePath())
	if err != nil {
		return nil, noaherr.Errorf(noaherr.CodeCLISetupFailure, "opening event store: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	tracker, err := embedding.NewHealthTracker(embedding.DefaultHealthCooldown)
	if err != nil {
		_ = st.Close()
		return nil, noaherr.Errorf(noaherr.CodeCLISetupFailure, "creating health tracker: %w", err)
	}
	tracked := embedding.WithHealth(embedder, tracker)

	svc := search.NewService(tracked, st,
		search.WithDefaultLimit(cfg.Search.DefaultLimit),
	)

	return &App{
		Store:    st,
		Embedder: tracked,
		Health:   tracker,
		Search:   svc,
	}, nil
}

func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderCloudflare:
		return cloudflare.New(cloudflare.Config{
			AccountID:  cfg.Embedding.Cloudflare.AccountID,
			APIKey:     cfg.Embedding.Cloudflare.APIKey,
			Model:      cfg.Embedding.Cloudflare.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case config.ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:     cfg.Embedding.OpenAI.APIKey,
			BaseURL:    cfg.Embedding.OpenAI.BaseURL,
			Model:      cfg.Embedding.OpenAI.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case config.ProviderGemini:
		return gemini.New(gemini.Config{
			APIKey:     cfg.Embedding.Gemini.APIKey,
			Model:      cfg.Embedding.Gemini.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, noaherr.Errorf(noaherr.CodeEmbeddingProviderUnknown, "unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// WireServer builds the HTTP server over an already wired App.
func WireServer(cfg *config.Config, app *App) (*server.Server, error) {
	srv, err := server.New(server.Config{
		ListenAddr:   cfg.Listen,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})
	if err != nil {
		return nil, noaherr.Errorf(noaherr.CodeServerStartFailure, "creating server: %w", err)
	}

	status := &embeddingStatus{embedder: app.Embedder, tracker: app.Health}
	svc, err := server.NewServices(app.Search, app.Store, status)
	if err != nil {
		return nil, noaherr.Errorf(noaherr.CodeServerStartFailure, "wiring services: %w", err)
	}
	srv.RegisterServices(svc)

	return srv, nil
}

// embeddingStatus adapts the embedder and its tracker to the status
// endpoint.
type embeddingStatus struct {
	embedder embedding.Embedder
	tracker  *embedding.HealthTracker
}

func (s *embeddingStatus) Name() string { return s.embedder.Name() }

func (s *embeddingStatus) Metrics() health.Metrics { return s.tracker.Metrics() }
