// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

// Package cloudflare implements the embedding provider contract against the
// Cloudflare Workers AI REST API. There is no official Go SDK for Workers
// AI, so the wire format is adapted here directly.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chakany/noah/internal/embedding"
	noaherr "github.com/chakany/noah/pkg/errors"
)

const (
	defaultBaseURL = "https://api.cloudflare.com"
	defaultModel   = "@cf/baai/bge-m3"
)

// Config holds Workers AI credentials and model selection.
type Config struct {
	AccountID  string
	APIKey     string
	Model      string        // defaults to @cf/baai/bge-m3
	BaseURL    string        // override for testing against a mock server
	Dimensions int           // provider-fixed vector length
	Timeout    time.Duration // per-request timeout, default 30s
}

// Compile-time interface check.
var _ embedding.Embedder = (*Client)(nil)

// Client calls the Workers AI run endpoint for a text-embedding model.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiKey     string
	model      string
	dimensions int
}

// New creates a Workers AI embedding client. Account ID and API key are
// required.
func New(cfg Config) (*Client, error) {
	if cfg.AccountID == "" {
		return nil, noaherr.New(noaherr.CodeConfigValidateInvalidValue, "cloudflare: missing account_id in config")
	}
	if cfg.APIKey == "" {
		return nil, noaherr.New(noaherr.CodeConfigValidateInvalidValue, "cloudflare: missing api_key in config")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountID:  cfg.AccountID,
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: cfg.Dimensions,
	}, nil
}

func (c *Client) Name() string { return "cloudflare" }

func (c *Client) Dimensions() int { return c.dimensions }

type embedContext struct {
	Text string `json:"text"`
}

type embedRequest struct {
	Contexts []embedContext `json:"contexts"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type embedResponse struct {
	Result struct {
		Response [][]float32 `json:"response"`
	} `json:"result"`
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors"`
}

// Embed requests one embedding for text. All failure modes — transport,
// non-success status, malformed body, empty result — surface as
// embedding-coded errors so callers can tell them apart from store failures.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Contexts: []embedContext{{Text: text}}})
	if err != nil {
		return nil, noaherr.Errorf(noaherr.CodeEmbeddingUpstreamFailure, "cloudflare: encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/client/v4/accounts/%s/ai/run/%s", c.baseURL, c.accountID, c.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, noaherr.Errorf(noaherr.CodeEmbeddingUpstreamFailure, "cloudflare: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, noaherr.Wrap(err, noaherr.CodeEmbeddingUpstreamFailure, "cloudflare: embedding request failed",
			noaherr.FieldProvider(c.Name()))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, noaherr.Errorf(noaherr.CodeEmbeddingUpstreamFailure,
			"cloudflare: embedding API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, noaherr.Errorf(noaherr.CodeEmbeddingResponseInvalid, "cloudflare: decoding response: %w", err)
	}

	if !parsed.Success {
		return nil, noaherr.Errorf(noaherr.CodeEmbeddingUpstreamFailure,
			"cloudflare: embedding API reported failure: %s", joinErrors(parsed.Errors))
	}

	if len(parsed.Result.Response) == 0 || len(parsed.Result.Response[0]) == 0 {
		return nil, noaherr.New(noaherr.CodeEmbeddingResponseInvalid, "cloudflare: empty embedding in response",
			noaherr.FieldProvider(c.Name()))
	}

	return parsed.Result.Response[0], nil
}

func joinErrors(errs []apiError) string {
	if len(errs) == 0 {
		return "no error detail"
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = fmt.Sprintf("%d: %s", e.Code, e.Message)
	}
	return strings.Join(parts, "; ")
}
