// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

// Package gemini implements the embedding provider contract using the
// Google Gemini embedContent API.
package gemini

import (
	"context"

	"google.golang.org/genai"

	"github.com/chakany/noah/internal/embedding"
	noaherr "github.com/chakany/noah/pkg/errors"
)

const defaultModel = "text-embedding-004"

// Config holds Gemini embedding provider configuration.
type Config struct {
	APIKey     string
	Model      string // defaults to text-embedding-004
	Dimensions int    // requested output dimensionality; 0 = model default
}

// Compile-time interface check.
var _ embedding.Embedder = (*Client)(nil)

// Client calls the Gemini embedContent endpoint.
type Client struct {
	client     *genai.Client
	model      string
	dimensions int
}

// New creates a Gemini embedding client. Returns an error if the API key is
// missing.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, noaherr.New(noaherr.CodeConfigValidateInvalidValue, "gemini: missing api_key in config")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, noaherr.Wrap(err, noaherr.CodeEmbeddingUpstreamFailure, "gemini: creating client",
			noaherr.FieldProvider("gemini"))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		client:     client,
		model:      model,
		dimensions: cfg.Dimensions,
	}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Dimensions() int { return c.dimensions }

// Embed requests one embedding for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var config *genai.EmbedContentConfig
	if c.dimensions > 0 {
		config = &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(c.dimensions)),
		}
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.model, genai.Text(text), config)
	if err != nil {
		return nil, noaherr.Wrap(err, noaherr.CodeEmbeddingUpstreamFailure, "gemini: embedding request failed",
			noaherr.FieldProvider(c.Name()))
	}

	return vectorFrom(resp)
}

// vectorFrom extracts the single requested vector from an embedContent
// response.
func vectorFrom(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, noaherr.New(noaherr.CodeEmbeddingResponseInvalid, "gemini: empty embedding in response",
			noaherr.FieldProvider("gemini"))
	}
	return resp.Embeddings[0].Values, nil
}
