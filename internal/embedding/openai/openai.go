// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

// Package openai implements the embedding provider contract using the
// OpenAI embeddings API. BaseURL is overridable, so any OpenAI-compatible
// endpoint works.
package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/chakany/noah/internal/embedding"
	noaherr "github.com/chakany/noah/pkg/errors"
)

const defaultModel = string(openaisdk.EmbeddingModelTextEmbedding3Small)

// Config holds OpenAI embedding provider configuration.
type Config struct {
	APIKey     string
	BaseURL    string // optional, useful for testing or compatible providers
	Model      string // defaults to text-embedding-3-small
	Dimensions int    // requested output dimensionality; 0 = model default
}

// Compile-time interface check.
var _ embedding.Embedder = (*Client)(nil)

// Client calls the OpenAI embeddings endpoint.
type Client struct {
	client     openaisdk.Client
	model      string
	dimensions int
}

// New creates an OpenAI embedding client. Returns an error if the API key is
// missing.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, noaherr.New(noaherr.CodeConfigValidateInvalidValue, "openai: missing api_key in config")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		client:     openaisdk.NewClient(opts...),
		model:      model,
		dimensions: cfg.Dimensions,
	}, nil
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Dimensions() int { return c.dimensions }

// Embed requests one embedding for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model:          openaisdk.EmbeddingModel(c.model),
		EncodingFormat: openaisdk.EmbeddingNewParamsEncodingFormatFloat,
	}
	if c.dimensions > 0 {
		params.Dimensions = param.NewOpt(int64(c.dimensions))
	}

	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, noaherr.Wrap(err, noaherr.CodeEmbeddingUpstreamFailure, "openai: embedding request failed",
			noaherr.FieldProvider(c.Name()))
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, noaherr.New(noaherr.CodeEmbeddingResponseInvalid, "openai: empty embedding in response",
			noaherr.FieldProvider(c.Name()))
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}
