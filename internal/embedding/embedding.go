// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

// Package embedding defines the embedding provider contract and health
// tracking. Concrete providers live in subpackages (cloudflare, openai);
// each adapts its own wire format behind the one Embedder interface.
package embedding

import "context"

// Embedder turns a text into a fixed-dimension vector via an external
// provider. One outbound call per invocation; no caching, no batching, no
// built-in retries — callers decide whether to retry or skip.
type Embedder interface {
	// Embed returns the provider's vector for text. Empty text is passed
	// through; rejecting it is the provider's call.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the provider-fixed vector length.
	Dimensions() int

	// Name identifies the provider for logs and status reporting.
	Name() string
}
