// Package embedding provides query embedding via a local ONNX model.
package embedding

import (
	"context"
	"errors"
)

// Sentinel errors for embedding operations.
var (
	// ErrInvalidConfig indicates an unsupported model or bad settings.
	ErrInvalidConfig = errors.New("invalid embedding configuration")

	// ErrEmptyInput indicates empty input text.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmbeddingFailed indicates the model failed to produce a vector.
	ErrEmbeddingFailed = errors.New("failed to generate embedding")
)

// Provider converts text to a fixed-length vector.
//
// EmbedQuery is CPU-bound; callers are expected to run it off the
// request-accepting goroutines (the engine uses a bounded worker pool).
type Provider interface {
	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension for the current model.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}
