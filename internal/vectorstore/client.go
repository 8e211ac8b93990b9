package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("knowledge-query-service.vectorstore")

// Config holds configuration for the Qdrant gRPC client.
type Config struct {
	// Host is the Qdrant server hostname or IP address.
	Host string

	// Port is the Qdrant gRPC port (6334), NOT the HTTP REST port (6333).
	Port int

	// APIKey authenticates against a secured Qdrant deployment. Optional.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// ScoreThreshold drops hits below this similarity score. Zero disables
	// the filter.
	ScoreThreshold float32

	// MaxRetries is the maximum number of retry attempts for transient
	// failures. Default: 3.
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries; it doubles
	// on each attempt. Default: 1 second.
	RetryBackoff time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	return nil
}

// Hit is one nearest-neighbor match.
type Hit struct {
	// Score is the similarity score as reported by the index.
	Score float32

	// Payload is the stored document payload.
	Payload map[string]any
}

// Client is a read-only Qdrant client for nearest-neighbor search.
type Client struct {
	client *qdrant.Client
	config Config
}

// NewClient connects to Qdrant and verifies the connection with a health
// check. It returns an error if the configuration is invalid or the server
// is unreachable.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	qc, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		APIKey: config.APIKey,
		UseTLS: config.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	c := &Client{client: qc, config: config}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := c.ListCollections(probeCtx); err != nil {
		_ = qc.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return c, nil
}

// Close closes the Qdrant gRPC connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Query performs nearest-neighbor search in the given collection, with
// payloads attached and the configured score threshold applied.
//
// Returns ErrCollectionNotFound when the collection does not exist; the
// caller decides whether that is an error.
func (c *Client) Query(ctx context.Context, collection string, vector []float32, limit uint64) ([]Hit, error) {
	ctx, span := tracer.Start(ctx, "vectorstore.Query")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("limit", int(limit)),
	)

	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if c.config.ScoreThreshold > 0 {
		req.ScoreThreshold = qdrant.PtrOf(c.config.ScoreThreshold)
	}

	var points []*qdrant.ScoredPoint
	err := c.retryOperation(ctx, "query", func() error {
		res, err := c.client.Query(ctx, req)
		if err != nil {
			return err
		}
		points = res
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			span.SetStatus(codes.Ok, "collection absent")
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", collection, err)
	}

	hits := make([]Hit, len(points))
	for i, point := range points {
		hits[i] = Hit{
			Score:   point.Score,
			Payload: decodePayload(point.Payload),
		}
	}

	span.SetAttributes(attribute.Int("hits", len(hits)))
	span.SetStatus(codes.Ok, "success")
	return hits, nil
}

// ListCollections returns all collection names. It doubles as the live
// health probe.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "vectorstore.ListCollections")
	defer span.End()

	collections, err := c.client.ListCollections(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	span.SetAttributes(attribute.Int("collection_count", len(collections)))
	span.SetStatus(codes.Ok, "success")
	return collections, nil
}

// retryOperation retries an operation with exponential backoff for
// transient errors. Permanent errors return immediately with the underlying
// error intact for classification by the caller.
func (c *Client) retryOperation(ctx context.Context, operationName string, operation func() error) error {
	backoff := c.config.RetryBackoff

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if !IsTransientError(lastErr) {
			return lastErr
		}
		if attempt == c.config.MaxRetries {
			return fmt.Errorf("%s failed after %d retries: %w", operationName, c.config.MaxRetries, lastErr)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled: %w", operationName, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return lastErr
}
