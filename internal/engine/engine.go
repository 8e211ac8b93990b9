// Package engine implements the retrieval query engine: embed the query,
// search the tenant's collection, map hits to results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sentiric/knowledge-query-service/internal/embedding"
	"github.com/sentiric/knowledge-query-service/internal/readiness"
	"github.com/sentiric/knowledge-query-service/internal/tenant"
	"github.com/sentiric/knowledge-query-service/internal/vectorstore"
)

var tracer = otel.Tracer("knowledge-query-service.engine")

const healthProbeTimeout = 5 * time.Second

// VectorIndex is the engine's view of the vector database.
type VectorIndex interface {
	// Query performs nearest-neighbor search with payloads attached.
	// Returns vectorstore.ErrCollectionNotFound for an absent collection.
	Query(ctx context.Context, collection string, vector []float32, limit uint64) ([]vectorstore.Hit, error)

	// ListCollections is the live health probe.
	ListCollections(ctx context.Context) ([]string, error)

	// Close releases the connection.
	Close() error
}

// Builders construct the engine's dependencies during Initialize. Injecting
// constructors keeps the heavy loads out of New and lets tests substitute
// fakes.
type Builders struct {
	// Embedder loads the embedding model. CPU-bound and slow.
	Embedder func(ctx context.Context) (embedding.Provider, error)

	// Index connects to the vector database.
	Index func(ctx context.Context) (VectorIndex, error)
}

// Engine owns the embedding provider and the vector index and exposes the
// single Search operation used by both protocol front-ends.
type Engine struct {
	resolver *tenant.Resolver
	state    *readiness.State
	logger   *zap.Logger
	builders Builders

	// sem bounds concurrent embedding work so a burst cannot starve the
	// listener goroutines.
	sem chan struct{}

	mu           sync.Mutex
	initialized  bool
	initializing bool
	embedder     embedding.Provider
	index        VectorIndex

	shutdownOnce sync.Once
}

// New creates an engine. Dependencies are not loaded until Initialize.
func New(resolver *tenant.Resolver, state *readiness.State, builders Builders, embedWorkers int, logger *zap.Logger) *Engine {
	if embedWorkers < 1 {
		embedWorkers = 1
	}
	return &Engine{
		resolver: resolver,
		state:    state,
		logger:   logger,
		builders: builders,
		sem:      make(chan struct{}, embedWorkers),
	}
}

// Initialize loads the embedding model and connects to the vector index.
// Both run concurrently to minimize time to readiness; each readiness flag
// flips as its load completes, so readiness is monotonic during startup.
//
// On any failure the engine closes what it opened, forces both flags back to
// false (never partially ready) and returns a classified initialization
// error. Initialization runs at most once: a second call, concurrent or
// after success, returns ErrAlreadyInitialized. After a failure a fresh
// call may try again.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if e.initialized || e.initializing {
		e.mu.Unlock()
		return ErrAlreadyInitialized
	}
	e.initializing = true
	e.mu.Unlock()

	e.logger.Info("initializing query engine")

	var wg sync.WaitGroup
	var embErr, idxErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		prov, err := e.builders.Embedder(ctx)
		if err != nil {
			embErr = err
			return
		}
		e.mu.Lock()
		e.embedder = prov
		e.mu.Unlock()
		e.state.SetModelReady(true)
		e.logger.Info("embedding model loaded")
	}()
	go func() {
		defer wg.Done()
		idx, err := e.builders.Index(ctx)
		if err != nil {
			idxErr = err
			return
		}
		e.mu.Lock()
		e.index = idx
		e.mu.Unlock()
		e.state.SetIndexReady(true)
		e.logger.Info("vector index connected")
	}()
	wg.Wait()

	if embErr != nil || idxErr != nil {
		e.teardown()
		e.state.SetModelReady(false)
		e.state.SetIndexReady(false)
		e.mu.Lock()
		e.initializing = false
		e.mu.Unlock()
		err := errors.Join(embErr, idxErr)
		e.logger.Error("engine initialization failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInitialization, err)
	}

	e.mu.Lock()
	e.initialized = true
	e.initializing = false
	e.mu.Unlock()

	e.logger.Info("query engine ready")
	return nil
}

// Shutdown releases the index connection and the model. Idempotent and safe
// to call even if Initialize never completed.
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() {
		e.state.SetModelReady(false)
		e.state.SetIndexReady(false)
		e.teardown()
		e.logger.Info("query engine shut down")
	})
}

func (e *Engine) teardown() {
	e.mu.Lock()
	embedder, index := e.embedder, e.index
	e.embedder, e.index = nil, nil
	e.initialized = false
	e.mu.Unlock()

	if index != nil {
		if err := index.Close(); err != nil {
			e.logger.Warn("closing vector index", zap.Error(err))
		}
	}
	if embedder != nil {
		if err := embedder.Close(); err != nil {
			e.logger.Warn("closing embedding provider", zap.Error(err))
		}
	}
}

// CheckHealth performs a live probe against the vector index and reports
// whether it answered. It returns false when the engine never initialized,
// and it does not mutate readiness itself; the readiness monitor owns that.
func (e *Engine) CheckHealth(ctx context.Context) bool {
	e.mu.Lock()
	index := e.index
	e.mu.Unlock()
	if index == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	_, err := index.ListCollections(ctx)
	return err == nil
}

// Search embeds queryText and returns the topK nearest documents from the
// tenant's collection, ordered as the index returned them.
//
// An absent collection is not an error: a tenant with no ingested knowledge
// yet gets an empty result set. Any other index or embedding failure is
// classified as ErrDependency; the cause is logged with tenant and
// collection context and never included in the returned error.
func (e *Engine) Search(ctx context.Context, tenantID, queryText string, topK int) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "engine.Search")
	defer span.End()

	if !e.state.IsReady() {
		return nil, ErrNotReady
	}

	queryID := uuid.NewString()
	collection := e.resolver.Collection(tenantID)
	log := e.logger.With(
		zap.String("query_id", queryID),
		zap.String("tenant_id", tenantID),
		zap.String("collection", collection),
	)
	span.SetAttributes(
		attribute.String("query_id", queryID),
		attribute.String("collection", collection),
		attribute.Int("top_k", topK),
	)

	vector, err := e.embedQuery(ctx, queryText)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error("query embedding failed", zap.Error(err))
		return nil, fmt.Errorf("%w: query embedding failed", ErrDependency)
	}

	e.mu.Lock()
	index := e.index
	e.mu.Unlock()
	if index == nil {
		return nil, ErrNotReady
	}

	hits, err := index.Query(ctx, collection, vector, uint64(topK))
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			log.Warn("collection absent, returning empty result set")
			return []Result{}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error("vector index query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: vector index query failed", ErrDependency)
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = resultFromHit(hit)
	}

	log.Info("search completed", zap.Int("results", len(results)))
	return results, nil
}

// embedQuery runs the CPU-bound embedding on a bounded worker pool. A caller
// whose context is canceled abandons the wait; the worker goroutine still
// releases its slot, so no capacity leaks.
func (e *Engine) embedQuery(ctx context.Context, text string) ([]float32, error) {
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	e.mu.Lock()
	embedder := e.embedder
	e.mu.Unlock()
	if embedder == nil {
		<-e.sem
		return nil, ErrNotReady
	}

	type embedOut struct {
		vector []float32
		err    error
	}
	out := make(chan embedOut, 1)
	go func() {
		defer func() { <-e.sem }()
		vector, err := embedder.EmbedQuery(ctx, text)
		out <- embedOut{vector, err}
	}()

	select {
	case res := <-out:
		return res.vector, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
