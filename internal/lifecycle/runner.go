// Package lifecycle wires the configured components together and manages
// startup and shutdown of the listeners.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sentiric/knowledge-query-service/internal/config"
	"github.com/sentiric/knowledge-query-service/internal/embedding"
	"github.com/sentiric/knowledge-query-service/internal/engine"
	"github.com/sentiric/knowledge-query-service/internal/httpapi"
	"github.com/sentiric/knowledge-query-service/internal/metrics"
	"github.com/sentiric/knowledge-query-service/internal/readiness"
	"github.com/sentiric/knowledge-query-service/internal/rpc"
	"github.com/sentiric/knowledge-query-service/internal/tenant"
	"github.com/sentiric/knowledge-query-service/internal/vectorstore"
)

// Runner assembles the engine and the three listeners from configuration
// and runs them until the context is canceled.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRunner creates a runner for the given configuration.
func NewRunner(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Runner{cfg: cfg, logger: logger}, nil
}

// newBuilders constructs the engine dependencies from configuration. The
// model load itself cannot be interrupted, so the embedder builder checks
// its context around the load and discards the provider when the context
// was canceled meanwhile.
func newBuilders(cfg *config.Config) engine.Builders {
	return engine.Builders{
		Embedder: func(ctx context.Context) (embedding.Provider, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			provider, err := embedding.NewFastEmbedProvider(embedding.FastEmbedConfig{
				Model:     cfg.Embedding.Model,
				CacheDir:  cfg.Embedding.CacheDir,
				MaxLength: cfg.Embedding.MaxLength,
			})
			if err != nil {
				return nil, err
			}
			if err := ctx.Err(); err != nil {
				_ = provider.Close()
				return nil, err
			}
			return provider, nil
		},
		Index: func(ctx context.Context) (engine.VectorIndex, error) {
			return vectorstore.NewClient(ctx, vectorstore.Config{
				Host:           cfg.Qdrant.Host,
				Port:           cfg.Qdrant.Port,
				APIKey:         cfg.Qdrant.APIKey,
				UseTLS:         cfg.Qdrant.UseTLS,
				ScoreThreshold: cfg.Qdrant.ScoreThreshold,
			})
		},
	}
}

// Run starts the service and blocks until ctx is canceled or a listener
// fails.
//
// The listeners come up immediately and answer 503 while the engine loads in
// the background. An initialization failure is logged but does not bring the
// process down: the health endpoints keep reporting not-ready so an
// orchestrator can restart the instance on its own policy.
func (r *Runner) Run(ctx context.Context) error {
	cfg := r.cfg
	logger := r.logger

	state := readiness.NewState()
	resolver := tenant.NewResolver(cfg.Qdrant.CollectionPrefix)
	m := metrics.New("knowledge_query")

	eng := engine.New(resolver, state, newBuilders(cfg), cfg.Embedding.Workers, logger.Named("engine"))

	httpSrv, err := httpapi.NewServer(eng, state, m, logger.Named("http"), httpapi.Config{
		Host:        cfg.HTTP.Host,
		Port:        cfg.HTTP.Port,
		APIPrefix:   cfg.HTTP.APIPrefix,
		DefaultTopK: cfg.Query.DefaultTopK,
		MaxTopK:     cfg.Query.MaxTopK,
	})
	if err != nil {
		return fmt.Errorf("build HTTP server: %w", err)
	}

	svc := rpc.NewService(eng, state, cfg.Query.DefaultTopK, cfg.Query.MaxTopK, logger.Named("grpc"))
	grpcSrv, err := rpc.NewServer(svc, m, logger.Named("grpc"), rpc.Config{
		Host:     cfg.GRPC.Host,
		Port:     cfg.GRPC.Port,
		CertFile: cfg.GRPC.CertFile,
		KeyFile:  cfg.GRPC.KeyFile,
		CAFile:   cfg.GRPC.CAFile,
	})
	if err != nil {
		return fmt.Errorf("build gRPC server: %w", err)
	}

	metricsSrv := metrics.NewServer(
		net.JoinHostPort(cfg.Metrics.Host, fmt.Sprintf("%d", cfg.Metrics.Port)), m)

	monitor := readiness.NewMonitor(eng, state, cfg.Engine.HealthInterval, logger.Named("monitor"))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Engine initialization runs in the background so the listeners can
	// start answering health checks right away.
	initDone := make(chan struct{})
	go func() {
		defer close(initDone)
		if err := eng.Initialize(runCtx); err != nil {
			logger.Error("engine initialization failed, serving not-ready", zap.Error(err))
			return
		}
		logger.Info("engine initialized, service ready")
		monitor.Start(runCtx)
	}()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := httpSrv.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := grpcSrv.Start(); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := metricsSrv.Start(); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		r.shutdown(httpSrv, grpcSrv, metricsSrv, monitor, eng, initDone)
		return nil
	})

	logger.Info("service started",
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("grpc_port", cfg.GRPC.Port),
		zap.Int("metrics_port", cfg.Metrics.Port),
	)

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// shutdown drains the protocol listeners within the configured grace period,
// then stops the monitor and tears the engine down.
func (r *Runner) shutdown(httpSrv *httpapi.Server, grpcSrv *rpc.Server, metricsSrv *metrics.Server, monitor *readiness.Monitor, eng *engine.Engine, initDone <-chan struct{}) {
	r.logger.Info("shutting down")

	graceCtx, cancel := context.WithTimeout(context.Background(), r.cfg.Engine.ShutdownGrace)
	defer cancel()

	var wg errgroup.Group
	wg.Go(func() error {
		if err := httpSrv.Shutdown(graceCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Warn("http shutdown", zap.Error(err))
		}
		return nil
	})
	wg.Go(func() error {
		if err := grpcSrv.Shutdown(graceCtx); err != nil {
			r.logger.Warn("grpc shutdown", zap.Error(err))
		}
		return nil
	})
	wg.Go(func() error {
		if err := metricsSrv.Shutdown(graceCtx); err != nil {
			r.logger.Warn("metrics shutdown", zap.Error(err))
		}
		return nil
	})
	_ = wg.Wait()

	// Initialize observes the canceled run context; wait for it so teardown
	// never races a half-built engine. The model load is not interruptible,
	// so the wait is bounded by the grace period rather than open-ended.
	if !waitDone(initDone, r.cfg.Engine.ShutdownGrace) {
		r.logger.Warn("initialization still running at shutdown, abandoning wait")
		return
	}
	monitor.Stop()
	eng.Shutdown()
	r.logger.Info("shutdown complete")
}

// waitDone waits for ch to close, giving up after timeout.
func waitDone(ch <-chan struct{}, timeout time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}
