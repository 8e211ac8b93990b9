// Package httpapi provides the HTTP front-end for the query engine.
//
// The handlers are a thin protocol adapter: they validate request shape,
// gate on readiness, call the engine, and translate classified faults to
// HTTP statuses. No retrieval logic lives here.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sentiric/knowledge-query-service/internal/engine"
	"github.com/sentiric/knowledge-query-service/internal/metrics"
	"github.com/sentiric/knowledge-query-service/internal/readiness"
)

// retryAfterSeconds is the hint returned while the service is not ready.
const retryAfterSeconds = "30"

// statusClientClosedRequest reports a caller that went away mid-request
// (nginx convention; net/http has no constant for it).
const statusClientClosedRequest = 499

// Searcher is the engine surface the HTTP adapter needs.
type Searcher interface {
	Search(ctx context.Context, tenantID, queryText string, topK int) ([]engine.Result, error)
	CheckHealth(ctx context.Context) bool
}

// Config holds HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	APIPrefix   string
	DefaultTopK int
	MaxTopK     int
}

// Server provides the HTTP endpoints.
type Server struct {
	echo     *echo.Echo
	searcher Searcher
	state    *readiness.State
	logger   *zap.Logger
	config   Config
}

// NewServer creates the HTTP front-end.
func NewServer(searcher Searcher, state *readiness.State, m *metrics.Metrics, logger *zap.Logger, cfg Config) (*Server, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher cannot be nil")
	}
	if state == nil {
		return nil, fmt.Errorf("readiness state cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	if m != nil {
		e.Use(metricsMiddleware(m))
	}

	s := &Server{
		echo:     e,
		searcher: searcher,
		state:    state,
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/health/deep", s.handleDeepHealth)

	api := s.echo.Group(s.config.APIPrefix)
	api.POST("/query", s.handleQuery)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the listener and blocks until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	err := s.echo.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests
// within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	}
}

// metricsMiddleware records request count, latency and in-flight gauge.
func metricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.InFlight.WithLabelValues(metrics.ProtocolHTTP).Inc()

			err := next(c)

			m.InFlight.WithLabelValues(metrics.ProtocolHTTP).Dec()
			path := c.Path()
			if path == "" {
				path = "unknown"
			}
			status := strconv.Itoa(c.Response().Status)
			m.RequestsTotal.WithLabelValues(metrics.ProtocolHTTP, path, status).Inc()
			m.RequestDuration.WithLabelValues(metrics.ProtocolHTTP, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// QueryRequest is the request body for POST {prefix}/query.
type QueryRequest struct {
	Query    string `json:"query"`
	TenantID string `json:"tenant_id"`
	TopK     int    `json:"top_k"`
}

// QueryResponse is the response body for POST {prefix}/query.
type QueryResponse struct {
	Results []engine.Result `json:"results"`
}

// ErrorResponse carries a short, caller-safe error description.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid request body"})
	}
	if req.TenantID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "tenant_id is required"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "query is required"})
	}

	topK := req.TopK
	if topK == 0 {
		topK = s.config.DefaultTopK
	}
	if topK < 1 || topK > s.config.MaxTopK {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Detail: fmt.Sprintf("top_k must be within [1, %d]", s.config.MaxTopK),
		})
	}

	if !s.state.IsReady() {
		return s.unavailable(c)
	}

	results, err := s.searcher.Search(c.Request().Context(), req.TenantID, req.Query, topK)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotReady):
			return s.unavailable(c)
		case errors.Is(err, context.Canceled):
			// Caller dropped the connection; nothing left to serve and no
			// server fault to report.
			return c.NoContent(statusClientClosedRequest)
		default:
			// Classified by the engine and already logged there with full
			// context; callers get a generic detail only.
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "internal server error"})
		}
	}

	return c.JSON(http.StatusOK, QueryResponse{Results: results})
}

func (s *Server) unavailable(c echo.Context) error {
	c.Response().Header().Set("Retry-After", retryAfterSeconds)
	return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Detail: "service is starting, retry later",
	})
}

// handleHealth reports readiness: 200 once both dependencies are confirmed
// live, 503 with a retry hint otherwise.
func (s *Server) handleHealth(c echo.Context) error {
	status := s.state.Status()
	if status == readiness.StatusHealthy {
		return c.JSON(http.StatusOK, HealthResponse{Status: string(status)})
	}
	c.Response().Header().Set("Retry-After", retryAfterSeconds)
	return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: string(status)})
}

// handleDeepHealth performs a live probe against the vector index instead of
// reading the cached readiness flags.
func (s *Server) handleDeepHealth(c echo.Context) error {
	if s.searcher.CheckHealth(c.Request().Context()) {
		return c.JSON(http.StatusOK, HealthResponse{Status: string(readiness.StatusHealthy)})
	}
	c.Response().Header().Set("Retry-After", retryAfterSeconds)
	return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: string(readiness.StatusUnhealthy)})
}
