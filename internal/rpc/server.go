package rpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	knowledgev1 "github.com/sentiric/knowledge-query-service/api/knowledge/v1"
	"github.com/sentiric/knowledge-query-service/internal/metrics"
)

// Config holds the gRPC listener settings.
type Config struct {
	Host string
	Port int

	// TLS is enabled when both CertFile and KeyFile are set. CAFile
	// additionally turns on client certificate verification.
	CertFile string
	KeyFile  string
	CAFile   string
}

// Addr returns the host:port to listen on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// Server wraps the grpc.Server with lifecycle management.
type Server struct {
	cfg    Config
	logger *zap.Logger
	grpc   *grpc.Server
}

// NewServer builds the gRPC server and registers the query service.
func NewServer(svc *Service, m *metrics.Metrics, logger *zap.Logger, cfg Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(metricsUnaryInterceptor(m), recoveryUnaryInterceptor(logger)),
	}

	creds, err := serverCredentials(cfg)
	if err != nil {
		return nil, fmt.Errorf("load TLS credentials: %w", err)
	}
	if creds != nil {
		opts = append(opts, grpc.Creds(creds))
	} else {
		logger.Warn("gRPC TLS not configured, serving plaintext", zap.String("addr", cfg.Addr()))
	}

	srv := grpc.NewServer(opts...)
	knowledgev1.RegisterKnowledgeQueryServiceServer(srv, svc)

	return &Server{cfg: cfg, logger: logger, grpc: srv}, nil
}

// Start listens and serves until Shutdown or a listener error.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	s.logger.Info("gRPC server listening", zap.String("addr", s.cfg.Addr()))
	return s.grpc.Serve(lis)
}

// Shutdown drains in-flight RPCs, forcing a stop when the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.grpc.Stop()
		return ctx.Err()
	}
}

func serverCredentials(cfg Config) (credentials.TransportCredentials, error) {
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load key pair: %w", err)
	}
	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if cfg.CAFile != "" {
		caPEM, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no certificates parsed from %s", cfg.CAFile)
		}
		tlsCfg.ClientCAs = pool
		tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return credentials.NewTLS(tlsCfg), nil
}

func metricsUnaryInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if m == nil {
			return handler(ctx, req)
		}
		m.InFlight.WithLabelValues(metrics.ProtocolGRPC).Inc()
		start := time.Now()

		resp, err := handler(ctx, req)

		m.InFlight.WithLabelValues(metrics.ProtocolGRPC).Dec()
		code := status.Code(err)
		m.RequestsTotal.WithLabelValues(metrics.ProtocolGRPC, info.FullMethod, code.String()).Inc()
		m.RequestDuration.WithLabelValues(metrics.ProtocolGRPC, info.FullMethod).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

func recoveryUnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in gRPC handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
				)
				err = status.Error(codes.Internal, "internal processing error")
			}
		}()
		return handler(ctx, req)
	}
}
