// Package main implements the knowledge-query-service daemon.
//
// The daemon answers natural-language retrieval queries over tenant-scoped
// knowledge bases. It exposes an HTTP API, a gRPC API and a Prometheus
// metrics endpoint, each on its own port.
//
// Configuration is assembled from defaults, an optional YAML file and
// environment variable overrides. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	knowledge-query
//
//	# Start with a config file
//	knowledge-query --config /etc/sentiric/knowledge-query.yaml
//
//	# Configure via environment
//	QDRANT_HOST=qdrant.internal LOG_LEVEL=debug knowledge-query
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sentiric/knowledge-query-service/internal/config"
	"github.com/sentiric/knowledge-query-service/internal/lifecycle"
	"github.com/sentiric/knowledge-query-service/internal/logging"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "knowledge-query",
	Short: "Tenant-scoped knowledge base query service",
	Long: `knowledge-query serves natural-language retrieval queries over
tenant-scoped knowledge bases backed by a Qdrant vector index.

It exposes an HTTP API, a gRPC API and a Prometheus metrics endpoint,
and reports readiness while the embedding model and index connection load.`,
	SilenceUsage: true,
	RunE:         run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("knowledge-query %s\n", version)
		fmt.Printf("  commit: %s\n", gitCommit)
		fmt.Printf("  built:  %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(versionCmd)
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Fields: map[string]string{
			"service": cfg.Service.Name,
			"env":     cfg.Service.Env,
		},
	})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting",
		zap.String("version", version),
		zap.String("commit", gitCommit),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := lifecycle.NewRunner(cfg, logger)
	if err != nil {
		return err
	}
	return runner.Run(ctx)
}
