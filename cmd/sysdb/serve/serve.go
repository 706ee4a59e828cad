package serve

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vexsearch/sysdb/internal/catalog"
	"github.com/vexsearch/sysdb/internal/config"
	"github.com/vexsearch/sysdb/internal/logging"
	"github.com/vexsearch/sysdb/internal/metrics"
)

func Run(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	seedPath := fs.String("seed", "", "Path to seed document (overrides config)")
	metricsAddr := fs.String("metrics-addr", "", "Metrics listen address (overrides config)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *seedPath != "" {
		cfg.SeedPath = *seedPath
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger := logging.NewWithLevel(os.Stdout, level)

	store, err := NewCatalog(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build catalog: %v", err)
	}
	stats := store.Stats()
	metrics.SetCollectionsRegistered(stats.Collections)
	logger.Info("catalog loaded",
		slog.String("seed", cfg.SeedPath),
		slog.Int("collections", stats.Collections),
		slog.Int("segments", stats.Segments),
		slog.Int("tenants", stats.Tenants),
	)

	srv := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      NewHandler(store),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Starting sysdb metrics server on %s\n", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	fmt.Println("\nShutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}

	fmt.Println("Server stopped")
}

// NewCatalog builds a MemoryCatalog and applies the configured seed, if any.
func NewCatalog(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*catalog.MemoryCatalog, error) {
	store := catalog.NewMemoryCatalog(catalog.WithLogger(logger))
	if cfg.SeedPath == "" {
		return store, nil
	}

	loader := catalog.SeedLoader{OpenBucket: cfg.ObjectStore.OpenBucket}
	seed, err := loader.Load(ctx, cfg.SeedPath)
	if err != nil {
		return nil, err
	}
	if err := seed.Apply(store); err != nil {
		return nil, fmt.Errorf("apply seed %s: %w", cfg.SeedPath, err)
	}
	return store, nil
}

// NewHandler serves health and Prometheus metrics for a running catalog.
func NewHandler(store *catalog.MemoryCatalog) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		stats := store.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"collections": stats.Collections,
			"segments":    stats.Segments,
			"tenants":     stats.Tenants,
		})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
