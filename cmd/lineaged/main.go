// Lineage traversal service entry point.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/allykrinsky/lineage-poc/internal/cache"
	"github.com/allykrinsky/lineage-poc/internal/events"
	"github.com/allykrinsky/lineage-poc/internal/graph"
	"github.com/allykrinsky/lineage-poc/internal/seed"
	"github.com/allykrinsky/lineage-poc/internal/server"
	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
	"github.com/allykrinsky/lineage-poc/internal/traversal"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting lineage traversal service")

	taxonomyPath := getEnv("TAXONOMY_PATH", "configs/taxonomy.yaml")
	registry, err := taxonomy.Load(taxonomyPath)
	if err != nil {
		logger.Fatal("Taxonomy failed validation", zap.Error(err))
	}

	ctx := context.Background()
	store, cleanup, err := buildStore(ctx, registry, logger)
	if err != nil {
		logger.Fatal("Failed to open graph store", zap.Error(err))
	}
	defer cleanup()

	var redisClient *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	adjCache, err := cache.New(store, cache.DefaultConfig(), redisClient, logger)
	if err != nil {
		logger.Fatal("Failed to build adjacency cache", zap.Error(err))
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		sub, err := events.NewSubscriber(natsURL, adjCache, logger)
		if err != nil {
			logger.Fatal("Failed to subscribe to graph updates", zap.Error(err))
		}
		defer sub.Close()
	}

	engine := traversal.NewEngine(adjCache, registry, logger)
	srv := server.New(engine, adjCache, logger)

	port := getEnv("PORT", "8080")
	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("port", port))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)

	logger.Info("Shutdown complete")
}

// buildStore opens the configured graph store: Dgraph by default, or the
// in-memory store (seeded from a fixture) for local development.
func buildStore(ctx context.Context, registry *taxonomy.Registry, logger *zap.Logger) (graph.Store, func(), error) {
	if getEnv("GRAPH_STORE", "dgraph") == "memory" {
		mem := graph.NewMemoryStore()
		if seedPath := getEnv("SEED_PATH", "configs/seed_fraud.yaml"); seedPath != "" {
			fixture, err := seed.Load(seedPath)
			if err != nil {
				return nil, nil, err
			}
			if err := fixture.Validate(registry); err != nil {
				return nil, nil, err
			}
			if err := fixture.Apply(ctx, mem); err != nil {
				return nil, nil, err
			}
			logger.Info("Seeded in-memory store",
				zap.Int("nodes", mem.NodeCount()),
				zap.Int("edges", mem.EdgeCount()))
		}
		return mem, func() {}, nil
	}

	cfg := graph.DefaultClientConfig()
	cfg.Address = getEnv("DGRAPH_URL", cfg.Address)
	client, err := graph.NewClient(ctx, cfg, registry.EdgeNames(), logger)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { client.Close() }, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
