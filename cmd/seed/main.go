// Seed CLI - load declarative graph fixtures into the lineage store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/allykrinsky/lineage-poc/internal/events"
	"github.com/allykrinsky/lineage-poc/internal/graph"
	"github.com/allykrinsky/lineage-poc/internal/seed"
	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
)

func main() {
	fixturePath := flag.String("fixture", "configs/seed_fraud.yaml", "Path to seed fixture (YAML)")
	taxonomyPath := flag.String("taxonomy", "configs/taxonomy.yaml", "Path to taxonomy (YAML)")
	dgraphURL := flag.String("dgraph", "localhost:9080", "Dgraph Alpha address")
	natsURL := flag.String("nats", "", "NATS address for update notification (optional)")
	dryRun := flag.Bool("dry-run", false, "Validate and apply to an in-memory store only")
	verbose := flag.Bool("verbose", false, "Enable verbose output")

	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	registry, err := taxonomy.Load(*taxonomyPath)
	if err != nil {
		logger.Fatal("Failed to load taxonomy", zap.Error(err))
	}

	fixture, err := seed.Load(*fixturePath)
	if err != nil {
		logger.Fatal("Failed to load fixture", zap.Error(err))
	}
	if err := fixture.Validate(registry); err != nil {
		logger.Fatal("Fixture failed validation", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *dryRun {
		mem := graph.NewMemoryStore()
		if err := fixture.Apply(ctx, mem); err != nil {
			logger.Fatal("Dry run failed", zap.Error(err))
		}
		logger.Info("Dry run complete",
			zap.Int("nodes", mem.NodeCount()),
			zap.Int("edges", mem.EdgeCount()))
		return
	}

	cfg := graph.DefaultClientConfig()
	cfg.Address = *dgraphURL
	client, err := graph.NewClient(ctx, cfg, registry.EdgeNames(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to Dgraph", zap.Error(err))
	}
	defer client.Close()

	if err := fixture.Apply(ctx, client); err != nil {
		logger.Fatal("Seed load failed", zap.Error(err))
	}
	logger.Info("Seed loaded",
		zap.Int("nodes", len(fixture.Nodes)),
		zap.Int("edges", len(fixture.Edges)))

	if *natsURL != "" {
		conn, err := nats.Connect(*natsURL)
		if err != nil {
			logger.Warn("Could not notify graph update", zap.Error(err))
			return
		}
		defer conn.Close()
		if err := events.Publish(conn, events.GraphUpdate{NodeIDs: fixture.NodeIDs()}); err != nil {
			logger.Warn("Could not publish graph update", zap.Error(err))
		}
	}
}
