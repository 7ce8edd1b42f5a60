// Package cache provides a two-tier adjacency cache in front of the graph
// store:
//   - L1: in-memory Ristretto cache (microsecond latency)
//   - L2: optional Redis cache (millisecond latency, shared across instances)
//
// The cache decorates any graph.Store; a miss on both tiers falls through to
// the underlying store, and store errors propagate unchanged so traversal
// abort semantics are preserved.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/allykrinsky/lineage-poc/internal/graph"
	"github.com/allykrinsky/lineage-poc/internal/jsonx"
)

const adjacencyKeyPrefix = "lineage:adj:"

// Config holds adjacency cache settings.
type Config struct {
	L1MaxCost int64
	TTL       time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		L1MaxCost: 10000,
		TTL:       5 * time.Minute,
	}
}

// Metrics tracks cache performance.
type Metrics struct {
	L1Hits   int64
	L1Misses int64
	L2Hits   int64
	L2Misses int64
}

// AdjacencyCache is a caching graph.Store decorator. Node lookups pass
// through uncached; adjacency lists are the hot path during BFS expansion.
type AdjacencyCache struct {
	store graph.Store
	l1    *ristretto.Cache[string, []byte]
	l2    *redis.Client
	ttl   time.Duration

	logger    *zap.Logger
	metrics   Metrics
	metricsMu sync.Mutex
}

// New wraps store with the two-tier adjacency cache. redisClient may be nil
// to run L1-only.
func New(store graph.Store, cfg Config, redisClient *redis.Client, logger *zap.Logger) (*AdjacencyCache, error) {
	if cfg.L1MaxCost == 0 {
		cfg.L1MaxCost = 10000
	}
	if cfg.TTL == 0 {
		cfg.TTL = 5 * time.Minute
	}

	l1, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: cfg.L1MaxCost * 10,
		MaxCost:     cfg.L1MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &AdjacencyCache{
		store:  store,
		l1:     l1,
		l2:     redisClient,
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

// GetNode delegates to the underlying store.
func (c *AdjacencyCache) GetNode(ctx context.Context, id string) (*graph.Node, error) {
	return c.store.GetNode(ctx, id)
}

// Neighbors returns the cached adjacency list for the node, filling both
// tiers on a miss.
func (c *AdjacencyCache) Neighbors(ctx context.Context, id string) ([]graph.IncidentEdge, error) {
	key := adjacencyKeyPrefix + id

	if data, ok := c.l1.Get(key); ok {
		c.bump(func(m *Metrics) { m.L1Hits++ })
		return decodeAdjacency(data)
	}
	c.bump(func(m *Metrics) { m.L1Misses++ })

	if c.l2 != nil {
		data, err := c.l2.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			c.bump(func(m *Metrics) { m.L2Hits++ })
			c.l1.SetWithTTL(key, data, 1, c.ttl)
			return decodeAdjacency(data)
		case err != redis.Nil:
			c.logger.Warn("Redis adjacency read failed, falling through",
				zap.String("node", id),
				zap.Error(err))
		default:
			c.bump(func(m *Metrics) { m.L2Misses++ })
		}
	}

	incident, err := c.store.Neighbors(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := jsonx.Marshal(incident); err == nil {
		c.l1.SetWithTTL(key, data, 1, c.ttl)
		if c.l2 != nil {
			if err := c.l2.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.logger.Warn("Redis adjacency write failed",
					zap.String("node", id),
					zap.Error(err))
			}
		}
	}

	return incident, nil
}

// Invalidate drops the cached adjacency of a node from both tiers. Called
// when a graph update event names the node.
func (c *AdjacencyCache) Invalidate(ctx context.Context, id string) {
	key := adjacencyKeyPrefix + id
	c.l1.Del(key)
	if c.l2 != nil {
		if err := c.l2.Del(ctx, key).Err(); err != nil {
			c.logger.Warn("Redis adjacency invalidation failed",
				zap.String("node", id),
				zap.Error(err))
		}
	}
}

// Wait blocks until pending L1 writes are admitted. Ristretto admits
// asynchronously; only tests need this.
func (c *AdjacencyCache) Wait() {
	c.l1.Wait()
}

// Metrics returns a snapshot of the hit/miss counters.
func (c *AdjacencyCache) Metrics() Metrics {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	return c.metrics
}

func (c *AdjacencyCache) bump(fn func(*Metrics)) {
	c.metricsMu.Lock()
	fn(&c.metrics)
	c.metricsMu.Unlock()
}

func decodeAdjacency(data []byte) ([]graph.IncidentEdge, error) {
	var incident []graph.IncidentEdge
	if err := jsonx.Unmarshal(data, &incident); err != nil {
		return nil, err
	}
	return incident, nil
}
