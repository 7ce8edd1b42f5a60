// Package events subscribes to graph update notifications and keeps the
// adjacency cache coherent with out-of-band graph mutations (seed loads,
// ingestion pipelines writing to the same store).
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/allykrinsky/lineage-poc/internal/jsonx"
)

// SubjectGraphUpdated is the NATS subject carrying graph update events.
const SubjectGraphUpdated = "lineage.graph.updated"

// GraphUpdate names the nodes whose adjacency changed.
type GraphUpdate struct {
	NodeIDs []string `json:"node_ids"`
}

// Invalidator is the cache side the subscriber drives.
type Invalidator interface {
	Invalidate(ctx context.Context, id string)
}

// Subscriber listens for graph updates and invalidates cached adjacency.
type Subscriber struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	logger *zap.Logger
}

// NewSubscriber connects to NATS and starts consuming update events.
func NewSubscriber(url string, inv Invalidator, logger *zap.Logger) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect to NATS: %w", err)
	}

	sub, err := conn.Subscribe(SubjectGraphUpdated, func(msg *nats.Msg) {
		var update GraphUpdate
		if err := jsonx.Unmarshal(msg.Data, &update); err != nil {
			logger.Warn("Malformed graph update event", zap.Error(err))
			return
		}
		ctx := context.Background()
		for _, id := range update.NodeIDs {
			inv.Invalidate(ctx, id)
		}
		logger.Debug("Invalidated adjacency for updated nodes",
			zap.Int("count", len(update.NodeIDs)))
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: subscribe %s: %w", SubjectGraphUpdated, err)
	}

	logger.Info("Graph update subscriber started", zap.String("subject", SubjectGraphUpdated))
	return &Subscriber{conn: conn, sub: sub, logger: logger}, nil
}

// Publish sends a graph update event over an existing connection. The seed
// CLI uses this after loading fixtures.
func Publish(conn *nats.Conn, update GraphUpdate) error {
	data, err := jsonx.Marshal(update)
	if err != nil {
		return err
	}
	return conn.Publish(SubjectGraphUpdated, data)
}

// Close unsubscribes and closes the connection. Pending messages are not
// drained.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
