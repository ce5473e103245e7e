package natsadapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
)

const (
	snapshotStream  = "SKY_SNAPSHOTS"
	snapshotSubject = "sky.snapshot"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the snapshot stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("skywatch-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      snapshotStream,
		Subjects:  []string{snapshotSubject + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    10 * time.Minute,
		Storage:   nats.MemoryStorage,
		Discard:   nats.DiscardOld,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

var _ ports.EventPublisher = (*Publisher)(nil)

// SnapshotSubject maps a cache key onto a subject. Dots and colons are
// subject separators, so they become underscores inside the key token.
func SnapshotSubject(key string) string {
	token := strings.NewReplacer(".", "_", ":", "_", " ", "_", "*", "_", ">", "_").Replace(key)
	return snapshotSubject + "." + token
}

// PublishSnapshot publishes a freshly computed snapshot.
func (p *Publisher) PublishSnapshot(ctx context.Context, key string, snap *domain.CelestialSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = p.js.Publish(SnapshotSubject(key), data, nats.Context(ctx))
	return err
}

// Connected reports whether the connection is up.
func (p *Publisher) Connected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
