package valkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/skywatch/internal/core/ports"
)

// Cache implements ports.CacheStore using Valkey (Redis-compatible).
type Cache struct {
	client valkey.Client
}

// New creates a Valkey client from a redis:// or valkey:// URL, or a bare
// host:port address.
func New(addr string) (*Cache, error) {
	client, err := NewClient(addr)
	if err != nil {
		return nil, err
	}
	return &Cache{client: client}, nil
}

// NewClient parses addr and connects. The client can be shared between a
// Cache and a Limiter.
func NewClient(addr string) (valkey.Client, error) {
	opt, err := valkey.ParseURL(addr)
	if err != nil {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return client, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client valkey.Client) *Cache {
	return &Cache{client: client}
}

var _ ports.CacheStore = (*Cache)(nil)

// Get retrieves a value by key. An absent key is ports.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("valkey get %s: %w", key, err)
	}
	return b, nil
}

// Set stores a value; Valkey expires it server-side after ttl.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("valkey set: ttl must be positive")
	}
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Px(ttl).Build(),
	)
	return cmd.Error()
}

// Flush removes every key in the current database.
func (c *Cache) Flush(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Flushdb().Build()).Error()
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
