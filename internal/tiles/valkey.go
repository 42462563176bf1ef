package tiles

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valkey-io/valkey-go"
)

// ValkeyCache shares fetched tiles between runs and processes through a
// Valkey (Redis-compatible) server.
type ValkeyCache struct {
	client valkey.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewValkeyCache connects to addr. A zero ttl stores entries without expiry.
func NewValkeyCache(addr string, ttl time.Duration, log zerolog.Logger) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &ValkeyCache{client: client, ttl: ttl, log: log}, nil
}

func (c *ValkeyCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(valkeyKey(key)).Build()).AsBytes()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			c.log.Warn().Err(err).Msg("valkey get failed")
		}
		return nil, false
	}
	return b, true
}

func (c *ValkeyCache) Set(ctx context.Context, key string, data []byte) {
	var cmd valkey.Completed
	if c.ttl > 0 {
		cmd = c.client.B().Set().Key(valkeyKey(key)).Value(valkey.BinaryString(data)).Ex(c.ttl).Build()
	} else {
		cmd = c.client.B().Set().Key(valkeyKey(key)).Value(valkey.BinaryString(data)).Build()
	}
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.log.Warn().Err(err).Msg("valkey set failed")
	}
}

// Close releases the client.
func (c *ValkeyCache) Close() {
	c.client.Close()
}

// valkeyKey hashes long request URLs into fixed-size keys.
func valkeyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "parking:tile:" + hex.EncodeToString(sum[:])
}
