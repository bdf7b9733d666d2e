package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Consumed markers outlive the 2h reset-token TTL so a marker always exists
// for as long as its token could still verify.
const resetMarkerTTL = 3 * time.Hour

// ResetMarker records consumed reset tokens by their jti, backed by Redis.
// Key format: reset:used:<jti>
type ResetMarker struct {
	client *redis.Client
}

// NewResetMarker creates a ResetMarker wrapping the given Redis client.
func NewResetMarker(client *redis.Client) *ResetMarker {
	return &ResetMarker{client: client}
}

// IsUsed reports whether the reset token with this jti has been consumed.
func (m *ResetMarker) IsUsed(ctx context.Context, jti string) (bool, error) {
	n, err := m.client.Exists(ctx, m.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("reset marker check: %w", err)
	}
	return n > 0, nil
}

// MarkUsed records that the reset token with this jti has been consumed.
func (m *ResetMarker) MarkUsed(ctx context.Context, jti string) error {
	return m.client.Set(ctx, m.key(jti), "1", resetMarkerTTL).Err()
}

func (m *ResetMarker) key(jti string) string {
	return "reset:used:" + jti
}
