package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bookhive/bookhive/internal/model"
)

const (
	// identityPrefix is the Redis key prefix for resolved identities.
	identityPrefix = "auth:identity:"
	// identityTTL bounds how long a deleted account can still authenticate
	// through a cached resolution.
	identityTTL = 5 * time.Minute
)

// GetIdentity retrieves a cached resolved identity by token digest.
// Returns nil on a cache miss; misses and corrupted entries are not errors.
func (c *Cache) GetIdentity(ctx context.Context, tokenDigest string) (*model.Identity, error) {
	data, err := c.client.Get(ctx, identityPrefix+tokenDigest).Bytes()
	if err != nil {
		return nil, nil //nolint:nilerr
	}

	var id model.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, nil //nolint:nilerr
	}
	return &id, nil
}

// SetIdentity caches a resolved identity under the token digest.
func (c *Cache) SetIdentity(ctx context.Context, tokenDigest string, id *model.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	return c.client.Set(ctx, identityPrefix+tokenDigest, data, identityTTL).Err()
}

// DeleteIdentity removes a cached identity.
func (c *Cache) DeleteIdentity(ctx context.Context, tokenDigest string) error {
	return c.client.Del(ctx, identityPrefix+tokenDigest).Err()
}
