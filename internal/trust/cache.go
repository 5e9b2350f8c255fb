package trust

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how stale a cached snapshot may be. The snapshot
// table is the source of truth; the cache only absorbs read load.
const DefaultCacheTTL = 5 * time.Minute

// cacheKeyPrefix namespaces trust snapshot keys in Redis.
const cacheKeyPrefix = "trust:snapshot:"

// CachedProvider wraps another Provider with a Redis read-through cache.
// Redis failures are fail-open: the inner provider is consulted and the
// error is logged, never surfaced to the ranking pipeline.
type CachedProvider struct {
	inner  Provider
	client *redis.Client
	ttl    time.Duration
}

// NewCachedProvider creates a CachedProvider with the given TTL.
// A zero or negative ttl falls back to DefaultCacheTTL.
func NewCachedProvider(inner Provider, client *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		inner:  inner,
		client: client,
		ttl:    ttl,
	}
}

// GetScore returns the cached snapshot when present, otherwise reads through
// to the inner provider and populates the cache best-effort.
func (p *CachedProvider) GetScore(ctx context.Context, tenantID string) (Score, error) {
	key := cacheKeyPrefix + tenantID

	data, err := p.client.Get(ctx, key).Bytes()
	if err == nil {
		var score Score
		if jsonErr := json.Unmarshal(data, &score); jsonErr == nil {
			return score, nil
		}
		// Corrupt cache entry; fall through to the inner provider.
		slog.WarnContext(ctx, "discarding corrupt trust cache entry", "tenant_id", tenantID)
	} else if err != redis.Nil {
		slog.WarnContext(ctx, "trust cache read failed, falling back", "tenant_id", tenantID, "error", err)
	}

	score, err := p.inner.GetScore(ctx, tenantID)
	if err != nil {
		return Score{}, err
	}

	if data, jsonErr := json.Marshal(score); jsonErr == nil {
		if setErr := p.client.Set(ctx, key, data, p.ttl).Err(); setErr != nil {
			slog.WarnContext(ctx, "trust cache write failed", "tenant_id", tenantID, "error", setErr)
		}
	}

	return score, nil
}
