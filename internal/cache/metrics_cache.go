// Package cache provides a Redis-backed cache of strategy metrics.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/observability"
	"strategy-journal/internal/storage"
)

// DefaultTTL bounds how long a cached record may outlive a missed invalidation.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "journal:metrics:"

// Entry is the cached form of a metrics record.
type Entry struct {
	StrategyID string               `json:"strategy_id"`
	Metrics    domain.MetricsRecord `json:"metrics"`
	CachedAt   time.Time            `json:"cached_at"`
}

// MetricsCache caches the latest metrics record per strategy.
// It is registered as a metrics sink so every recomputation refreshes it.
type MetricsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewMetricsCache creates a cache over an existing client. ttl <= 0 uses DefaultTTL.
func NewMetricsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *MetricsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsCache{client: client, ttl: ttl, logger: logger}
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Compile-time interface check.
var _ storage.MetricsSink = (*MetricsCache)(nil)

// PersistMetrics stores m as the latest record for strategyID.
func (c *MetricsCache) PersistMetrics(ctx context.Context, strategyID string, m domain.MetricsRecord) error {
	data, err := json.Marshal(Entry{StrategyID: strategyID, Metrics: m, CachedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal metrics entry: %w", err)
	}
	if err := c.client.Set(ctx, key(strategyID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set metrics entry: %w", err)
	}
	return nil
}

// Get returns the cached record. ok is false on a miss or any cache error;
// errors are logged and never returned so callers fall back to storage.
func (c *MetricsCache) Get(ctx context.Context, strategyID string) (m domain.MetricsRecord, ok bool) {
	data, err := c.client.Get(ctx, key(strategyID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("metrics cache read failed", zap.String("strategy_id", strategyID), zap.Error(err))
		}
		observability.RecordCacheLookup(false)
		return domain.MetricsRecord{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("metrics cache entry corrupt", zap.String("strategy_id", strategyID), zap.Error(err))
		observability.RecordCacheLookup(false)
		return domain.MetricsRecord{}, false
	}

	observability.RecordCacheLookup(true)
	return entry.Metrics, true
}

// Invalidate drops the cached record for strategyID.
func (c *MetricsCache) Invalidate(ctx context.Context, strategyID string) error {
	if err := c.client.Del(ctx, key(strategyID)).Err(); err != nil {
		return fmt.Errorf("delete metrics entry: %w", err)
	}
	return nil
}

func key(strategyID string) string {
	return keyPrefix + strategyID
}
