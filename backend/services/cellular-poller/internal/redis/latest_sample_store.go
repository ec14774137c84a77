package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cellmon/backend/services/cellular-poller/internal/models"
)

// LatestSample is the cached copy of the last stored row.
type LatestSample struct {
	Host   string             `json:"host"`
	Time   time.Time          `json:"time"`
	Fields map[string]*string `json:"fields"`
}

type setter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Store mirrors the latest row of one router into redis.
type Store struct {
	client setter
	host   string
	ttl    time.Duration
}

// NewStore returns redis-backed store. Entries expire after ttl so a stalled poller does not
// leave a stale sample behind.
func NewStore(client *redis.Client, host string, ttl time.Duration) *Store {
	return &Store{client: client, host: host, ttl: ttl}
}

// Key returns the redis key of host's latest sample.
func Key(host string) string {
	return fmt.Sprintf("cellmon:latest:%s", host)
}

// Publish caches row as the latest sample.
func (s *Store) Publish(ctx context.Context, ts time.Time, row *models.TelemetryRow) error {
	data, err := json.Marshal(LatestSample{
		Host:   s.host,
		Time:   ts.UTC(),
		Fields: row.Map(),
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, Key(s.host), data, s.ttl).Err()
}
