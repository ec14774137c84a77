package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"cellmon/backend/services/cellular-poller/internal/models"
)

type fakeSetter struct {
	key   string
	value []byte
	ttl   time.Duration
	err   error
}

func (f *fakeSetter) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.key = key
	f.value, _ = value.([]byte)
	f.ttl = expiration
	return redis.NewStatusResult("OK", f.err)
}

func TestPublishStoresLatestSample(t *testing.T) {
	fake := &fakeSetter{}
	store := &Store{client: fake, host: "192.168.1.1", ttl: 3 * time.Minute}

	rsrp := "-10"
	row := models.NewTelemetryRow(map[models.FieldName]*string{
		models.FieldRSRP: &rsrp,
		models.FieldTemp: nil,
	})
	ts := time.Date(2024, 5, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*60*60))

	if err := store.Publish(context.Background(), ts, row); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if fake.key != "cellmon:latest:192.168.1.1" {
		t.Fatalf("unexpected key %q", fake.key)
	}
	if fake.ttl != 3*time.Minute {
		t.Fatalf("unexpected ttl %s", fake.ttl)
	}

	var got LatestSample
	if err := json.Unmarshal(fake.value, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.Host != "192.168.1.1" || !got.Time.Equal(ts) {
		t.Fatalf("unexpected payload header: %+v", got)
	}
	if v := got.Fields["rsrp"]; v == nil || *v != "-10" {
		t.Fatalf("expected rsrp in payload, got %v", got.Fields)
	}
	if v, ok := got.Fields["temp"]; !ok || v != nil {
		t.Fatalf("expected temp as null, got %v", got.Fields)
	}
}

func TestPublishReturnsRedisError(t *testing.T) {
	fake := &fakeSetter{err: errors.New("READONLY You can't write against a read only replica")}
	store := &Store{client: fake, host: "router", ttl: time.Minute}

	if err := store.Publish(context.Background(), time.Now(), models.NewTelemetryRow(nil)); err == nil {
		t.Fatalf("expected error")
	}
}
