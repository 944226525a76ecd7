package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"palmwatch/internal/models"
	"palmwatch/internal/utils"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a Redis client
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Mirror copies every published snapshot into Redis. It is never read back
// to restore state.
type Mirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewMirror creates a mirror writing under prefix; ttl 0 keeps the key forever
func NewMirror(client *redis.Client, prefix string, ttl time.Duration) *Mirror {
	return &Mirror{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// SnapshotKey is the key holding the latest snapshot JSON
func (m *Mirror) SnapshotKey() string {
	return m.prefix + ":snapshot"
}

// StreamKey is the capped stream of aggregate readings
func (m *Mirror) StreamKey() string {
	return "stream:" + m.prefix + ":readings"
}

// Write stores the snapshot and appends its aggregates to the readings stream
func (m *Mirror) Write(ctx context.Context, snap models.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := m.client.TxPipeline()
	pipe.Set(ctx, m.SnapshotKey(), raw, m.ttl)
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: m.StreamKey(),
		MaxLen: utils.StreamMaxLen, // exact trim, never more than StreamMaxLen entries
		Values: map[string]interface{}{
			"temperature":          snap.Temperature,
			"avg_soil_moisture":    snap.AvgSoilMoisture,
			"active_machine_count": snap.ActiveMachineCount,
			"mode":                 string(snap.Mode),
			"timestamp":            m.now().UnixNano(),
		},
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror snapshot: %w", err)
	}
	return nil
}
