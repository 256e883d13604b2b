// Package reconcile repairs state left behind by partially failed sagas:
// product rating aggregates whose write-back failed and carts that were not
// cleared after order creation.
package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	radix "github.com/mediocregopher/radix/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const driftKey = "reviews:drift"

// MemoryTracker keeps the dirty product set in process. Marks are lost on
// restart; the sweep also rescans products reviewed in the last day, which
// picks those up again.
type MemoryTracker struct {
	mu    sync.Mutex
	dirty map[primitive.ObjectID]struct{}
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{dirty: make(map[primitive.ObjectID]struct{})}
}

func (t *MemoryTracker) MarkDirty(_ context.Context, productID primitive.ObjectID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty[productID] = struct{}{}
	return nil
}

func (t *MemoryTracker) Drain(_ context.Context, max int) ([]primitive.ObjectID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]primitive.ObjectID, 0, len(t.dirty))
	for id := range t.dirty {
		if max > 0 && len(out) >= max {
			break
		}
		out = append(out, id)
		delete(t.dirty, id)
	}
	return out, nil
}

// RedisTracker stores the dirty set in a Redis set so marks survive restarts
// and are shared across replicas.
type RedisTracker struct {
	client radix.Client
	key    string
}

func NewRedisTracker(client radix.Client) *RedisTracker {
	return &RedisTracker{client: client, key: driftKey}
}

// DialRedis opens a small pool, the same way the seckill services connect.
func DialRedis(addr string) (radix.Client, error) {
	pool, err := radix.NewPool("tcp", addr, 4)
	if err != nil {
		return nil, fmt.Errorf("redis pool: %w", err)
	}
	return pool, nil
}

func (t *RedisTracker) MarkDirty(_ context.Context, productID primitive.ObjectID) error {
	return t.client.Do(radix.Cmd(nil, "SADD", t.key, productID.Hex()))
}

func (t *RedisTracker) Drain(_ context.Context, max int) ([]primitive.ObjectID, error) {
	if max <= 0 {
		max = 100
	}
	var raw []string
	if err := t.client.Do(radix.Cmd(&raw, "SPOP", t.key, strconv.Itoa(max))); err != nil {
		return nil, err
	}
	return parseIDs(raw), nil
}

func parseIDs(raw []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, hex := range raw {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			zap.L().Warn("invalid id in drift set", zap.String("area", "reconcile"), zap.String("value", hex))
			continue
		}
		out = append(out, id)
	}
	return out
}
