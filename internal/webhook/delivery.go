package webhook

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliveryLog remembers delivery ids so replayed deliveries inside the
// timestamp tolerance window can be acknowledged without reprocessing.
// Processing is idempotent regardless; this is load shedding.
type DeliveryLog interface {
	// MarkSeen records the delivery id and reports whether this is the
	// first time it was seen.
	MarkSeen(ctx context.Context, deliveryID string) (bool, error)
}

// RedisDeliveryLog stores seen delivery ids in Redis with a TTL just
// above the signature timestamp tolerance, after which the timestamp
// check rejects the delivery anyway.
type RedisDeliveryLog struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeliveryLog(client *redis.Client, tolerance time.Duration) *RedisDeliveryLog {
	return &RedisDeliveryLog{
		client: client,
		ttl:    tolerance + time.Minute,
	}
}

func deliveryKey(deliveryID string) string {
	return fmt.Sprintf("webhook:delivery:%s", deliveryID)
}

// MarkSeen records the delivery id via SETNX
func (l *RedisDeliveryLog) MarkSeen(ctx context.Context, deliveryID string) (bool, error) {
	first, err := l.client.SetNX(ctx, deliveryKey(deliveryID), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record delivery id: %w", err)
	}
	return first, nil
}

// MemoryDeliveryLog is an in-process DeliveryLog for tests.
type MemoryDeliveryLog struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryDeliveryLog() *MemoryDeliveryLog {
	return &MemoryDeliveryLog{seen: make(map[string]struct{})}
}

func (l *MemoryDeliveryLog) MarkSeen(_ context.Context, deliveryID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[deliveryID]; ok {
		return false, nil
	}
	l.seen[deliveryID] = struct{}{}
	return true, nil
}
