package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	config "github.com/chineduopara/coursepay/configs"
)

var Redis *redis.Client

func ConnectRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr:     config.ConfigOr("REDIS_ADDR", "localhost:6379"),
		Password: config.Config("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := Redis.Ping(ctx).Result(); err != nil {
		log.Fatalf("🔥 Failed to connect to Redis: %v", err)
	}

	log.Println("✅ Redis connected successfully")
}

// MarkEventSeen claims a webhook delivery key across all process
// instances. Returns true the first time a key is seen within the TTL.
// Best effort: the ledger's terminal-status check remains the
// authoritative replay guard.
func MarkEventSeen(ctx context.Context, gateway, eventKey string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("webhook:seen:%s:%s", gateway, eventKey)
	return Redis.SetNX(ctx, key, 1, ttl).Result()
}

// IncrementSourceCounter counts webhook deliveries per gateway within a
// window, shared across instances, so the handler can defer floods.
func IncrementSourceCounter(ctx context.Context, gateway string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("webhook:rate:%s", gateway)
	n, err := Redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		Redis.Expire(ctx, key, window)
	}
	return n, nil
}

// WebhookStore adapts the package-level cache operations into a value the
// webhook handler takes as a dependency.
type WebhookStore struct{}

func (WebhookStore) MarkEventSeen(ctx context.Context, gateway, eventKey string, ttl time.Duration) (bool, error) {
	return MarkEventSeen(ctx, gateway, eventKey, ttl)
}

func (WebhookStore) IncrementSourceCounter(ctx context.Context, gateway string, window time.Duration) (int64, error) {
	return IncrementSourceCounter(ctx, gateway, window)
}
