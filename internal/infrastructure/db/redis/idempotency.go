package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore reserves request keys with SET NX so that concurrent
// duplicates on any instance see the same reservation.
// Key format: idem:<scope>:<key>
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Reserve returns true when the key was free and is now held for ttl.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(scope, key), time.Now().UTC().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return ok, nil
}

// Release drops a reservation so a failed request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
