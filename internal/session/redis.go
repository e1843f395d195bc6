package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of Store. Sessions are stored
// with a TTL so Redis expires them server-side; Get still checks
// ExpiresAt for clock-skew safety.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "session:",
	}
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.client.Get(ctx, r.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, err
	}

	if time.Now().After(sess.ExpiresAt) {
		_ = r.client.Del(ctx, r.prefix+id).Err()

		return nil, ErrNotFound
	}

	return &sess, nil
}

func (r *RedisStore) Put(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	return r.client.Set(ctx, r.prefix+sess.ID, raw, ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}

// Compile-time check.
var _ Store = (*RedisStore)(nil)
