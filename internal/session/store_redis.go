package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis under "<prefix>:<id>" with the
// session TTL as key expiry.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }

func (s *RedisStore) Save(ctx context.Context, id string, ident Identity, ttl time.Duration) error {
	b, err := json.Marshal(ident)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(id), b, ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) (Identity, error) {
	b, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, err
	}
	var ident Identity
	if err := json.Unmarshal(b, &ident); err != nil {
		return Identity{}, err
	}
	return ident, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.key(id)).Err()
}
