package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/user/elpisexchange/backend/internal/snapshot"
)

const redisKeyPrefix = "elpis:snapshot:"

// Compile-time check to ensure RedisStore implements snapshot.Store
var _ snapshot.Store = (*RedisStore)(nil)

// RedisStore keeps the document as one string value.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: redisKeyPrefix + key}
}

func (r *RedisStore) Load(ctx context.Context) (*snapshot.Document, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: redis get %s: %v", snapshot.ErrTransient, r.key, err)
	}
	doc, err := snapshot.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", snapshot.ErrTransient, err)
	}
	return doc, nil
}

func (r *RedisStore) Save(ctx context.Context, doc *snapshot.Document) error {
	raw, err := snapshot.Encode(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", snapshot.ErrTransient, err)
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %v", snapshot.ErrTransient, r.key, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
