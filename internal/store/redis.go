package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"socialflow/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisPersistence stores the whole collection as a JSON blob under a single
// key, the server-side analog of the original client's key-value storage.
type RedisPersistence struct {
	rdb *redis.Client
	key string
}

// NewRedisPersistence returns a Persistence writing to the given client.
// An empty key falls back to BlobKey.
func NewRedisPersistence(rdb *redis.Client, key string) *RedisPersistence {
	if key == "" {
		key = BlobKey
	}
	return &RedisPersistence{rdb: rdb, key: key}
}

// Load implements Persistence. A missing key is an empty collection.
func (r *RedisPersistence) Load(ctx context.Context) ([]models.Post, error) {
	blob, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	var posts []models.Post
	if err := json.Unmarshal(blob, &posts); err != nil {
		return nil, fmt.Errorf("decode posts blob: %w", err)
	}
	return posts, nil
}

// Save implements Persistence.
func (r *RedisPersistence) Save(ctx context.Context, posts []models.Post) error {
	blob, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode posts blob: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
