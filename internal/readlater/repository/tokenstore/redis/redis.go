package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/readlater/internal/readlater/repository/tokenstore"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "readlater:storage:"

// Store keeps the session values in redis so several terminals or hosts
// can share one login.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) Store {
	return Store{rdb: rdb}
}

func (s Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", tokenstore.ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("get error: %w", err)
	}

	return v, nil
}

func (s Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("set error: %w", err)
	}

	return nil
}

func (s Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("del error: %w", err)
	}

	return nil
}
