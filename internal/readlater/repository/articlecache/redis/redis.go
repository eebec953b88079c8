package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/Leopold1975/readlater/internal/readlater/repository/articlecache"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "readlater:article:"

// ArticleCache stores article details as JSON, one key per owner and
// article id.
type ArticleCache struct {
	rdb     *redis.Client
	expTime time.Duration
}

func New(rdb *redis.Client, expTime time.Duration) ArticleCache {
	return ArticleCache{
		rdb:     rdb,
		expTime: expTime,
	}
}

func key(userID, id int) string {
	return fmt.Sprintf("%s%d:%d", keyPrefix, userID, id)
}

func (ac ArticleCache) SetArticle(ctx context.Context, userID int, a models.Article) error {
	articleJSON, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := ac.rdb.Set(ctx, key(userID, a.ID), articleJSON, ac.expTime).Err(); err != nil {
		return fmt.Errorf("set error: %w", err)
	}

	return nil
}

func (ac ArticleCache) GetArticle(ctx context.Context, userID, id int) (models.Article, error) {
	articleJSON, err := ac.rdb.Get(ctx, key(userID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Article{}, articlecache.ErrNotFound
	} else if err != nil {
		return models.Article{}, fmt.Errorf("get error: %w", err)
	}

	var a models.Article

	if err := json.Unmarshal(articleJSON, &a); err != nil {
		return models.Article{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return a, nil
}

func (ac ArticleCache) DeleteArticle(ctx context.Context, userID, id int) error {
	if err := ac.rdb.Del(ctx, key(userID, id)).Err(); err != nil {
		return fmt.Errorf("del error: %w", err)
	}

	return nil
}

// Purge drops every cached article of every user.
func (ac ArticleCache) Purge(ctx context.Context) error {
	iter := ac.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()

	for iter.Next(ctx) {
		if err := ac.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("del error: %w", err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan error: %w", err)
	}

	return nil
}
