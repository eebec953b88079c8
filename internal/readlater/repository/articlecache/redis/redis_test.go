package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/Leopold1975/readlater/internal/readlater/repository/articlecache"
	acredis "github.com/Leopold1975/readlater/internal/readlater/repository/articlecache/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const owner = 7

func TestArticleCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	c := acredis.New(rdb, time.Minute)

	_, err := c.GetArticle(ctx, owner, 1)
	require.ErrorIs(t, err, articlecache.ErrNotFound)

	a := models.Article{ID: 1, Title: "A", Content: "<p>a</p>", Tags: []models.Tag{{ID: 4, Name: "x"}}}
	require.NoError(t, c.SetArticle(ctx, owner, a))
	require.NoError(t, c.SetArticle(ctx, owner, models.Article{ID: 2, Title: "B"}))
	require.True(t, mr.Exists("readlater:article:7:1"))

	got, err := c.GetArticle(ctx, owner, 1)
	require.NoError(t, err)
	require.Equal(t, a.Title, got.Title)
	require.Equal(t, a.Content, got.Content)
	require.Equal(t, a.Tags, got.Tags)

	mr.FastForward(2 * time.Minute)

	_, err = c.GetArticle(ctx, owner, 1)
	require.ErrorIs(t, err, articlecache.ErrNotFound)

	require.NoError(t, c.SetArticle(ctx, owner, a))
	require.NoError(t, c.DeleteArticle(ctx, owner, 1))

	_, err = c.GetArticle(ctx, owner, 1)
	require.ErrorIs(t, err, articlecache.ErrNotFound)

	require.NoError(t, c.SetArticle(ctx, owner, a))
	require.NoError(t, rdb.Set(ctx, "unrelated", "v", 0).Err())
	require.NoError(t, c.Purge(ctx))
	require.False(t, mr.Exists("readlater:article:7:1"))
	require.True(t, mr.Exists("unrelated"))
}

func TestArticleCacheIsScopedByOwner(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	c := acredis.New(rdb, time.Minute)

	require.NoError(t, c.SetArticle(ctx, owner, models.Article{ID: 1, Title: "private"}))

	_, err := c.GetArticle(ctx, owner+1, 1)
	require.ErrorIs(t, err, articlecache.ErrNotFound)

	require.NoError(t, c.DeleteArticle(ctx, owner+1, 1))

	_, err = c.GetArticle(ctx, owner, 1)
	require.NoError(t, err)
}
