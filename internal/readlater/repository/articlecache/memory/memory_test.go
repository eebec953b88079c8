package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/Leopold1975/readlater/internal/readlater/repository/articlecache"
	"github.com/Leopold1975/readlater/internal/readlater/repository/articlecache/memory"
	"github.com/stretchr/testify/require"
)

const owner = 3

func TestArticleCache(t *testing.T) {
	ctx := context.Background()
	c := memory.New(2, time.Minute)

	_, err := c.GetArticle(ctx, owner, 1)
	require.ErrorIs(t, err, articlecache.ErrNotFound)

	a := models.Article{ID: 1, Title: "A", Tags: []models.Tag{{ID: 1, Name: "x"}}}
	require.NoError(t, c.SetArticle(ctx, owner, a))

	// mutating the caller's copy must not leak into the cache
	a.Tags[0].Name = "changed"

	got, err := c.GetArticle(ctx, owner, 1)
	require.NoError(t, err)
	require.Equal(t, "x", got.Tags[0].Name)

	require.NoError(t, c.SetArticle(ctx, owner, models.Article{ID: 2}))
	require.NoError(t, c.SetArticle(ctx, owner, models.Article{ID: 3}))

	_, err = c.GetArticle(ctx, owner, 1)
	require.ErrorIs(t, err, articlecache.ErrNotFound, "least recently used entry evicted")

	require.NoError(t, c.DeleteArticle(ctx, owner, 2))

	_, err = c.GetArticle(ctx, owner, 2)
	require.ErrorIs(t, err, articlecache.ErrNotFound)

	require.NoError(t, c.Purge(ctx))

	_, err = c.GetArticle(ctx, owner, 3)
	require.ErrorIs(t, err, articlecache.ErrNotFound)
}

func TestArticleCacheIsScopedByOwner(t *testing.T) {
	ctx := context.Background()
	c := memory.New(10, time.Minute)

	require.NoError(t, c.SetArticle(ctx, owner, models.Article{ID: 1, Title: "private"}))

	_, err := c.GetArticle(ctx, owner+1, 1)
	require.ErrorIs(t, err, articlecache.ErrNotFound)
}

func TestArticleCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := memory.New(10, 20*time.Millisecond)

	require.NoError(t, c.SetArticle(ctx, owner, models.Article{ID: 1}))

	require.Eventually(t, func() bool {
		_, err := c.GetArticle(ctx, owner, 1)

		return err != nil
	}, time.Second, 10*time.Millisecond)
}
