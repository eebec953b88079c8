package memory

import (
	"context"
	"time"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/Leopold1975/readlater/internal/readlater/repository/articlecache"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type entryKey struct {
	userID    int
	articleID int
}

// ArticleCache is a size bounded LRU whose entries also expire after ttl.
// Entries are keyed by owner and article id.
type ArticleCache struct {
	lru *expirable.LRU[entryKey, models.Article]
}

func New(size int, ttl time.Duration) ArticleCache {
	return ArticleCache{
		lru: expirable.NewLRU[entryKey, models.Article](size, nil, ttl),
	}
}

func (ac ArticleCache) GetArticle(_ context.Context, userID, id int) (models.Article, error) {
	a, ok := ac.lru.Get(entryKey{userID: userID, articleID: id})
	if !ok {
		return models.Article{}, articlecache.ErrNotFound
	}

	return a.Clone(), nil
}

func (ac ArticleCache) SetArticle(_ context.Context, userID int, a models.Article) error {
	ac.lru.Add(entryKey{userID: userID, articleID: a.ID}, a.Clone())

	return nil
}

func (ac ArticleCache) DeleteArticle(_ context.Context, userID, id int) error {
	ac.lru.Remove(entryKey{userID: userID, articleID: id})

	return nil
}

func (ac ArticleCache) Purge(context.Context) error {
	ac.lru.Purge()

	return nil
}
