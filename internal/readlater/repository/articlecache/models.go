package articlecache

import (
	"context"
	"errors"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
)

var ErrNotFound = errors.New("article not cached")

// Nop never holds anything. It is used when caching is disabled.
type Nop struct{}

func (Nop) GetArticle(context.Context, int, int) (models.Article, error) {
	return models.Article{}, ErrNotFound
}

func (Nop) SetArticle(context.Context, int, models.Article) error { return nil }

func (Nop) DeleteArticle(context.Context, int, int) error { return nil }

func (Nop) Purge(context.Context) error { return nil }
