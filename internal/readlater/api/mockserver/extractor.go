package mockserver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/go-shiori/go-readability"
)

// Extractor turns a URL into an article with title, excerpt and content.
type Extractor func(ctx context.Context, rawURL string) (models.Article, error)

// ReadabilityExtractor downloads the page and runs it through readability.
func ReadabilityExtractor(timeout time.Duration) Extractor {
	hc := &http.Client{Timeout: timeout} //nolint:exhaustruct

	return func(ctx context.Context, rawURL string) (models.Article, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return models.Article{}, fmt.Errorf("parse url error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return models.Article{}, fmt.Errorf("new request error: %w", err)
		}

		resp, err := hc.Do(req)
		if err != nil {
			return models.Article{}, fmt.Errorf("fetch error: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return models.Article{}, fmt.Errorf("fetch error: status %d", resp.StatusCode) //nolint:goerr113
		}

		article, err := readability.FromReader(resp.Body, u)
		if err != nil {
			return models.Article{}, fmt.Errorf("readability error: %w", err)
		}

		title := article.Title
		if title == "" {
			title = rawURL
		}

		return models.Article{
			URL:      rawURL,
			Title:    title,
			Excerpt:  article.Excerpt,
			Content:  article.Content,
			ImageURL: article.Image,
		}, nil
	}
}
