package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/Leopold1975/readlater/internal/readlater/session"
	"github.com/oapi-codegen/runtime"
)

// pathParam renders v as a single path segment.
func pathParam(name string, v any) (string, error) {
	p, err := runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, v)
	if err != nil {
		return "", validationError("invalid %s: %s", name, err.Error())
	}

	return p, nil
}

// ListArticles returns every article of the signed-in user, newest first.
func (c *Client) ListArticles(ctx context.Context, sess *session.Session) ([]models.Article, error) {
	var articles []models.Article

	err := c.do(ctx, sess, request{
		method: http.MethodGet,
		path:   "/api/articles",
		out:    &articles,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}

	return nonNil(articles), nil
}

func (c *Client) GetArticle(ctx context.Context, sess *session.Session, id int) (models.Article, error) {
	p, err := pathParam("id", id)
	if err != nil {
		return models.Article{}, err
	}

	var a models.Article

	err = c.do(ctx, sess, request{
		method: http.MethodGet,
		path:   "/api/articles/" + p,
		out:    &a,
		auth:   true,
	})
	if err != nil {
		return models.Article{}, err
	}

	return a, nil
}

// CreateArticle asks the server to fetch and save rawURL.
func (c *Client) CreateArticle(ctx context.Context, sess *session.Session, rawURL string) (models.Article, error) {
	rawURL = strings.TrimSpace(rawURL)

	if err := ValidateArticleURL(rawURL); err != nil {
		return models.Article{}, err
	}

	var a models.Article

	err := c.do(ctx, sess, request{
		method: http.MethodPost,
		path:   "/api/articles",
		body:   models.CreateArticleRequest{URL: rawURL},
		out:    &a,
		auth:   true,
	})
	if err != nil {
		return models.Article{}, err
	}

	return a, nil
}

func (c *Client) DeleteArticle(ctx context.Context, sess *session.Session, id int) error {
	p, err := pathParam("id", id)
	if err != nil {
		return err
	}

	return c.do(ctx, sess, request{
		method: http.MethodDelete,
		path:   "/api/articles/" + p,
		auth:   true,
	})
}

// AddTag attaches the tag called name to the article, creating the tag on
// first use. Duplicate names are left for the server to resolve.
func (c *Client) AddTag(ctx context.Context, sess *session.Session, articleID int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationError("tag name is required")
	}

	p, err := pathParam("id", articleID)
	if err != nil {
		return err
	}

	return c.do(ctx, sess, request{
		method: http.MethodPost,
		path:   "/api/articles/" + p + "/tags",
		body:   models.AddTagRequest{TagName: name},
		auth:   true,
	})
}

func (c *Client) RemoveTag(ctx context.Context, sess *session.Session, articleID, tagID int) error {
	ap, err := pathParam("id", articleID)
	if err != nil {
		return err
	}

	tp, err := pathParam("tagId", tagID)
	if err != nil {
		return err
	}

	return c.do(ctx, sess, request{
		method: http.MethodDelete,
		path:   "/api/articles/" + ap + "/tags/" + tp,
		auth:   true,
	})
}

// Search matches query against article titles or tag names, depending on kind.
func (c *Client) Search(ctx context.Context, sess *session.Session, query string,
	kind models.SearchKind,
) ([]models.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validationError("search query is required")
	}

	q := url.Values{}

	switch kind {
	case models.SearchByTitle:
		q.Set("q", query)
	case models.SearchByTag:
		q.Set("tag", query)
	default:
		return nil, validationError("unknown search kind %q", string(kind))
	}

	var articles []models.Article

	err := c.do(ctx, sess, request{
		method: http.MethodGet,
		path:   "/api/articles/search",
		query:  q,
		out:    &articles,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}

	return nonNil(articles), nil
}

func (c *Client) ListTags(ctx context.Context, sess *session.Session) ([]models.Tag, error) {
	var tags []models.Tag

	err := c.do(ctx, sess, request{
		method: http.MethodGet,
		path:   "/api/tags",
		out:    &tags,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []models.Tag{}
	}

	return tags, nil
}

func (c *Client) ArticlesByTag(ctx context.Context, sess *session.Session, name string) ([]models.Article, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("tag name is required")
	}

	p, err := pathParam("name", name)
	if err != nil {
		return nil, err
	}

	var articles []models.Article

	err = c.do(ctx, sess, request{
		method: http.MethodGet,
		path:   "/api/tags/" + p + "/articles",
		out:    &articles,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}

	return nonNil(articles), nil
}

// ValidateArticleURL accepts absolute http(s) URLs with a host.
func ValidateArticleURL(rawURL string) error {
	if rawURL == "" {
		return validationError("url is required")
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validationError("invalid url %q", rawURL)
	}

	return nil
}

// the service answers null for an empty list
func nonNil(articles []models.Article) []models.Article {
	if articles == nil {
		return []models.Article{}
	}

	return articles
}
