package app_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Leopold1975/readlater/internal/pkg/config"
	"github.com/Leopold1975/readlater/internal/readlater/api/mockserver"
	"github.com/Leopold1975/readlater/internal/readlater/app"
	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/Leopold1975/readlater/internal/readlater/services/authservice"
	"github.com/Leopold1975/readlater/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func extract(_ context.Context, rawURL string) (models.Article, error) {
	return models.Article{Title: "Page " + rawURL, Content: "<p>body</p>"}, nil
}

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()

	return config.Config{ //nolint:exhaustruct
		Client: config.Client{BaseURL: baseURL, Timeout: time.Second, RefreshInterval: time.Minute},
		Session: config.Session{
			Store: "file",
			Path:  filepath.Join(t.TempDir(), "storage.json"),
			Key:   "auth_token",
		},
		Cache: config.Cache{Backend: "memory", Size: 8, TTL: time.Minute},
	}
}

func startMock(t *testing.T) *httptest.Server {
	t.Helper()

	ms := mockserver.New(config.Mock{Secret: "s", TTL: time.Hour}, logger.NewNop(), mockserver.WithExtractor(extract))
	srv := httptest.NewServer(ms.Handler())
	t.Cleanup(srv.Close)

	return srv
}

func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	srv := startMock(t)
	cfg := testConfig(t, srv.URL)

	a, err := app.New(ctx, cfg, app.WithLogger(logger.NewNop()))
	require.NoError(t, err)

	require.NoError(t, a.Auth.Register(ctx, "ann", "ann@example.com", "pw"))
	_, err = a.Articles.Save(ctx, "https://example.com/a")
	require.NoError(t, err)
	a.Close()

	b, err := app.New(ctx, cfg, app.WithLogger(logger.NewNop()))
	require.NoError(t, err)
	defer b.Close()

	b.Auth.Check(ctx)
	require.Equal(t, authservice.StatusAuthenticated, b.Auth.State().Status)

	require.NoError(t, b.Articles.Refresh(ctx))
	require.Len(t, b.Articles.Snapshot().Articles, 1)

	require.NoError(t, b.Auth.Logout(ctx))
	require.Empty(t, b.Articles.Snapshot().Articles)

	c, err := app.New(ctx, cfg, app.WithLogger(logger.NewNop()))
	require.NoError(t, err)
	defer c.Close()

	c.Auth.Check(ctx)
	require.Equal(t, authservice.StatusAnonymous, c.Auth.State().Status)
}

func TestRedisBackends(t *testing.T) {
	ctx := context.Background()
	srv := startMock(t)
	mr := miniredis.RunT(t)

	cfg := testConfig(t, srv.URL)
	cfg.Session.Store = "redis"
	cfg.Cache.Backend = "redis"
	cfg.RedisCache = config.RedisCache{Addr: mr.Addr(), ExpTime: time.Minute} //nolint:exhaustruct

	a, err := app.New(ctx, cfg, app.WithLogger(logger.NewNop()))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Auth.Register(ctx, "ann", "ann@example.com", "pw"))
	require.True(t, mr.Exists("readlater:storage:auth_token"))

	saved, err := a.Articles.Save(ctx, "https://example.com/a")
	require.NoError(t, err)

	_, err = a.Articles.View(ctx, saved.ID)
	require.NoError(t, err)
	require.NotEmpty(t, mr.Keys())
}

func TestUnknownBackends(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t, "http://localhost:1")
	cfg.Session.Store = "cookie"

	_, err := app.New(ctx, cfg, app.WithLogger(logger.NewNop()))
	require.Error(t, err)

	cfg = testConfig(t, "http://localhost:1")
	cfg.Cache.Backend = "memcached"

	_, err = app.New(ctx, cfg, app.WithLogger(logger.NewNop()))
	require.Error(t, err)

	cfg = testConfig(t, "localhost:1")

	_, err = app.New(ctx, cfg, app.WithLogger(logger.NewNop()))
	require.Error(t, err)
}
