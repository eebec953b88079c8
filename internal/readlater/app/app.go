package app

import (
	"context"
	"fmt"

	"github.com/Leopold1975/readlater/internal/pkg/config"
	"github.com/Leopold1975/readlater/internal/pkg/redistools"
	"github.com/Leopold1975/readlater/internal/readlater/api/client"
	"github.com/Leopold1975/readlater/internal/readlater/repository/articlecache"
	"github.com/Leopold1975/readlater/internal/readlater/repository/articlecache/memory"
	cacheredis "github.com/Leopold1975/readlater/internal/readlater/repository/articlecache/redis"
	"github.com/Leopold1975/readlater/internal/readlater/repository/tokenstore"
	"github.com/Leopold1975/readlater/internal/readlater/repository/tokenstore/file"
	storeredis "github.com/Leopold1975/readlater/internal/readlater/repository/tokenstore/redis"
	"github.com/Leopold1975/readlater/internal/readlater/services/articleservice"
	"github.com/Leopold1975/readlater/internal/readlater/services/authservice"
	"github.com/Leopold1975/readlater/internal/readlater/session"
	"github.com/Leopold1975/readlater/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ReadLaterApp holds the client side of the application, wired from config.
type ReadLaterApp struct {
	Client   *client.Client
	Session  *session.Session
	Auth     *authservice.AuthService
	Articles *articleservice.ArticleService

	lg  logger.Logger
	cfg config.Config
	rdb *redis.Client
}

type Option func(*options)

type options struct {
	lg      logger.Logger
	clientO []client.Option
}

// WithLogger replaces the logger built from config.Logger.
func WithLogger(lg logger.Logger) Option {
	return func(o *options) { o.lg = lg }
}

func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) { o.clientO = append(o.clientO, opts...) }
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*ReadLaterApp, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	lg := o.lg
	if lg == nil {
		var err error

		lg, err = logger.New(cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("can't get logger error: %w", err)
		}
	}

	a := &ReadLaterApp{lg: lg, cfg: cfg} //nolint:exhaustruct

	store, err := a.tokenStore(ctx)
	if err != nil {
		a.Close()

		return nil, fmt.Errorf("token store initializing error: %w", err)
	}

	a.Session = session.New(store, cfg.Session.Key)
	if err := a.Session.Load(ctx); err != nil {
		a.Close()

		return nil, fmt.Errorf("session loading error: %w", err)
	}

	a.Client, err = client.New(cfg.Client, lg, o.clientO...)
	if err != nil {
		a.Close()

		return nil, fmt.Errorf("api client initializing error: %w", err)
	}

	cache, err := a.articleCache(ctx)
	if err != nil {
		a.Close()

		return nil, fmt.Errorf("article cache initializing error: %w", err)
	}

	a.Auth = authservice.New(a.Client, a.Session, lg)
	a.Articles = articleservice.New(a.Client, a.Session, cache, a.Auth, lg)
	a.Auth.OnSignOut(a.Articles.Reset)

	return a, nil
}

func (a *ReadLaterApp) Logger() logger.Logger {
	return a.lg
}

func (a *ReadLaterApp) Config() config.Config {
	return a.cfg
}

// Watch keeps the article list fresh until ctx is done.
func (a *ReadLaterApp) Watch(ctx context.Context) {
	a.Articles.BackgroundRefresh(ctx, a.cfg.Client.RefreshInterval)
}

func (a *ReadLaterApp) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.lg.Errorf("redis close error: %s", err.Error())
		}
	}

	_ = a.lg.Sync()
}

func (a *ReadLaterApp) tokenStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.Session.Store {
	case "file", "":
		return file.New(a.cfg.Session.Path)
	case "memory":
		return tokenstore.NewMemory(), nil
	case "redis":
		rdb, err := a.redis(ctx)
		if err != nil {
			return nil, err
		}

		return storeredis.New(rdb), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", a.cfg.Session.Store)
	}
}

func (a *ReadLaterApp) articleCache(ctx context.Context) (articleservice.Cache, error) {
	switch a.cfg.Cache.Backend {
	case "memory", "":
		return memory.New(a.cfg.Cache.Size, a.cfg.Cache.TTL), nil
	case "none":
		return articlecache.Nop{}, nil
	case "redis":
		rdb, err := a.redis(ctx)
		if err != nil {
			return nil, err
		}

		return cacheredis.New(rdb, a.cfg.RedisCache.ExpTime), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", a.cfg.Cache.Backend)
	}
}

// redis connects on first use and is shared by the token store and the cache.
func (a *ReadLaterApp) redis(ctx context.Context) (*redis.Client, error) {
	if a.rdb != nil {
		return a.rdb, nil
	}

	rdb, err := redistools.New(ctx, a.cfg.RedisCache)
	if err != nil {
		return nil, fmt.Errorf("redis connect error: %w", err)
	}

	a.rdb = rdb

	return rdb, nil
}
