// Package mockserver is an in-memory stand-in for the read-it-later REST
// API. It answers every endpoint the client uses with the same payloads and
// status codes as the real service, which makes it suitable for local
// development and tests. Nothing is persisted.
package mockserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Leopold1975/readlater/internal/pkg/config"
	"github.com/Leopold1975/readlater/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	serv      *http.Server
	cfg       config.Mock
	store     *memStore
	extract   Extractor
	imageHost []string
	lg        logger.Logger
}

type Option func(*Server)

// WithExtractor replaces the readability based extractor.
func WithExtractor(e Extractor) Option {
	return func(s *Server) {
		s.extract = e
	}
}

// WithClock replaces the time source used for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.store.now = now
	}
}

// WithProxyHosts sets the image hosts the proxy endpoint will fetch from.
func WithProxyHosts(hosts []string) Option {
	return func(s *Server) {
		s.imageHost = hosts
	}
}

func New(cfg config.Mock, lg logger.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		store:   newMemStore(),
		extract: ReadabilityExtractor(cfg.WriteTimeout),
		lg:      lg,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.serv = &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware(s.lg), corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.Register)
		r.Post("/auth/login", s.Login)
		r.Get("/proxy/image", s.ProxyImage)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/user/profile", s.GetProfile)

			r.Get("/articles", s.GetArticles)
			r.Post("/articles", s.AddArticle)
			r.Get("/articles/search", s.SearchArticles)
			r.Get("/articles/{id}", s.GetArticle)
			r.Delete("/articles/{id}", s.DeleteArticle)
			r.Post("/articles/{id}/tags", s.AddTagToArticle)
			r.Delete("/articles/{id}/tags/{tagId}", s.RemoveTagFromArticle)

			r.Get("/tags", s.GetTags)
			r.Get("/tags/{name}/articles", s.GetArticlesByTag)
		})
	})

	return r
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctx.Err(), err)
		}

		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}

		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.serv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	return nil
}
