// Package mockapp runs the in-memory API server for local development. It
// lives apart from app so the client binary does not link the server.
package mockapp

import (
	"context"
	"fmt"

	"github.com/Leopold1975/readlater/internal/pkg/config"
	"github.com/Leopold1975/readlater/internal/readlater/api/mockserver"
	"github.com/Leopold1975/readlater/pkg/logger"
)

// Server blocks serving until ctx is done and shuts itself down.
type Server interface {
	Start(ctx context.Context) error
}

type MockApp struct {
	s   Server
	lg  logger.Logger
	cfg config.Config
}

type Option func(*MockApp)

// WithLogger replaces the logger built from config.Logger.
func WithLogger(lg logger.Logger) Option {
	return func(ma *MockApp) { ma.lg = lg }
}

func New(cfg config.Config, opts ...Option) (*MockApp, error) {
	ma := &MockApp{cfg: cfg} //nolint:exhaustruct
	for _, opt := range opts {
		opt(ma)
	}

	if ma.lg == nil {
		lg, err := logger.New(cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("can't get logger error: %w", err)
		}

		ma.lg = lg
	}

	ma.s = mockserver.New(cfg.Mock, ma.lg,
		mockserver.WithExtractor(mockserver.ReadabilityExtractor(cfg.Client.Timeout)),
		mockserver.WithProxyHosts(cfg.Client.ProxyImageHosts),
	)

	return ma, nil
}

// Run serves until ctx is done. Shutdown happens once, inside Start.
func (ma *MockApp) Run(ctx context.Context) error {
	ma.lg.Infof("STARTED MOCK SERVER ON %s", ma.cfg.Mock.Addr)

	if err := ma.s.Start(ctx); err != nil {
		ma.lg.Errorf("server error: %s", err.Error())

		return fmt.Errorf("mock server error: %w", err)
	}

	ma.lg.Info("Shutdowned successfully")

	_ = ma.lg.Sync()

	return nil
}
