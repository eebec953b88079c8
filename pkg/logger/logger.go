package logger

import (
	"fmt"

	"github.com/Leopold1975/readlater/internal/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debug(args ...any)
	Debugf(template string, args ...any)
	Info(args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Error(args ...any)
	Errorf(template string, args ...any)
	With(args ...any) Logger
	Sync() error
}

type zapLogger struct {
	*zap.SugaredLogger
}

func New(cfg config.Logger) (Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level error: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableStacktrace = true
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Encoding != "" {
		zcfg.Encoding = cfg.Encoding
	}

	if len(cfg.Output) != 0 {
		zcfg.OutputPaths = cfg.Output
	}

	if len(cfg.ErrOutput) != 0 {
		zcfg.ErrorOutputPaths = cfg.ErrOutput
	}

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger error: %w", err)
	}

	return zapLogger{l.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return zapLogger{zap.NewNop().Sugar()}
}

func (l zapLogger) With(args ...any) Logger {
	return zapLogger{l.SugaredLogger.With(args...)}
}
