package main

import (
	"fmt"
	stdslog "log/slog"
	"os"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/internal/config"
	entitylogrus "github.com/unkn0wn-root/entitycache/log/logrus"
	entityslog "github.com/unkn0wn-root/entitycache/log/slog"
	entityzap "github.com/unkn0wn-root/entitycache/log/zap"
	entityzerolog "github.com/unkn0wn-root/entitycache/log/zerolog"
)

// newLogger returns the adapter for cfg.Backend and a flush func.
func newLogger(cfg config.Log) (entitycache.Logger, func(), error) {
	switch cfg.Backend {
	case "zap":
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(lvl)
		zl, err := zc.Build()
		if err != nil {
			return nil, nil, err
		}
		return entityzap.New(zl), func() { _ = zl.Sync() }, nil
	case "logrus":
		lvl, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		l := logrus.New()
		l.SetLevel(lvl)
		l.SetFormatter(&logrus.JSONFormatter{})
		return entitylogrus.New(l), func() {}, nil
	case "zerolog":
		lvl, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		zl := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
		return entityzerolog.New(zl), func() {}, nil
	case "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, err
		}
		h := stdslog.NewJSONHandler(os.Stderr, &stdslog.HandlerOptions{Level: lvl})
		return entityslog.New(stdslog.New(h)), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
}
