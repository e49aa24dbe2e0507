package logging

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Setup builds a zap logger for the given level and format ("json" or
// "console") and installs it behind slog's default logger. The returned func
// flushes buffered entries.
func Setup(service, level, format string) (func(), error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, errors.Wrap(err, "parse log level")
		}
	}

	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build zap logger")
	}

	slog.SetDefault(New(z.Core(), service))
	return func() { _ = z.Sync() }, nil
}

// New wraps a zap core in an slog logger named after the service.
func New(core zapcore.Core, service string) *slog.Logger {
	return slog.New(zapslog.NewHandler(core, zapslog.WithName(service)))
}
