package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON production logger, or a console logger when dev is set.
func New(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	config := zap.NewProductionConfig()
	if dev {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	return config.Build()
}

// Must is New for main packages; a bad level falls back to info.
func Must(level string, dev bool) *zap.Logger {
	log, err := New(level, dev)
	if err == nil {
		return log
	}
	log, err = New("info", dev)
	if err != nil {
		panic(err)
	}
	log.Warn("unknown log level, using info", zap.String("level", level))
	return log
}
