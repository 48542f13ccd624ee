// Package logging builds the structured logger shared by every binary.
// The teacher logs with bare log.Printf (internal/api/middleware.go); we
// use zap's production config instead so shard id, replica address, and
// latency fields are queryable rather than string-formatted.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger for a named component (e.g. "shardnode",
// "livenode", "searchd"). In debug mode it logs human-readable console
// output; otherwise JSON, the shape an aggregator expects.
func New(component string, debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("component", component)), nil
}

// Noop returns a logger that discards everything, for tests.
func Noop() *zap.Logger {
	return zap.NewNop()
}
