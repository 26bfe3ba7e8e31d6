// Package logging provides zap logger helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newConfig returns the zap configuration for the requested mode.
// Development renders colored console lines for humans watching a build;
// production emits JSON with ISO8601 timestamps. Sampling stays off in both
// modes so the periodic progress lines are never dropped.
func newConfig(development bool) zap.Config {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	logger, err := newConfig(development).Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
