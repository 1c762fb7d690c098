// Package observability owns the process loggers. CLI commands get console
// output; the job server gets structured JSON on stderr.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// CLILogger is used by CLI commands.
	CLILogger *zap.Logger

	// ServerLogger is used by the job server.
	ServerLogger *zap.Logger
)

// InitCLILogger initializes the CLI logger. Verbose switches the level to
// debug.
func InitCLILogger(verbose bool) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	CLILogger = logger
}

// InitServerLogger initializes the structured server logger.
func InitServerLogger(level string) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	ServerLogger = logger
}

// ParseLevel converts a config level string to a zap level, defaulting to
// info on anything unrecognized.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
