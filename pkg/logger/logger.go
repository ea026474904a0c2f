// Package logger wires the zap logger used across tracegen.
package logger

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/logflow/tracegen/pkg/config"
)

type contextKey string

const loggerKey = contextKey("logger")

var globalLogger *zap.SugaredLogger

// Init initializes the global logger. Output goes to stderr unless a log
// path is configured, in which case it is rotated by lumberjack.
func Init(cfg config.LoggingConfig) error {
	writeSyncer := zapcore.AddSync(os.Stderr)

	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return err
		}
		writeSyncer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return err
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewCore(encoder, writeSyncer, level)
	globalLogger = zap.New(core, zap.AddCaller()).Sugar()
	return nil
}

// Sync flushes any buffered log entries.
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// Get returns the logger from context, the global logger, or a no-op logger
// when Init was never called.
func Get(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok {
			return l
		}
	}
	if globalLogger == nil {
		return zap.NewNop().Sugar()
	}
	return globalLogger
}

// WithContext adds logger to context.
func WithContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}
