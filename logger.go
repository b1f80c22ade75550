package volseg

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/volseg/lattice"
)

// Logger wraps slog.Logger with volseg-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(1000),
		})),
	}
}

// WithSegment adds a segment field to the logger.
func (l *Logger) WithSegment(id uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("segment", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogBuild logs engine construction.
func (l *Logger) LogBuild(ctx context.Context, dims [3]int, sets, segments int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"dims", dims,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "engine built",
			"dims", dims,
			"sets", sets,
			"segments", segments,
		)
	}
}

// LogBoundingBoxes logs a bounding box scan.
func (l *Logger) LogBoundingBoxes(ctx context.Context, segments int, elapsed time.Duration) {
	l.DebugContext(ctx, "bounding boxes computed",
		"segments", segments,
		"elapsed", elapsed,
	)
}

// LogExtract logs a segment extraction.
func (l *Logger) LogExtract(ctx context.Context, id uint32, crop lattice.Box, ones int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "extract failed",
			"segment", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "extract completed",
			"segment", id,
			"crop", crop.String(),
			"voxels", ones,
		)
	}
}

// LogPersist logs a volume written to a blob store.
func (l *Logger) LogPersist(ctx context.Context, id uint32, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "persist failed",
			"segment", id,
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "volume persisted",
			"segment", id,
			"name", name,
			"bytes", size,
		)
	}
}
