package scalareval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with benchmark-specific helpers.
// Field names are consistent across all operations.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
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
		Logger: slog.New(slog.DiscardHandler),
	}
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// NewLoggerFromConfig creates a text or json Logger at the named level.
func NewLoggerFromConfig(level, format string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextLogger(lvl), nil
	case "json":
		return NewJSONLogger(lvl), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithThreads adds a threads field to the logger.
func (l *Logger) WithThreads(threads int) *Logger {
	return &Logger{
		Logger: l.Logger.With("threads", threads),
	}
}

// LogGenerate logs a corpus generation.
func (l *Logger) LogGenerate(ctx context.Context, path string, sets, values int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "generate failed",
			"path", path,
			"sets", sets,
			"values", values,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "corpus generated",
			"path", path,
			"sets", sets,
			"values", values,
			"duration", d,
		)
	}
}

// LogEvaluate logs one evaluation.
func (l *Logger) LogEvaluate(ctx context.Context, r Row, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evaluate failed",
			"sets", r.SetCount,
			"values", r.SetSize,
			"probe", r.ProbeSize,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "evaluate completed",
			"sets", r.SetCount,
			"values", r.SetSize,
			"probe", r.ProbeSize,
			"matches", r.Result.MatchCount,
			"threads", r.Result.ThreadCount,
			"preloaded", r.Result.Preloaded,
			"backend", r.Result.Backend,
			"duration", r.Result.Duration,
		)
	}
}

// LogReport logs a written report.
func (l *Logger) LogReport(ctx context.Context, path string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "report failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "report written",
			"path", path,
			"rows", rows,
		)
	}
}
