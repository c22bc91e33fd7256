package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	slog *slog.Logger
}

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func NewLogger(levelStr string) *Logger {
	return NewLoggerWithWriter(levelStr, os.Stdout)
}

// NewLoggerWithWriter writes one JSON object per line to w with a lowercase
// "level" and the message under "msg".
func NewLoggerWithWriter(levelStr string, w io.Writer) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(levelStr),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					return slog.String(slog.LevelKey, strings.ToLower(lvl.String()))
				}
			}
			return a
		},
	})
	return &Logger{slog: slog.New(h)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLoggerWithWriter("error", io.Discard)
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{slog: l.slog.With("component", component)}
}

func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{slog: l.slog.With(toArgs(fields)...)}
}

func (l *Logger) Enabled(level string) bool {
	return l.slog.Enabled(context.Background(), parseLevel(level))
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.slog.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.slog.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.slog.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.slog.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Debugw(msg string, fields map[string]any) { l.slog.Debug(msg, toArgs(fields)...) }
func (l *Logger) Infow(msg string, fields map[string]any)  { l.slog.Info(msg, toArgs(fields)...) }
func (l *Logger) Warnw(msg string, fields map[string]any)  { l.slog.Warn(msg, toArgs(fields)...) }
func (l *Logger) Errorw(msg string, fields map[string]any) { l.slog.Error(msg, toArgs(fields)...) }

func toArgs(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
