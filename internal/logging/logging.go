// Package logging provides the structured logger used across wal-archiver.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger takes a message followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

// Options configure New.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output io.Writer
}

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	z zerolog.Logger
}

// New builds a zerolog backed logger.
func New(opts Options) *ZeroLogger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	z := zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()

	return &ZeroLogger{z: z}
}

// Nop discards everything.
func Nop() *ZeroLogger {
	return &ZeroLogger{z: zerolog.Nop()}
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZeroLogger) Debug(msg string, kv ...any) { emit(l.z.Debug(), msg, kv) }
func (l *ZeroLogger) Info(msg string, kv ...any)  { emit(l.z.Info(), msg, kv) }
func (l *ZeroLogger) Warn(msg string, kv ...any)  { emit(l.z.Warn(), msg, kv) }
func (l *ZeroLogger) Error(msg string, kv ...any) { emit(l.z.Error(), msg, kv) }

// With returns a child logger that always carries kv.
func (l *ZeroLogger) With(kv ...any) Logger {
	return &ZeroLogger{z: l.z.With().Fields(normalize(kv)).Logger()}
}

func emit(ev *zerolog.Event, msg string, kv []any) {
	if ev == nil {
		return
	}
	ev.Fields(normalize(kv)).Msg(msg)
}

// normalize pads a dangling key so zerolog never drops the pair silently.
func normalize(kv []any) []any {
	if len(kv)%2 == 1 {
		kv = append(kv, "(missing)")
	}
	return kv
}
