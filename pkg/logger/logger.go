package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the zerolog logger passed to every honeytrap component. The
// With* helpers attach the fields the service filters on.
type Logger struct {
	zerolog.Logger
}

type Config struct {
	Level string
	// Format is "console" for human output, anything else writes JSON.
	Format     string
	TimeFormat string
	// Output defaults to stdout.
	Output io.Writer
}

func New(cfg Config) *Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = timeFormat

	var w io.Writer = os.Stdout
	if cfg.Output != nil {
		w = cfg.Output
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	}

	return &Logger{
		Logger: zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger(),
	}
}

// NewDevelopment logs everything to a colored console with short times.
func NewDevelopment() *Logger {
	return New(Config{Level: "debug", Format: "console", TimeFormat: "15:04:05"})
}

func NewNop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with("request_id", requestID)
}

func (l *Logger) WithSessionID(sessionID string) *Logger {
	return l.with("session_id", sessionID)
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.With().Str(key, value).Logger()}
}

// parseLevel falls back to info for unknown names.
func parseLevel(level string) zerolog.Level {
	switch level {
	case "warning":
		return zerolog.WarnLevel
	case "off":
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

var global = New(Config{Level: "info", Format: "json"})

// SetGlobal replaces the logger used by package-level helpers such as
// intel.Extract.
func SetGlobal(l *Logger) {
	global = l
}

func Global() *Logger {
	return global
}
