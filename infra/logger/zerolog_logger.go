package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how component loggers are built.
type Options struct {
	// Level is a zerolog level name such as "debug" or "warn".
	Level string
	// Format is "json" or "console". Empty selects console when APP_ENV=dev.
	Format string
	Output io.Writer
}

var (
	optsMu  sync.RWMutex
	current Options
)

// Configure sets process wide defaults for loggers created afterwards.
func Configure(o Options) {
	optsMu.Lock()
	current = o
	optsMu.Unlock()
}

func options() Options {
	optsMu.RLock()
	o := current
	optsMu.RUnlock()
	if o.Level == "" {
		o.Level = os.Getenv("LOG_LEVEL")
	}
	if o.Format == "" && strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		o.Format = "console"
	}
	if o.Output == nil {
		o.Output = os.Stdout
	}
	return o
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger tagged with the component field.
func NewZerologLogger(component string) Logger {
	o := options()
	out := o.Output
	if o.Format == "console" {
		out = zerolog.ConsoleWriter{Out: o.Output, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if o.Level != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(o.Level)); err == nil {
			level = lvl
		}
	}
	z := zerolog.New(out).Level(level).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
