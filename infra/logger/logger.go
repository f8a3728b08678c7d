package logger

import corelogger "github.com/kilianp07/fieldsched/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.Nop

// New returns a Logger for the given component. Output format follows APP_ENV
// and the level follows LOG_LEVEL unless Configure was called.
func New(component string) Logger {
	return NewZerologLogger(component)
}
