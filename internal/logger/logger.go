package logger

import (
	"sync"
)

// Log levels accepted in configs/config.yml (log.level).
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Encodings accepted in configs/config.yml (log.format).
const (
	ConsoleFormat = "console"
	JSONFormat    = "json"
)

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton console logger configured with the provided level.
// The first call initializes the logger; subsequent calls ignore the level
// and return the already initialized instance.
func Get(level string) *Logger {
	return GetWithFormat(level, ConsoleFormat)
}

// GetWithFormat is Get with an explicit encoding.
func GetWithFormat(level, format string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, format)
	})
	return globalLogger
}

// Nop returns a logger that discards everything. Handy for tests and optional deps.
func Nop() *Logger {
	return newNopLogger()
}
