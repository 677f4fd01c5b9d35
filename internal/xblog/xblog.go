// Package xblog provides the logging indirection used across xbiostool.
// Library packages do not log on their own and never call os.Exit; the
// one library entry point is bios.(*Bios).Warnf, which forwards to this
// package's Logger, so a caller embedding xbiostool can redirect or
// silence diagnostics by replacing DefaultLogger.
package xblog

import (
	"log"
	"os"
)

// Logger describes a logger to be used across xbiostool.
type Logger interface {
	// Warnf logs a warning message.
	Warnf(format string, args ...interface{})

	// Errorf logs an error message.
	Errorf(format string, args ...interface{})

	// Fatalf logs a fatal message and immediately exits the application
	// with os.Exit. Only cmd/xbiostool should trigger this path.
	Fatalf(format string, args ...interface{})
}

// DefaultLogger is the logger used by default everywhere within xbiostool.
var DefaultLogger Logger

func init() {
	DefaultLogger = logWrapper{Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

type logWrapper struct {
	Logger *log.Logger
}

func (l logWrapper) Warnf(format string, args ...interface{}) {
	l.Logger.Printf("[xbiostool][WARN] "+format, args...)
}

func (l logWrapper) Errorf(format string, args ...interface{}) {
	l.Logger.Printf("[xbiostool][ERROR] "+format, args...)
}

func (l logWrapper) Fatalf(format string, args ...interface{}) {
	l.Logger.Fatalf("[xbiostool][FATAL] "+format, args...)
}

// Warnf logs a warning message through DefaultLogger.
func Warnf(format string, args ...interface{}) { DefaultLogger.Warnf(format, args...) }

// Errorf logs an error message through DefaultLogger.
func Errorf(format string, args ...interface{}) { DefaultLogger.Errorf(format, args...) }

// Fatalf logs a fatal message through DefaultLogger and exits.
func Fatalf(format string, args ...interface{}) { DefaultLogger.Fatalf(format, args...) }
