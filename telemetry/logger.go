// Package telemetry holds logging and metrics wiring for smokerep.
package telemetry

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Quiet drops everything below
// errors, which silences the per-event skip diagnostics without hiding
// fatal failures. Debug wins over quiet.
func NewLogger(service string, debug, quiet bool) zerolog.Logger {
	return NewLoggerTo(os.Stderr, service, debug, quiet)
}

// NewLoggerTo is NewLogger with an explicit sink, for tests.
func NewLoggerTo(w io.Writer, service string, debug, quiet bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	switch {
	case debug:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.ErrorLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w}).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
