// SPDX-License-Identifier: MIT
// Package logging builds the zerolog logger used by the CLI and engine.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Level maps CLI verbosity flags to a zerolog level. quiet wins over verbose.
func Level(verbosity int, quiet bool) zerolog.Level {
	switch {
	case quiet:
		return zerolog.WarnLevel
	case verbosity >= 2:
		return zerolog.TraceLevel
	case verbosity == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a human-readable console logger writing to w.
func New(w io.Writer, verbosity int, quiet bool, color bool) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !color,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(console).Level(Level(verbosity, quiet)).With().Timestamp().Logger()
}

// NewJSON returns a structured logger for machine consumption.
func NewJSON(w io.Writer, verbosity int, quiet bool) zerolog.Logger {
	return zerolog.New(w).Level(Level(verbosity, quiet)).With().Timestamp().Logger()
}
