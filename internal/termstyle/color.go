// SPDX-License-Identifier: MIT
package termstyle

import (
	"github.com/liggitt/tabwriter"

	"github.com/skaphos/branchkeeper/internal/model"
)

const (
	Reset = "\x1b[0m"
	Green = "\x1b[32m"
	Brown = "\x1b[33m"
	Red   = "\x1b[31m"
	Blue  = "\x1b[34m"

	// Semantic aliases used by table/status output.
	Healthy = Green
	Warn    = Brown
	Error   = Red
	Info    = Blue
)

// Colorize wraps a value in ANSI escapes when color output is enabled.
func Colorize(enabled bool, value, color string) string {
	if !enabled || value == "" || color == "" {
		return value
	}
	// Hide ANSI sequences from tabwriter width calculations so columns align.
	esc := string([]byte{tabwriter.Escape})
	return esc + color + esc + value + esc + Reset + esc
}

// DriftColor picks the color of a drift status cell.
func DriftColor(status model.DriftStatus) string {
	switch status {
	case model.DriftOK:
		return Healthy
	case model.DriftNew:
		return Info
	case model.DriftOrphan:
		return Warn
	case model.DriftError:
		return Error
	}
	return ""
}

// OutcomeColor picks the color of a sync outcome cell.
func OutcomeColor(outcome model.OutcomeKind) string {
	switch outcome {
	case model.OutcomePushed, model.OutcomeUpToDate:
		return Healthy
	case model.OutcomeForcedOverwrite:
		return Warn
	case model.OutcomeFailed:
		return Error
	}
	return ""
}
