// Package errors provides error handling for panelcam.
//
// It re-exports github.com/cockroachdb/errors so callers get stack traces,
// wrapping and user hints from a single import, and defines the sentinel
// error kinds raised by the CAM pipeline. Wrap a sentinel with Wrapf to add
// context while keeping it matchable with Is.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Error kinds raised by the pipeline. All of them are fatal when returned;
// the non-fatal variants of the same conditions travel as diagnostics.
var (
	// ErrUnmatchedFootprint: a component's footprint has no catalog entry (strict mode).
	ErrUnmatchedFootprint = New("unmatched footprint")

	// ErrUnmatchedTool: no catalog tool can machine a cutout at all.
	ErrUnmatchedTool = New("unmatched tool")

	// ErrToolTooLarge: the mill radius does not fit inside a cutout.
	ErrToolTooLarge = New("tool too large")

	// ErrDegenerateOutline: board outline is empty, flat or disconnected.
	ErrDegenerateOutline = New("degenerate outline")

	// ErrInvalidCatalog: a footprint or tool catalog failed validation.
	ErrInvalidCatalog = New("invalid catalog")

	// ErrInvalidBoard: the placement input is malformed.
	ErrInvalidBoard = New("invalid board")

	// ErrEmitter: the G-code emitter was driven through an illegal state transition.
	ErrEmitter = New("emitter state")
)

// Kindf wraps one of the sentinel kinds with a formatted message.
func Kindf(kind error, format string, args ...interface{}) error {
	return Wrapf(kind, format, args...)
}
