// Package xgwerr holds the sentinel errors shared across the gateway's
// components. Each maps to one of the error kinds the design calls out:
// malformed wire data, router dispatch mistakes, and fatal startup
// failures are all distinguishable with errors.Is.
package xgwerr

import "errors"

var (
	// ErrMalformedFrame is returned by the frame parser/builder for a bad
	// start delimiter, a length mismatch, or a checksum mismatch.
	ErrMalformedFrame = errors.New("xgw: malformed xbee frame")

	// ErrBadEscape is logged by the decoder, which then drops the frame,
	// when an escape byte is followed by something other than one of the
	// four escaped forms.
	ErrBadEscape = errors.New("xgw: bad escape sequence")

	// ErrWrongUnitType is returned by the router when a DataUnit's runtime
	// variant contradicts its declared origin.
	ErrWrongUnitType = errors.New("xgw: wrong data unit type for origin")

	// ErrNotImplemented is returned by the router for any origin it has no
	// dispatch rule for.
	ErrNotImplemented = errors.New("xgw: origin not implemented")

	// ErrPrecondition marks a programmer error: a nil address, or an
	// address whose origin doesn't match what the call requires.
	ErrPrecondition = errors.New("xgw: precondition violated")

	// ErrStartup marks a component failing to start; the caller aborts
	// startup and unwinds already-started components.
	ErrStartup = errors.New("xgw: startup failed")
)
