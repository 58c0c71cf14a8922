// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four error kinds described by the protocol
// design: parse errors, field/screen errors, codec errors, and reply
// errors. Callers should compare with errors.Is, not by string match or
// type switch on position/context, since every returned error wraps one
// of these sentinels via PositionedError.
var (
	// Parse errors.
	ErrInvalidCommand  = errors.New("tn3270core: invalid command byte")
	ErrInvalidAddress  = errors.New("tn3270core: invalid buffer address")
	ErrUnknownOrder    = errors.New("tn3270core: unknown order byte")
	ErrTruncatedOrder  = errors.New("tn3270core: truncated order")
	ErrProtocolTimeout = errors.New("tn3270core: protocol timeout waiting for end of record")

	// Field/screen errors.
	ErrProtectedWrite = errors.New("tn3270core: write to protected field")
	ErrNumericOnly    = errors.New("tn3270core: non-numeric input into numeric field")
	ErrFieldOverflow  = errors.New("tn3270core: input exceeds field length")
	ErrKeyboardLocked = errors.New("tn3270core: keyboard is locked")

	// Codec errors.
	ErrInvalidCharacter = errors.New("tn3270core: character has no codepage encoding")
	ErrBufferOverflow   = errors.New("tn3270core: destination buffer too small")

	// Reply errors.
	ErrNoAIDArmed = errors.New("tn3270core: no AID armed for reply")
)

// PositionedError wraps one of the sentinel errors above with a byte
// offset (within the current record) or cell address, plus a short
// diagnostic context string. It is always returned rather than the bare
// sentinel, so callers should use errors.Is/errors.As, and loggers should
// print the wrapped error directly for its Position/Context.
type PositionedError struct {
	// Err is one of the sentinel errors declared in this file.
	Err error

	// Position is a byte offset within the current record for parse and
	// codec errors, or a cell address for field/screen errors. -1 means
	// not applicable.
	Position int

	// Context is a short diagnostic string suitable for a log line.
	Context string
}

func (e *PositionedError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("%s: %s", e.Err, e.Context)
	}
	return fmt.Sprintf("%s at %d: %s", e.Err, e.Position, e.Context)
}

func (e *PositionedError) Unwrap() error { return e.Err }

// newErr builds a PositionedError. pos may be -1 if no byte/cell offset
// is relevant.
func newErr(err error, pos int, context string) error {
	return &PositionedError{Err: err, Position: pos, Context: context}
}
