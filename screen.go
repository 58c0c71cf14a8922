// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

// ScreenBuffer is the fixed-geometry character+attribute grid described
// by spec.md §3/§4.2. Cells are stored as raw EBCDIC bytes (the
// implementer's choice the spec leaves open, fixed here for the life of
// a buffer); Codec.Decode turns them into host bytes on demand.
//
// ScreenBuffer exclusively owns its cell array. It borrows (never owns)
// a reference to the sibling FieldTable in order to enforce protected-
// field writes; Core is responsible for wiring the two together.
type ScreenBuffer struct {
	rows, cols int
	cells      []byte
	fields     *FieldTable

	cursor         int
	keyboardLocked bool
	aidPending     AID
	alarm          bool
}

// NewScreenBuffer returns a ScreenBuffer of the given geometry, attached
// to fields for protected-write enforcement. All cells are cleared to
// the null character, cursor at address 0, keyboard locked, no AID
// pending.
func NewScreenBuffer(rows, cols int, fields *FieldTable) *ScreenBuffer {
	sb := &ScreenBuffer{rows: rows, cols: cols, fields: fields}
	sb.cells = make([]byte, rows*cols)
	sb.keyboardLocked = true
	sb.aidPending = AIDNone
	return sb
}

// Rows, Cols, and Size return the buffer's fixed geometry.
func (sb *ScreenBuffer) Rows() int { return sb.rows }
func (sb *ScreenBuffer) Cols() int { return sb.cols }
func (sb *ScreenBuffer) Size() int { return sb.rows * sb.cols }

// Clear resets every cell to the null character and the cursor to 0,
// preserving geometry and keyboard/AID state (callers implementing
// Erase-family commands set those separately).
func (sb *ScreenBuffer) Clear() {
	for i := range sb.cells {
		sb.cells[i] = 0x00
	}
	sb.cursor = 0
}

// Read returns the raw EBCDIC byte at addr (wrapped modulo Size).
func (sb *ScreenBuffer) Read(addr int) byte {
	return sb.cells[sb.normalize(addr)]
}

// Write performs an operator-originated write: it fails with
// ErrProtectedWrite (no state change) if the field governing addr is
// protected. Host (executor) writes must use WriteHost instead.
func (sb *ScreenBuffer) Write(addr int, b byte) error {
	addr = sb.normalize(addr)
	if sb.fields != nil {
		f := sb.fields.FieldAt(addr)
		if f != nil && f.Attribute.Protected {
			return newErr(ErrProtectedWrite, addr, "write to protected field")
		}
	}
	sb.cells[addr] = b
	return nil
}

// WriteHost performs an unconditional write, as used by the Executor
// applying a host command or order: host writes are never subject to
// the protected-field check.
func (sb *ScreenBuffer) WriteHost(addr int, b byte) {
	sb.cells[sb.normalize(addr)] = b
}

// Cursor returns the current cursor address.
func (sb *ScreenBuffer) Cursor() int { return sb.cursor }

// SetCursor sets the cursor address, wrapping via addr mod Size.
func (sb *ScreenBuffer) SetCursor(addr int) {
	sb.cursor = sb.normalize(addr)
}

// AddressOf converts (row, col) to a linear address. Out-of-range row or
// col wrap silently, matching spec.md §4.2.
func (sb *ScreenBuffer) AddressOf(row, col int) int {
	return sb.normalize(row*sb.cols + col)
}

// RowColOf converts a linear address to (row, col).
func (sb *ScreenBuffer) RowColOf(addr int) (row, col int) {
	addr = sb.normalize(addr)
	return addr / sb.cols, addr % sb.cols
}

// NextAddress returns (addr + n) mod Size.
func (sb *ScreenBuffer) NextAddress(addr, n int) int {
	return sb.normalize(addr + n)
}

// LockKeyboard and UnlockKeyboard control the keyboard-locked flag that
// inhibits operator input between an inbound command and the host's
// keyboard-restore WCC bit.
func (sb *ScreenBuffer) LockKeyboard()   { sb.keyboardLocked = true }
func (sb *ScreenBuffer) UnlockKeyboard() { sb.keyboardLocked = false }

// KeyboardLocked reports the current keyboard lock state.
func (sb *ScreenBuffer) KeyboardLocked() bool { return sb.keyboardLocked }

// AIDPending returns the most recently armed AID, or AIDNone.
func (sb *ScreenBuffer) AIDPending() AID { return sb.aidPending }

// SetAIDPending arms aid for the next reply build; ClearAIDPending
// releases it once consumed.
func (sb *ScreenBuffer) SetAIDPending(aid AID) { sb.aidPending = aid }
func (sb *ScreenBuffer) ClearAIDPending()      { sb.aidPending = AIDNone }
func (sb *ScreenBuffer) HasAIDPending() bool   { return sb.aidPending != AIDNone }

// Alarm reports and clears the one-shot sound-alarm signal set by a WCC
// with the sound-alarm bit (spec.md §4.5 "At EndRecord").
func (sb *ScreenBuffer) Alarm() bool {
	a := sb.alarm
	sb.alarm = false
	return a
}

func (sb *ScreenBuffer) setAlarm() { sb.alarm = true }

func (sb *ScreenBuffer) normalize(addr int) int {
	n := addr % sb.Size()
	if n < 0 {
		n += sb.Size()
	}
	return n
}
