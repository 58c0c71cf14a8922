// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import "github.com/mwrx/tn3270core/internal/corelog"

// countingSink wraps an Executor as the StreamParser's Sink, counting
// completed records per Feed call and keeping ParserState's address
// form in sync when EraseWriteAlternate switches buffer geometry
// mid-record.
type countingSink struct {
	exec      *Executor
	state     *ParserState
	logger    corelog.Logger
	completed int
}

func (s *countingSink) BeginCommand(code CommandCode, wcc WCC) {
	s.exec.BeginCommand(code, wcc)
	size := s.exec.Screen().Size()
	if size != s.state.bufSize {
		s.state.bufSize = size
		s.state.addrForm = addressFormFor(size)
	}
}

func (s *countingSink) Order(kind OrderKind, ops OrderOperands) { s.exec.Order(kind, ops) }
func (s *countingSink) Data(b byte)                             { s.exec.Data(b) }
func (s *countingSink) EndRecord() {
	s.exec.EndRecord()
	s.completed++
}
func (s *countingSink) Warning(err error) {
	s.logger.Warn("stream parser warning", "err", err)
}

// Core is the public facade of spec.md §6: a self-contained, single
// session's worth of screen state plus the pipeline (Codec, StreamParser,
// Executor, Replier) that drives it.
type Core struct {
	codec *Codec

	state    *ParserState
	parser   *StreamParser
	executor *Executor
	sink     *countingSink

	altScreen *ScreenBuffer
	altFields *FieldTable

	Logger corelog.Logger
}

// New returns a Core with a single (primary) geometry.
func New(rows, cols int, codepage string) (*Core, error) {
	return NewWithAlternate(rows, cols, 0, 0, codepage)
}

// NewWithAlternate returns a Core with a primary geometry and, if
// altRows/altCols are both positive, an alternate geometry an
// EraseWriteAlternate command switches to (spec.md §9's "a single
// configured alternate size" open-question resolution).
func NewWithAlternate(rows, cols, altRows, altCols int, codepage string) (*Core, error) {
	codec, err := NewCodec(codepage)
	if err != nil {
		return nil, err
	}

	size := rows * cols
	fields := NewFieldTable(size)
	screen := NewScreenBuffer(rows, cols, fields)
	exec := NewExecutor(screen, fields)

	c := &Core{
		codec:    codec,
		state:    NewParserState(size),
		executor: exec,
		Logger:   corelog.Discard(),
	}
	c.parser = NewStreamParser(c.state)
	c.sink = &countingSink{exec: exec, state: c.state, logger: c.Logger}

	if altRows > 0 && altCols > 0 {
		altSize := altRows * altCols
		altFields := NewFieldTable(altSize)
		altScreen := NewScreenBuffer(altRows, altCols, altFields)
		c.altScreen, c.altFields = altScreen, altFields
		exec.SwitchAlternate = func() (*ScreenBuffer, *FieldTable) {
			return c.altScreen, c.altFields
		}
	}
	return c, nil
}

// Feed parses and applies data, an outbound chunk already de-IACed by a
// transport adapter's telnet layer (spec.md §4.7), with each record's
// two-byte IAC EOR marker (0xFF 0xEF) still in place as its terminator. It returns the number of complete records (EndRecord
// events) applied by this call. data may end mid-record; the remaining
// partial state is retained in Core's ParserState for the next Feed
// call.
func (c *Core) Feed(data []byte) (int, error) {
	c.sink.completed = 0
	c.sink.logger = c.Logger
	if err := c.parser.Feed(data, c.sink); err != nil {
		return c.sink.completed, err
	}
	return c.sink.completed, nil
}

// activeScreen and activeFields return whichever buffer pair the
// Executor currently operates on (primary, or alternate after an
// EraseWriteAlternate).
func (c *Core) activeScreen() *ScreenBuffer { return c.executor.Screen() }
func (c *Core) activeFields() *FieldTable   { return c.executor.Fields() }

// ScreenSnapshot is the read-only view spec.md §6's Core.snapshot_screen
// returns: a point-in-time copy safe for a caller to hold onto past the
// next Feed call.
type ScreenSnapshot struct {
	Rows, Cols     int
	Cells          []byte
	Cursor         int
	KeyboardLocked bool
	Fields         []Field
}

// SnapshotScreen returns a copy of the active buffer's cells, cursor,
// keyboard state, and field table.
func (c *Core) SnapshotScreen() ScreenSnapshot {
	screen := c.activeScreen()
	fields := c.activeFields()

	cells := make([]byte, screen.Size())
	for i := range cells {
		cells[i] = screen.Read(i)
	}

	fieldPtrs := fields.Fields()
	fieldVals := make([]Field, len(fieldPtrs))
	for i, f := range fieldPtrs {
		fieldVals[i] = *f
	}

	return ScreenSnapshot{
		Rows:           screen.Rows(),
		Cols:           screen.Cols(),
		Cursor:         screen.Cursor(),
		KeyboardLocked: screen.KeyboardLocked(),
		Cells:          cells,
		Fields:         fieldVals,
	}
}

// PressAID arms aid for the next reply and locks the keyboard, mirroring
// a real terminal's behavior between an operator keypress and the
// host's response (spec.md §6 Core.press_aid).
func (c *Core) PressAID(aid AID) error {
	screen := c.activeScreen()
	if screen.KeyboardLocked() {
		return newErr(ErrKeyboardLocked, -1, "keyboard is locked")
	}
	screen.SetAIDPending(aid)
	screen.LockKeyboard()
	return nil
}

// Type writes operator input (host-character bytes, encoded through
// Core's codec) starting at addr, validating against the governing
// field's protection, numeric constraint, and remaining length before
// writing anything (spec.md §6 Core.type): on any validation failure,
// no cell is modified.
func (c *Core) Type(addr int, chars []byte) error {
	screen := c.activeScreen()
	fields := c.activeFields()

	if screen.KeyboardLocked() {
		return newErr(ErrKeyboardLocked, addr, "keyboard is locked")
	}

	f := fields.FieldAt(addr)
	if f.Attribute.Protected {
		return newErr(ErrProtectedWrite, addr, "write to protected field")
	}

	size := screen.Size()
	contentStart := f.ContentStart(size)
	offset := addr - contentStart
	if offset < 0 {
		offset += size
	}
	if offset+len(chars) > f.Length {
		return newErr(ErrFieldOverflow, addr, "input exceeds field length")
	}

	if f.Attribute.Numeric {
		for _, b := range chars {
			if b < '0' || b > '9' {
				return newErr(ErrNumericOnly, addr, "non-digit character in numeric field")
			}
		}
	}

	encoded := make([]byte, len(chars))
	for i, b := range chars {
		eb, err := c.codec.Encode(b)
		if err != nil {
			return err
		}
		encoded[i] = eb
	}

	for i, eb := range encoded {
		screen.WriteHost(screen.NextAddress(addr, i), eb)
	}
	fields.SetMDT(f.ID, true)
	// A real terminal's local keyboard cursor advances past what the
	// operator just typed; mirror that so a subsequent build_reply
	// reports the post-input cursor position (spec.md §8 scenario S2).
	screen.SetCursor(screen.NextAddress(addr, len(chars)))
	return nil
}

// BuildReply writes the inbound frame for kind into into, returning the
// number of bytes written (spec.md §6 Core.build_reply).
func (c *Core) BuildReply(kind ReplyKind, into []byte) (int, error) {
	screen := c.activeScreen()
	fields := c.activeFields()
	form := addressFormFor(screen.Size())
	replier := NewReplier(screen, fields, form)
	n, err := replier.Build(kind, into)
	if err != nil {
		return 0, err
	}
	screen.ClearAIDPending()
	return n, nil
}

// Codec returns the codepage codec this Core was constructed with.
func (c *Core) Codec() *Codec { return c.codec }
