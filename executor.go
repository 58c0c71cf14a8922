// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

// Executor applies StreamParser events to a ScreenBuffer/FieldTable pair
// (spec.md §4.5). It implements Sink; Core drives a StreamParser with a
// countingSink that forwards every event to its Executor.
type Executor struct {
	screen *ScreenBuffer
	fields *FieldTable

	cur      int
	charAttr FieldAttribute

	pendingCmd CommandCode
	pendingWCC WCC
	icSeen     bool

	// SwitchAlternate is invoked when an EraseWriteAlternate command
	// begins. It returns the screen/field pair to operate on from that
	// point forward (Core wires this to its alternate-geometry pair, if
	// one was configured); nil means no alternate geometry is available
	// and EraseWriteAlternate behaves exactly like EraseWrite on the
	// current buffer.
	SwitchAlternate func() (*ScreenBuffer, *FieldTable)
}

// NewExecutor returns an Executor operating on screen/fields.
func NewExecutor(screen *ScreenBuffer, fields *FieldTable) *Executor {
	return &Executor{screen: screen, fields: fields}
}

// Screen and Fields return the buffer pair currently in effect (after
// any EraseWriteAlternate geometry switch).
func (e *Executor) Screen() *ScreenBuffer { return e.screen }
func (e *Executor) Fields() *FieldTable   { return e.fields }

// Cursor returns the executor's current working address ("cur" in
// spec.md §4.5), distinct from ScreenBuffer.Cursor, the displayed cursor,
// which an Insert Cursor order sets and EndRecord syncs to cur when the
// record had no Insert Cursor order.
func (e *Executor) Cursor() int { return e.cur }

// BeginCommand implements Sink.
func (e *Executor) BeginCommand(code CommandCode, wcc WCC) {
	e.pendingCmd = code
	e.pendingWCC = wcc
	e.charAttr = FieldAttribute{}
	e.icSeen = false

	switch code {
	case CmdWrite:
		// cur carries over from the previous record; no buffer effect.
	case CmdEraseWrite:
		e.screen.Clear()
		e.fields.Reset()
		e.cur = 0
	case CmdEraseWriteAlternate:
		if e.SwitchAlternate != nil {
			if s, f := e.SwitchAlternate(); s != nil && f != nil {
				e.screen, e.fields = s, f
			}
		}
		e.screen.Clear()
		e.fields.Reset()
		e.cur = 0
	case CmdEraseAllUnprotected:
		e.eraseAllUnprotected()
	case CmdReadBuffer, CmdReadModified, CmdReadModifiedAll, CmdWriteStructuredField:
		// No ScreenBuffer effect before orders; Read commands are the
		// Replier's concern, and WriteStructuredField bodies are opaque
		// (spec.md §1 Non-goals).
	}

	if wcc.ResetMDT {
		e.fields.ClearAllMDT()
	}
}

func (e *Executor) eraseAllUnprotected() {
	size := e.screen.Size()
	for _, f := range e.fields.Fields() {
		if f.Attribute.Protected {
			continue
		}
		start := f.ContentStart(size)
		for i := 0; i < f.Length; i++ {
			e.screen.WriteHost((start+i)%size, 0x00)
		}
		e.fields.SetMDT(f.ID, false)
	}
}

// Order implements Sink.
func (e *Executor) Order(kind OrderKind, ops OrderOperands) {
	switch kind {
	case OrderSF, OrderSFE:
		e.fields.AddField(e.cur, ops.Attribute)
		e.screen.WriteHost(e.cur, 0x40) // attribute cell displays as a space
		e.cur = e.screen.NextAddress(e.cur, 1)
		e.charAttr = FieldAttribute{}

	case OrderSBA:
		e.cur = ops.Address

	case OrderSA:
		e.charAttr.ApplyExtendedPair(ops.Pair.Type, ops.Pair.Value)

	case OrderMF:
		if f := e.fields.FieldAt(e.cur); f != nil {
			for _, pr := range ops.Pairs {
				f.Attribute.ApplyExtendedPair(pr.Type, pr.Value)
			}
		}

	case OrderIC:
		e.screen.SetCursor(e.cur)
		e.icSeen = true

	case OrderPT:
		e.programTab()
		e.charAttr = FieldAttribute{}

	case OrderRA:
		e.repeatToAddress(ops.Address, ops.Char)

	case OrderEUA:
		e.eraseUnprotectedToAddress(ops.Address)

	case OrderGE:
		// The alternate (APL/text) character set applies to the data
		// byte immediately following; interpreting that byte is a
		// presentation concern outside this core's scope (spec.md §1
		// Non-goals: rendering). Storage is unaffected -- the raw byte
		// is written exactly as any other Data byte would be.
	}
}

// programTab implements the PT order: advance cur to the first content
// cell of the next unprotected field after the one currently governing
// cur, wrapping around the field table once.
func (e *Executor) programTab() {
	cur := e.fields.FieldAt(e.cur)
	if cur == nil {
		return
	}
	order := e.fields.IterFrom(cur.ID, Forward)
	size := e.screen.Size()
	for i := 1; i < len(order); i++ {
		f := e.fields.Get(order[i])
		if f != nil && !f.Attribute.Protected {
			e.cur = f.ContentStart(size)
			return
		}
	}
	// No other unprotected field exists; land on the current one if it
	// qualifies (a single-field unprotected buffer taps in place).
	if !cur.Attribute.Protected {
		e.cur = cur.ContentStart(size)
	}
}

// repeatToAddress implements RA: fill cells [cur, stop) with ch. When
// stop == cur, this fills the entire buffer exactly once -- the
// established 3270 wrap-once convention (spec.md §4.5 failure
// semantics) -- rather than a zero-length no-op.
func (e *Executor) repeatToAddress(stop int, ch byte) {
	size := e.screen.Size()
	stop = normalizeMod(stop, size)
	count := stop - e.cur
	if count <= 0 {
		count += size
	}
	addr := e.cur
	for i := 0; i < count; i++ {
		e.screen.WriteHost(addr, ch)
		addr = e.screen.NextAddress(addr, 1)
	}
	e.cur = stop
}

// eraseUnprotectedToAddress implements EUA: as repeatToAddress, but only
// cells governed by an unprotected field are cleared to NUL, and
// protected cells in the range are left untouched.
func (e *Executor) eraseUnprotectedToAddress(stop int) {
	size := e.screen.Size()
	stop = normalizeMod(stop, size)
	count := stop - e.cur
	if count <= 0 {
		count += size
	}
	addr := e.cur
	for i := 0; i < count; i++ {
		if f := e.fields.FieldAt(addr); f == nil || !f.Attribute.Protected {
			e.screen.WriteHost(addr, 0x00)
		}
		addr = e.screen.NextAddress(addr, 1)
	}
	e.cur = stop
}

// Data implements Sink: writes the literal byte at cur and advances.
func (e *Executor) Data(b byte) {
	e.screen.WriteHost(e.cur, b)
	e.cur = e.screen.NextAddress(e.cur, 1)
}

// EndRecord implements Sink: applies the WCC's keyboard-restore and
// sound-alarm effects. If the record contained no explicit Insert Cursor
// order, the displayed cursor is synced to the final working address --
// matching real terminal behavior for the (common) case of a host that
// relies on the write position rather than spelling out IC (spec.md §8
// scenario S1 expects cursor==cur with no IC present).
func (e *Executor) EndRecord() {
	if !e.icSeen {
		e.screen.SetCursor(e.cur)
	}
	if e.pendingWCC.KeyboardRestore {
		e.screen.UnlockKeyboard()
	}
	if e.pendingWCC.SoundAlarm {
		e.screen.setAlarm()
	}
}

func normalizeMod(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}
