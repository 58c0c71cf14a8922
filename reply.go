// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

// ReplyKind selects which inbound frame body Replier.Build produces
// (spec.md §4.6).
type ReplyKind int

const (
	ReplyReadBuffer ReplyKind = iota
	ReplyReadModified
	ReplyReadModifiedAll
	ReplyShortRead
)

// Replier builds the inbound byte frames a terminal sends when the
// operator presses an AID key or the host issues a Read command
// (spec.md §4.6).
type Replier struct {
	screen *ScreenBuffer
	fields *FieldTable
	form   addressForm
}

// NewReplier returns a Replier for the given buffer pair, using form for
// every address it encodes (the cursor address, and SBA operands in a
// Read Modified body).
func NewReplier(screen *ScreenBuffer, fields *FieldTable, form addressForm) *Replier {
	return &Replier{screen: screen, fields: fields, form: form}
}

// replyWriter accumulates bytes into a caller-supplied buffer, failing
// fast with ErrBufferOverflow and no partial output semantics enforced
// by the caller discarding n on error (spec.md §5 backpressure: "fails
// ... and produces no partial output").
type replyWriter struct {
	into []byte
	n    int
}

func (w *replyWriter) put(b byte) error {
	if w.n >= len(w.into) {
		return newErr(ErrBufferOverflow, w.n, "reply buffer too small")
	}
	w.into[w.n] = b
	w.n++
	return nil
}

// Build writes the frame for kind into into, returning the number of
// bytes written. The frame is always AID | cursor-address | body | IAC
// EOR; body is empty for a short-read (Clear/PA-family AID, or an
// explicit ReplyShortRead request).
func (r *Replier) Build(kind ReplyKind, into []byte) (int, error) {
	aid := r.screen.AIDPending()
	if aid == AIDNone {
		return 0, newErr(ErrNoAIDArmed, -1, "no AID armed")
	}

	w := &replyWriter{into: into}
	if err := w.put(byte(aid)); err != nil {
		return 0, err
	}
	cursorBytes := encodeAddress(r.screen.Cursor(), r.form)
	if err := w.put(cursorBytes[0]); err != nil {
		return 0, err
	}
	if err := w.put(cursorBytes[1]); err != nil {
		return 0, err
	}

	if kind != ReplyShortRead && !aid.IsShortRead() {
		var err error
		switch kind {
		case ReplyReadBuffer:
			err = r.writeReadBuffer(w)
		case ReplyReadModified:
			err = r.writeModified(w, false)
		case ReplyReadModifiedAll:
			err = r.writeModified(w, true)
		}
		if err != nil {
			return 0, err
		}
	}

	if err := w.put(0xFF); err != nil {
		return 0, err
	}
	if err := w.put(0xEF); err != nil {
		return 0, err
	}
	return w.n, nil
}

// writeReadBuffer serializes the whole buffer in address order: each
// field's attribute cell as SF + attribute byte, every other cell as
// its raw EBCDIC byte (spec.md §4.6).
func (r *Replier) writeReadBuffer(w *replyWriter) error {
	attrAt := make(map[int]*Field)
	for _, f := range r.fields.Fields() {
		if f.StartAddress >= 0 {
			attrAt[f.StartAddress] = f
		}
	}
	size := r.screen.Size()
	for addr := 0; addr < size; addr++ {
		if f, ok := attrAt[addr]; ok {
			if err := w.put(opcodeSF); err != nil {
				return err
			}
			if err := w.put(f.Attribute.EncodeByte()); err != nil {
				return err
			}
			continue
		}
		if err := w.put(r.screen.Read(addr)); err != nil {
			return err
		}
	}
	return nil
}

// writeModified serializes every modified field, in ascending
// start-address order, as SBA <content-start> <content bytes, trailing
// NULs stripped>. includeProtected distinguishes Read Modified All
// (protected fields included) from Read Modified (protected fields
// excluded), per spec.md §4.6.
func (r *Replier) writeModified(w *replyWriter, includeProtected bool) error {
	size := r.screen.Size()
	for _, m := range r.fields.ModifiedFields() {
		if m.Attr.Protected && !includeProtected {
			continue
		}
		if err := w.put(opcodeSBA); err != nil {
			return err
		}
		addrBytes := encodeAddress(m.Start, r.form)
		if err := w.put(addrBytes[0]); err != nil {
			return err
		}
		if err := w.put(addrBytes[1]); err != nil {
			return err
		}

		end := m.Length
		for end > 0 && r.screen.Read((m.Start+end-1)%size) == 0x00 {
			end--
		}
		for i := 0; i < end; i++ {
			if err := w.put(r.screen.Read((m.Start + i) % size)); err != nil {
				return err
			}
		}
	}
	return nil
}
