// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import "sort"

// DisplayIntensity is the FieldAttribute.Display value: spec.md §3 names
// normal, intensified, and non-display.
type DisplayIntensity int

const (
	DisplayNormal DisplayIntensity = iota
	DisplayIntensified
	DisplayNonDisplay
)

// Highlight is an SFE/SA extended highlighting attribute value.
type Highlight byte

const (
	HighlightDefault    Highlight = 0x00
	HighlightBlink      Highlight = 0xF1
	HighlightReverse    Highlight = 0xF2
	HighlightUnderscore Highlight = 0xF4
)

// Color is an SFE/SA extended foreground-color attribute value, using
// the conventional 3270 color codes (the same values the teacher's
// example4/login.go screen declares as go3270.Green, go3270.Turquoise,
// etc., generalized into a typed constant here instead of untyped bytes
// scattered through the examples).
type Color byte

const (
	ColorDefault   Color = 0x00
	ColorBlue      Color = 0xF1
	ColorRed       Color = 0xF2
	ColorPink      Color = 0xF3
	ColorGreen     Color = 0xF4
	ColorTurquoise Color = 0xF5
	ColorYellow    Color = 0xF6
	ColorWhite     Color = 0xF7
)

// FieldAttribute is the per-field attribute record of spec.md §3: the
// basic (SF) attribute bits plus the optional extended attributes
// conveyed by SFE and SA orders.
type FieldAttribute struct {
	Protected bool
	Numeric   bool
	Display   DisplayIntensity
	Modified  bool // the MDT bit

	// Extended attributes; zero values mean "default".
	Color      Color
	Highlight  Highlight
	CharSet    byte // raw SA/SFE character-set pair value; 0 = default
}

// Basic (non-extended) attribute byte bit layout, before passing the
// 6-bit raw value through the address code table (the same 64-entry
// table used for buffer addresses -- the 3270 data stream reuses it for
// any "safe 6-bit value in an EBCDIC-safe byte" field, attribute bytes
// included).
const (
	attrBitProtected     = 0x20
	attrBitNumeric       = 0x10
	attrBitIntensifiedHi = 0x08
	attrBitIntensifiedLo = 0x04
	attrBitMDT           = 0x02
)

// EncodeByte packs the basic attribute bits (protected, numeric, display,
// MDT) into the wire byte a Start-Field order deposits. Extended
// attributes are not representable in the basic SF byte; use SFE pairs
// for those.
func (a FieldAttribute) EncodeByte() byte {
	var raw byte
	if a.Protected {
		raw |= attrBitProtected
	}
	if a.Numeric {
		raw |= attrBitNumeric
	}
	switch a.Display {
	case DisplayIntensified:
		raw |= attrBitIntensifiedHi
	case DisplayNonDisplay:
		raw |= attrBitIntensifiedHi | attrBitIntensifiedLo
	}
	if a.Modified {
		raw |= attrBitMDT
	}
	return addressCodes[raw]
}

// DecodeAttributeByte unpacks a basic SF attribute wire byte.
func DecodeAttributeByte(wire byte) (FieldAttribute, error) {
	raw := addressDecodes[wire]
	if raw == 0xff {
		return FieldAttribute{}, newErr(ErrInvalidAddress, -1,
			"attribute byte not in address code table")
	}
	a := FieldAttribute{
		Protected: raw&attrBitProtected != 0,
		Numeric:   raw&attrBitNumeric != 0,
		Modified:  raw&attrBitMDT != 0,
	}
	switch raw & (attrBitIntensifiedHi | attrBitIntensifiedLo) {
	case attrBitIntensifiedHi:
		a.Display = DisplayIntensified
	case attrBitIntensifiedHi | attrBitIntensifiedLo:
		a.Display = DisplayNonDisplay
	default:
		a.Display = DisplayNormal
	}
	return a, nil
}

// ExtendedPairType identifies an SFE/SA/MF (type, value) pair's meaning.
// Per spec.md §9's open question resolution, only these three types are
// interpreted; others are accepted-and-ignored (ParserState.Strict has no
// effect on pair types).
type ExtendedPairType byte

const (
	ExtendedHighlighting    ExtendedPairType = 0x41
	ExtendedForegroundColor ExtendedPairType = 0x42
	ExtendedCharacterSet    ExtendedPairType = 0x43
)

// ApplyExtendedPair updates a with the effect of one (type, value) pair
// from an SFE, SA, or MF order. It reports whether the pair type was
// recognized.
func (a *FieldAttribute) ApplyExtendedPair(pairType, value byte) (recognized bool) {
	switch ExtendedPairType(pairType) {
	case ExtendedHighlighting:
		a.Highlight = Highlight(value)
	case ExtendedForegroundColor:
		a.Color = Color(value)
	case ExtendedCharacterSet:
		a.CharSet = value
	default:
		return false
	}
	return true
}

// FieldID identifies a field within a FieldTable. It is stable for the
// life of the field (until a structural mutation, such as Erase/Write,
// replaces the formatting).
type FieldID int

// Field is the spec.md §3 Field record: a contiguous range of cells
// governed by a single FieldAttribute.
type Field struct {
	ID FieldID

	// StartAddress is the address of the field's attribute cell, or -1
	// for the implicit unformatted field that has no attribute cell.
	StartAddress int

	// Length is the number of content cells following the attribute
	// cell, up to (not including) the next field's attribute cell,
	// wrapping around if necessary. For the implicit unformatted field,
	// Length is the entire buffer.
	Length int

	Attribute FieldAttribute
}

// ContentStart returns the address of the field's first content cell
// (the cell after the attribute cell), or 0 for the unformatted field.
func (f Field) ContentStart(bufSize int) int {
	if f.StartAddress < 0 {
		return 0
	}
	return (f.StartAddress + 1) % bufSize
}

// Direction selects Tab (Forward) or Backtab (Backward) navigation.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// FieldTable is the ordered set of fields described by spec.md §4.3.
type FieldTable struct {
	bufSize int
	fields  map[FieldID]*Field
	order   []FieldID // ascending by StartAddress; len==1 with StartAddress==-1 means unformatted
	byStart map[int]FieldID
	cache   []FieldID // flat address -> governing field, len == bufSize
	nextID  FieldID
}

// NewFieldTable returns a FieldTable for a buffer of bufSize cells,
// initialized to the unformatted state (see Reset).
func NewFieldTable(bufSize int) *FieldTable {
	ft := &FieldTable{bufSize: bufSize}
	ft.Reset()
	return ft
}

// Reset removes all fields, creating a single unformatted field spanning
// the whole buffer with the default attribute (unprotected, normal,
// MDT=false).
func (ft *FieldTable) Reset() {
	ft.fields = make(map[FieldID]*Field)
	ft.byStart = make(map[int]FieldID)
	ft.nextID = 1
	id := ft.nextID
	ft.nextID++
	f := &Field{ID: id, StartAddress: -1, Length: ft.bufSize, Attribute: FieldAttribute{}}
	ft.fields[id] = f
	ft.order = []FieldID{id}
	ft.rebuildCache()
}

func (ft *FieldTable) rebuildCache() {
	if cap(ft.cache) < ft.bufSize {
		ft.cache = make([]FieldID, ft.bufSize)
	} else {
		ft.cache = ft.cache[:ft.bufSize]
	}
	n := len(ft.order)
	for i, id := range ft.order {
		f := ft.fields[id]
		start := f.ContentStart(ft.bufSize)
		for j := 0; j < f.Length; j++ {
			ft.cache[(start+j)%ft.bufSize] = id
		}
		if f.StartAddress >= 0 {
			ft.cache[f.StartAddress] = id
		}
		_ = n
	}
}

// recomputeLengths recalculates every field's Length from the sorted
// StartAddress order, honoring wrap-around.
func (ft *FieldTable) recomputeLengths() {
	n := len(ft.order)
	if n == 0 {
		return
	}
	if n == 1 {
		f := ft.fields[ft.order[0]]
		if f.StartAddress < 0 {
			f.Length = ft.bufSize
		} else {
			f.Length = ft.bufSize - 1
		}
		return
	}
	for i, id := range ft.order {
		f := ft.fields[id]
		next := ft.fields[ft.order[(i+1)%n]]
		contentStart := f.ContentStart(ft.bufSize)
		length := next.StartAddress - contentStart
		if length < 0 {
			length += ft.bufSize
		}
		f.Length = length
	}
}

// insertSorted inserts id into ft.order keeping ascending StartAddress
// order.
func (ft *FieldTable) insertSorted(id FieldID) {
	addr := ft.fields[id].StartAddress
	i := sort.Search(len(ft.order), func(i int) bool {
		return ft.fields[ft.order[i]].StartAddress >= addr
	})
	ft.order = append(ft.order, 0)
	copy(ft.order[i+1:], ft.order[i:])
	ft.order[i] = id
}

// AddField inserts a field whose attribute cell is at attributeAddress.
// If a field already exists at that address, its attribute is replaced
// in place (no duplicate field is created). The implicit unformatted
// field, if present, is discarded on the first AddField call. Returns
// the field's stable ID.
func (ft *FieldTable) AddField(attributeAddress int, attr FieldAttribute) FieldID {
	if len(ft.order) == 1 && ft.fields[ft.order[0]].StartAddress < 0 {
		ft.fields = make(map[FieldID]*Field)
		ft.byStart = make(map[int]FieldID)
		ft.order = nil
	}

	if id, ok := ft.byStart[attributeAddress]; ok {
		ft.fields[id].Attribute = attr
		ft.recomputeLengths()
		ft.rebuildCache()
		return id
	}

	id := ft.nextID
	ft.nextID++
	f := &Field{ID: id, StartAddress: attributeAddress, Attribute: attr}
	ft.fields[id] = f
	ft.byStart[attributeAddress] = id
	ft.insertSorted(id)
	ft.recomputeLengths()
	ft.rebuildCache()
	return id
}

// FieldAt returns the field governing addr. It is O(1): the flat
// address->field cache is kept coherent by every structural mutation.
func (ft *FieldTable) FieldAt(addr int) *Field {
	id := ft.cache[addr%ft.bufSize]
	return ft.fields[id]
}

// Get returns the field with the given ID, or nil if it no longer
// exists (e.g. after a Reset).
func (ft *FieldTable) Get(id FieldID) *Field {
	return ft.fields[id]
}

// SetMDT sets or clears the modified-data-tag bit for a field.
func (ft *FieldTable) SetMDT(id FieldID, modified bool) {
	if f, ok := ft.fields[id]; ok {
		f.Attribute.Modified = modified
	}
}

// ClearAllMDT clears the MDT bit on every field.
func (ft *FieldTable) ClearAllMDT() {
	for _, f := range ft.fields {
		f.Attribute.Modified = false
	}
}

// IterFrom returns the field IDs starting at (and including) from,
// walking in the given direction, wrapping around once (a finite,
// restartable sequence as required by spec.md §4.3).
func (ft *FieldTable) IterFrom(from FieldID, dir Direction) []FieldID {
	n := len(ft.order)
	if n == 0 {
		return nil
	}
	start := -1
	for i, id := range ft.order {
		if id == from {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	out := make([]FieldID, n)
	for i := 0; i < n; i++ {
		var idx int
		if dir == Forward {
			idx = (start + i) % n
		} else {
			idx = ((start-i)%n + n) % n
		}
		out[i] = ft.order[idx]
	}
	return out
}

// ModifiedField is a (field id, content start address, content length)
// triple returned by ModifiedFields.
type ModifiedField struct {
	ID     FieldID
	Start  int
	Length int
	Attr   FieldAttribute
}

// ModifiedFields returns every field with MDT=1, in ascending
// StartAddress order -- the order Read Modified/Read Modified All must
// emit them in (spec.md §4.6, tested by scenario S3).
func (ft *FieldTable) ModifiedFields() []ModifiedField {
	var out []ModifiedField
	for _, id := range ft.order {
		f := ft.fields[id]
		if f.StartAddress < 0 {
			// Unformatted buffer: there is no MDT concept without a
			// Start-Field order, so nothing is ever "modified".
			continue
		}
		if f.Attribute.Modified {
			out = append(out, ModifiedField{
				ID:     id,
				Start:  f.ContentStart(ft.bufSize),
				Length: f.Length,
				Attr:   f.Attribute,
			})
		}
	}
	return out
}

// Fields returns every field in ascending StartAddress order.
func (ft *FieldTable) Fields() []*Field {
	out := make([]*Field, len(ft.order))
	for i, id := range ft.order {
		out[i] = ft.fields[id]
	}
	return out
}

// TotalLength sums every field's Length (content cells only, excluding
// each field's own attribute cell). Together with one cell per real
// field's attribute byte, this always accounts for the whole buffer:
// TotalLength() + (number of real fields) == bufSize, or
// TotalLength() == bufSize outright when the buffer is unformatted
// (spec.md §4.3 invariant, tested by the property tests).
func (ft *FieldTable) TotalLength() int {
	total := 0
	for _, f := range ft.fields {
		total += f.Length
	}
	return total
}

// IsUnformatted reports whether the buffer currently has no Start-Field
// orders applied.
func (ft *FieldTable) IsUnformatted() bool {
	return len(ft.order) == 1 && ft.fields[ft.order[0]].StartAddress < 0
}
