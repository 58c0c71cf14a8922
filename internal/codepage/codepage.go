// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

// Package codepage implements the EBCDIC<->host-byte tables behind the
// Codec component. It is adapted from the teacher's internal/codepage
// package, but reworked around the byte-total/fallible-encode contract
// the spec assigns to the Codec (rather than the teacher's
// string-in/string-out Decode/Encode pair, which is kept here only as a
// convenience layer on top of the byte primitives).
package codepage

// substituteByte is returned by Decode for EBCDIC bytes outside the
// bijective subset. '?' mirrors the conventional 3270 substitute glyph.
const substituteByte = '?'

// Table is a single EBCDIC codepage: a total decode function and a
// partial (fallible) encode function, plus the bijective subset both
// agree on.
type Table struct {
	id  string
	e2a [256]byte
	a2e [256]byte
	ok  [256]bool // a2e[b] is meaningful iff ok[b]
}

// ID returns the codepage's conventional numeric name, e.g. "037".
func (t *Table) ID() string { return t.id }

// Decode is total: every EBCDIC byte maps to some host byte. Bytes
// outside the bijective subset map to the substitute character.
func (t *Table) Decode(b byte) byte { return t.e2a[b] }

// Encode returns the EBCDIC byte for a host byte, and false if the host
// byte has no assigned encoding in this codepage (the caller should
// treat this as Codec's InvalidCharacter).
func (t *Table) Encode(b byte) (byte, bool) {
	if !t.ok[b] {
		return 0, false
	}
	return t.a2e[b], true
}

// IsBijective reports whether host byte b round-trips through this
// codepage: Decode(Encode(b)) == b and Encode(Decode(Encode(b))) finds
// the same EBCDIC byte.
func (t *Table) IsBijective(b byte) bool {
	if !t.ok[b] {
		return false
	}
	e := t.a2e[b]
	return t.e2a[e] == b
}

// DecodeBytes is the bulk convenience form used by the higher-level
// Screen/Field API (kept from the teacher's string-oriented Codepage
// interface): every byte decodes via Decode, so it never fails.
func (t *Table) DecodeBytes(src []byte) []byte {
	out := make([]byte, len(src))
	for i, b := range src {
		out[i] = t.e2a[b]
	}
	return out
}

// EncodeBytes is the bulk convenience form: host bytes without an
// encoding are replaced with the EBCDIC byte for '?' (if one exists in
// this table) rather than failing, matching the teacher's permissive
// display-layer behavior. Callers needing the strict, failing Encode
// contract (spec.md Codec) should call Encode per-byte instead.
func (t *Table) EncodeBytes(src []byte) []byte {
	out := make([]byte, len(src))
	subst, _ := t.Encode(substituteByte)
	for i, b := range src {
		if e, ok := t.Encode(b); ok {
			out[i] = e
		} else {
			out[i] = subst
		}
	}
	return out
}

// newTable builds a Table from an ASCII-byte -> EBCDIC-byte assignment.
// Every EBCDIC byte not present as a value becomes a decode target of
// substituteByte.
func newTable(id string, assignments map[byte]byte) *Table {
	t := &Table{id: id}
	for i := range t.e2a {
		t.e2a[i] = substituteByte
	}
	for host, ebcdic := range assignments {
		t.e2a[ebcdic] = host
		t.a2e[host] = ebcdic
		t.ok[host] = true
	}
	return t
}

// baseAssignments is the EBCDIC byte assigned to each ASCII host byte for
// the bijective subset named by spec.md §4.1: A-Z, a-z, 0-9, space, and
// .,;:!?'"()[]{}<>/\|@#$%^&*+-=_~`
//
// CP037/CP273/CP500/CP1047 differ in real IBM implementations only in a
// handful of national-variant punctuation slots (notably where '[', ']',
// '^', and '¬' land); see DESIGN.md for why this port gives all four
// codepages the identical bijective-subset assignment below rather than
// fabricating exact per-codepage byte placements the retrieval pack does
// not supply source data for. The spec's testable property (§8.1) only
// requires that each codepage's own round trip holds, which this
// satisfies regardless of which codepage is selected.
func baseAssignments() map[byte]byte {
	m := map[byte]byte{
		' ': 0x40, '.': 0x4B, '<': 0x4C, '(': 0x4D, '+': 0x4E, '|': 0x4F,
		'&': 0x50, '!': 0x5A, '$': 0x5B, '*': 0x5C, ')': 0x5D, ';': 0x5E,
		'~': 0x5F, '-': 0x60, '/': 0x61, ',': 0x6B, '%': 0x6C, '_': 0x6D,
		'>': 0x6E, '?': 0x6F, '`': 0x79, ':': 0x7A, '#': 0x7B, '@': 0x7C,
		'\'': 0x7D, '=': 0x7E, '"': 0x7F, '[': 0xBA, ']': 0xBB, '{': 0xC0,
		'}': 0xD0, '\\': 0xE0, '^': 0xB0,
	}
	for i := 0; i < 9; i++ {
		m[byte('a')+byte(i)] = 0x81 + byte(i)
	}
	for i := 0; i < 9; i++ {
		m[byte('j')+byte(i)] = 0x91 + byte(i)
	}
	for i := 0; i < 8; i++ {
		m[byte('s')+byte(i)] = 0xA2 + byte(i)
	}
	for i := 0; i < 9; i++ {
		m[byte('A')+byte(i)] = 0xC1 + byte(i)
	}
	for i := 0; i < 9; i++ {
		m[byte('J')+byte(i)] = 0xD1 + byte(i)
	}
	for i := 0; i < 8; i++ {
		m[byte('S')+byte(i)] = 0xE2 + byte(i)
	}
	for i := 0; i < 10; i++ {
		m[byte('0')+byte(i)] = 0xF0 + byte(i)
	}
	return m
}

var (
	Codepage037  = newTable("037", baseAssignments())
	Codepage273  = newTable("273", baseAssignments())
	Codepage500  = newTable("500", baseAssignments())
	Codepage1047 = newTable("1047", baseAssignments())

	// ByID indexes the codepages above by their conventional numeric
	// name, for parsing a configuration value.
	ByID = map[string]*Table{
		Codepage037.ID():  Codepage037,
		Codepage273.ID():  Codepage273,
		Codepage500.ID():  Codepage500,
		Codepage1047.ID(): Codepage1047,
	}
)
