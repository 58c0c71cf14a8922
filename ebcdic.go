// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import "github.com/mwrx/tn3270core/internal/codepage"

// Codec is the EBCDIC<->host-byte transcoder described by spec.md §4.1.
// decode is total; encode fails with ErrInvalidCharacter for host bytes
// outside the codepage's bijective subset.
type Codec struct {
	table *codepage.Table
}

// NewCodec returns a Codec for one of the four codepages named by
// spec.md §4.1: "037", "273", "500", "1047". CP037 is the default if id
// is empty.
func NewCodec(id string) (*Codec, error) {
	if id == "" {
		id = "037"
	}
	t, ok := codepage.ByID[id]
	if !ok {
		return nil, newErr(ErrInvalidCharacter, -1, "unknown codepage id "+id)
	}
	return &Codec{table: t}, nil
}

// ID returns the codepage's conventional numeric name.
func (c *Codec) ID() string { return c.table.ID() }

// Decode is total: every EBCDIC byte maps to a host byte. Bytes outside
// the bijective subset decode to a sentinel character.
func (c *Codec) Decode(ebcdic byte) byte { return c.table.Decode(ebcdic) }

// Encode converts a host byte to its EBCDIC encoding. It fails with
// ErrInvalidCharacter if host has no assigned EBCDIC encoding in this
// codepage.
func (c *Codec) Encode(host byte) (byte, error) {
	e, ok := c.table.Encode(host)
	if !ok {
		return 0, newErr(ErrInvalidCharacter, -1, "no encoding for host byte")
	}
	return e, nil
}

// DecodeInto decodes src into dst, returning the number of bytes
// written. dst must be at least len(src) long, or ErrBufferOverflow is
// returned and nothing is written.
func (c *Codec) DecodeInto(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, newErr(ErrBufferOverflow, -1, "decode destination too small")
	}
	for i, b := range src {
		dst[i] = c.table.Decode(b)
	}
	return len(src), nil
}

// EncodeInto encodes src into dst, returning the number of bytes
// written. dst must be at least len(src) long, or ErrBufferOverflow is
// returned and nothing is written. If any byte in src has no encoding,
// EncodeInto fails with ErrInvalidCharacter (wrapping the offending
// position) and nothing is written.
func (c *Codec) EncodeInto(dst, src []byte) (int, error) {
	if len(dst) < len(src) {
		return 0, newErr(ErrBufferOverflow, -1, "encode destination too small")
	}
	for i, b := range src {
		if _, ok := c.table.Encode(b); !ok {
			return 0, newErr(ErrInvalidCharacter, i, "no encoding for host byte")
		}
	}
	for i, b := range src {
		dst[i], _ = c.table.Encode(b)
	}
	return len(src), nil
}

// DecodeAlloc is the allocating convenience form of DecodeInto.
func (c *Codec) DecodeAlloc(src []byte) []byte {
	dst := make([]byte, len(src))
	_, _ = c.DecodeInto(dst, src)
	return dst
}

// EncodeAlloc is the allocating convenience form of EncodeInto. Bytes
// without an encoding are replaced with the substitute character rather
// than failing, matching the permissive display-layer behavior used by
// Screen/Field content construction (EncodeInto should be used instead
// where the strict, failing contract is required).
func (c *Codec) EncodeAlloc(src []byte) []byte {
	return c.table.EncodeBytes(src)
}

// DecodeString decodes EBCDIC bytes into a host-byte string, a thin
// convenience wrapper used by the Screen/Field builder.
func (c *Codec) DecodeString(src []byte) string {
	return string(c.table.DecodeBytes(src))
}

// EncodeString is the string-oriented counterpart to EncodeAlloc.
func (c *Codec) EncodeString(s string) []byte {
	return c.table.EncodeBytes([]byte(s))
}
