// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingSink captures every event StreamParser.Feed emits, for
// assertion in tests that don't need a full Executor.
type recordingSink struct {
	commands []struct {
		Code CommandCode
		WCC  WCC
	}
	orders []struct {
		Kind OrderKind
		Ops  OrderOperands
	}
	data     []byte
	records  int
	warnings []error
}

func (s *recordingSink) BeginCommand(code CommandCode, wcc WCC) {
	s.commands = append(s.commands, struct {
		Code CommandCode
		WCC  WCC
	}{code, wcc})
}

func (s *recordingSink) Order(kind OrderKind, ops OrderOperands) {
	s.orders = append(s.orders, struct {
		Kind OrderKind
		Ops  OrderOperands
	}{kind, ops})
}

func (s *recordingSink) Data(b byte)       { s.data = append(s.data, b) }
func (s *recordingSink) EndRecord()        { s.records++ }
func (s *recordingSink) Warning(err error) { s.warnings = append(s.warnings, err) }

func TestParserEraseWriteUnformatted(t *testing.T) {
	// Scenario S1: EraseWrite, WCC unlock+reset-MDT, SBA(0,0), "HELLO".
	input := []byte{0xF5, 0xC3, 0x11, 0x40, 0x40, 0xC8, 0xC5, 0xD3, 0xD3, 0xD6, 0xFF, 0xEF}

	sink := &recordingSink{}
	ps := NewParserState(1920)
	p := NewStreamParser(ps)
	require.NoError(t, p.Feed(input, sink))

	require.Len(t, sink.commands, 1)
	require.Equal(t, CmdEraseWrite, sink.commands[0].Code)
	require.True(t, sink.commands[0].WCC.KeyboardRestore)
	require.True(t, sink.commands[0].WCC.ResetMDT)

	require.Len(t, sink.orders, 1)
	require.Equal(t, OrderSBA, sink.orders[0].Kind)
	require.Equal(t, 0, sink.orders[0].Ops.Address)

	require.Equal(t, []byte{0xC8, 0xC5, 0xD3, 0xD3, 0xD6}, sink.data)
	require.Equal(t, 1, sink.records)
}

func TestParserSplitFeedEquivalence(t *testing.T) {
	// Scenario S5: every possible split of S1's bytes produces the same
	// events as a single feed.
	input := []byte{0xF5, 0xC3, 0x11, 0x40, 0x40, 0xC8, 0xC5, 0xD3, 0xD3, 0xD6, 0xFF, 0xEF}

	whole := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.NoError(t, p.Feed(input, whole))

	for split := 0; split <= len(input); split++ {
		split := split
		t.Run("", func(t *testing.T) {
			got := &recordingSink{}
			p2 := NewStreamParser(NewParserState(1920))
			require.NoError(t, p2.Feed(input[:split], got))
			require.NoError(t, p2.Feed(input[split:], got))

			require.Equal(t, whole.commands, got.commands)
			require.Equal(t, whole.orders, got.orders)
			require.Equal(t, whole.data, got.data)
			require.Equal(t, whole.records, got.records)
		})
	}
}

func TestParserReadCommandHasNoWCC(t *testing.T) {
	input := []byte{0xF6, 0xFF, 0xEF} // ReadModified, no WCC, empty body
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.NoError(t, p.Feed(input, sink))
	require.Equal(t, CmdReadModified, sink.commands[0].Code)
	require.Equal(t, WCC{}, sink.commands[0].WCC)
	require.Equal(t, 1, sink.records)
}

func TestParserUnknownCommandByte(t *testing.T) {
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	err := p.Feed([]byte{0x00}, sink)
	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestParserUnknownOrderSkippedAsDataWithWarning(t *testing.T) {
	// 0x00 is in the order opcode range (<= 0x3F) but not a recognized
	// mnemonic; default (non-strict) policy skips it as data.
	input := []byte{0xF1, 0x00, 0x00, 0xFF, 0xEF}
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.NoError(t, p.Feed(input, sink))
	require.Equal(t, []byte{0x00}, sink.data)
	require.Len(t, sink.warnings, 1)
	require.ErrorIs(t, sink.warnings[0], ErrUnknownOrder)
}

func TestParserSFEWithZeroPairs(t *testing.T) {
	input := []byte{0xF1, 0x00, opcodeSFE, 0x00, 0xFF, 0xEF}
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.NoError(t, p.Feed(input, sink))
	require.Len(t, sink.orders, 1)
	require.Equal(t, OrderSFE, sink.orders[0].Kind)
	require.Empty(t, sink.orders[0].Ops.Pairs)
}

func TestParserSFEExtendedPairs(t *testing.T) {
	input := []byte{
		0xF1, 0x00, opcodeSFE, 0x02,
		byte(ExtendedForegroundColor), byte(ColorGreen),
		byte(ExtendedHighlighting), byte(HighlightUnderscore),
		0xFF, 0xEF,
	}
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.NoError(t, p.Feed(input, sink))
	require.Len(t, sink.orders, 1)
	ops := sink.orders[0].Ops
	require.Equal(t, ColorGreen, ops.Attribute.Color)
	require.Equal(t, HighlightUnderscore, ops.Attribute.Highlight)
	require.Len(t, ops.Pairs, 2)
}

func TestParserRAOperands(t *testing.T) {
	input := []byte{0xF1, 0x00, opcodeRA, 0x40, 0x40, 0xE8, 0xFF, 0xEF} // stop=(0,0), char 'Y'=0xE8
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.NoError(t, p.Feed(input, sink))
	require.Equal(t, OrderRA, sink.orders[0].Kind)
	require.Equal(t, 0, sink.orders[0].Ops.Address)
	require.Equal(t, byte(0xE8), sink.orders[0].Ops.Char)
}

func TestParserGEConsumesOneByte(t *testing.T) {
	input := []byte{0xF1, 0x00, opcodeGE, 0xC1, 0xC2, 0xFF, 0xEF}
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.NoError(t, p.Feed(input, sink))
	require.Len(t, sink.orders, 1)
	require.Equal(t, OrderGE, sink.orders[0].Kind)
	require.Equal(t, []byte{0xC1, 0xC2}, sink.data)
}

func TestParserLiteralFFDataByteNotMistakenForEOR(t *testing.T) {
	// 0xFF followed by a byte other than 0xEF is literal data, not EOR.
	input := []byte{0xF1, 0x00, 0xFF, 0xC1, 0xFF, 0xEF}
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.NoError(t, p.Feed(input, sink))
	require.Equal(t, []byte{0xFF, 0xC1}, sink.data)
	require.Equal(t, 1, sink.records)
}

func TestParserTrailingFFAcrossFeedBoundary(t *testing.T) {
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.NoError(t, p.Feed([]byte{0xF1, 0x00, 0xC1, 0xFF}, sink))
	require.Equal(t, 0, sink.records)
	require.NoError(t, p.Feed([]byte{0xEF}, sink))
	require.Equal(t, 1, sink.records)
	require.Equal(t, []byte{0xC1}, sink.data)
}

func TestParserSBAInvalidAddressRejected(t *testing.T) {
	// 0x7f/0x7f decodes to 4095 under the 12-bit form, out of range for
	// a 1920-cell buffer.
	input := []byte{0xF1, 0x00, opcodeSBA, 0x7f, 0x7f, 0xC1, 0xFF, 0xEF}
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	err := p.Feed(input, sink)
	require.ErrorIs(t, err, ErrInvalidAddress)
	require.Empty(t, sink.orders)
	require.Equal(t, 0, sink.records)
}

func TestParserRAInvalidAddressRejected(t *testing.T) {
	input := []byte{0xF1, 0x00, opcodeRA, 0x7f, 0x7f, 0xE8, 0xFF, 0xEF}
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	err := p.Feed(input, sink)
	require.ErrorIs(t, err, ErrInvalidAddress)
	require.Empty(t, sink.orders)
	require.Equal(t, 0, sink.records)
}

func TestParserEUAInvalidAddressRejected(t *testing.T) {
	input := []byte{0xF1, 0x00, opcodeEUA, 0x7f, 0x7f, 0xFF, 0xEF}
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	err := p.Feed(input, sink)
	require.ErrorIs(t, err, ErrInvalidAddress)
	require.Empty(t, sink.orders)
	require.Equal(t, 0, sink.records)
}

func TestParserInvalidAddressResynchronisesOnNextRecord(t *testing.T) {
	// After a rejected SBA, the parser doesn't get stuck: a fresh,
	// well-formed record still parses normally.
	bad := []byte{0xF1, 0x00, opcodeSBA, 0x7f, 0x7f, 0xC1, 0xFF, 0xEF}
	good := []byte{0xF1, 0x00, opcodeSBA, 0x40, 0x40, 0xC1, 0xFF, 0xEF}

	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.ErrorIs(t, p.Feed(bad, sink), ErrInvalidAddress)
	require.NoError(t, p.Feed(good, sink))
	require.Len(t, sink.orders, 1)
	require.Equal(t, OrderSBA, sink.orders[0].Kind)
	require.Equal(t, 0, sink.orders[0].Ops.Address)
	require.Equal(t, 1, sink.records)
}

func TestParserTruncatedOrderWarnsAcrossFeedBoundary(t *testing.T) {
	// RA's operand is 3 bytes; splitting mid-operand leaves the order
	// truncated for one Feed call, which should warn but not error.
	sink := &recordingSink{}
	p := NewStreamParser(NewParserState(1920))
	require.NoError(t, p.Feed([]byte{0xF1, 0x00, opcodeRA, 0x40}, sink))
	require.Len(t, sink.warnings, 1)
	require.ErrorIs(t, sink.warnings[0], ErrTruncatedOrder)
	require.Empty(t, sink.orders)

	require.NoError(t, p.Feed([]byte{0x40, 0xE8, 0xFF, 0xEF}, sink))
	require.Len(t, sink.orders, 1)
	require.Equal(t, OrderRA, sink.orders[0].Kind)
	require.Equal(t, 1, sink.records)
}

func TestParserProtocolTimeoutAfterByteCeiling(t *testing.T) {
	// A record that never reaches EndRecord within the byte ceiling is
	// fatal, surfacing ErrProtocolTimeout rather than hanging forever.
	ps := NewParserState(1920)
	ps.RecordByteCeiling = 8
	p := NewStreamParser(ps)
	sink := &recordingSink{}

	input := append([]byte{0xF1, 0x00}, make([]byte, 32)...) // 32 literal data bytes, no EOR
	for i := 2; i < len(input); i++ {
		input[i] = 0xC1
	}
	err := p.Feed(input, sink)
	require.ErrorIs(t, err, ErrProtocolTimeout)
	require.Equal(t, 0, sink.records)
}

func TestWCCEncodeDecodeRoundTrip(t *testing.T) {
	w := WCC{KeyboardRestore: true, ResetMDT: true}
	wire := w.EncodeByte()
	require.Equal(t, byte(0xc3), wire)
	got := DecodeWCC(wire)
	require.Equal(t, w, got)
}
