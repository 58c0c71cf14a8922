// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// loopbackConn feeds back a canned response on every Read, just enough
// for NegotiateTelnet's "write, then drain a response" pattern.
type loopbackConn struct {
	written bytes.Buffer
}

func (c *loopbackConn) Write(p []byte) (int, error) {
	c.written.Write(p)
	return len(p), nil
}

func (c *loopbackConn) Read(p []byte) (int, error) {
	// Pretend the peer agreed to everything; content doesn't matter since
	// NegotiateTelnet never inspects it.
	p[0] = 0xff
	return 1, nil
}

func TestNegotiateTelnetSendsExpectedSequence(t *testing.T) {
	conn := &loopbackConn{}
	require.NoError(t, NegotiateTelnet(conn, "IBM-3278-2"))

	out := conn.written.Bytes()
	require.Contains(t, string(out), "IBM-3278-2")
	require.True(t, bytes.Contains(out, []byte{0xff, 0xfd, 0x18})) // DO TERMINAL-TYPE
	require.True(t, bytes.Contains(out, []byte{0xff, 0xfd, 0x19})) // DO EOR
	require.True(t, bytes.Contains(out, []byte{0xff, 0xfb, 0x19})) // WILL EOR
}

func TestNegotiateTelnetDefaultsTerminalType(t *testing.T) {
	conn := &loopbackConn{}
	require.NoError(t, NegotiateTelnet(conn, ""))
	require.True(t, bytes.Contains(conn.written.Bytes(), []byte(DefaultTerminalType)))
}

func TestTelnetFramerUndoublesIAC(t *testing.T) {
	f := &TelnetFramer{}
	got := f.DeEscape([]byte{0xC1, 0xFF, 0xFF, 0xC2})
	require.Equal(t, []byte{0xC1, 0xFF, 0xC2}, got)
}

func TestTelnetFramerLeavesEORIntact(t *testing.T) {
	f := &TelnetFramer{}
	got := f.DeEscape([]byte{0xC1, 0xFF, 0xEF})
	require.Equal(t, []byte{0xC1, 0xFF, 0xEF}, got)
}

func TestTelnetFramerSplitIACAcrossCalls(t *testing.T) {
	f := &TelnetFramer{}
	got1 := f.DeEscape([]byte{0xC1, 0xFF})
	got2 := f.DeEscape([]byte{0xFF, 0xC2})
	require.Equal(t, []byte{0xC1}, got1)
	require.Equal(t, []byte{0xFF, 0xC2}, got2)
}

func TestTelnetFramerSplitIACEORAcrossCalls(t *testing.T) {
	// A lone 0xFF buffered from the previous call is not known to start an
	// EOR marker until the next byte arrives; once it turns out to be
	// 0xEF, the buffered 0xFF is re-emitted ahead of it so the parser still
	// sees the literal two-byte IAC EOR marker.
	f := &TelnetFramer{}
	got1 := f.DeEscape([]byte{0xC1, 0xFF})
	got2 := f.DeEscape([]byte{0xEF})
	require.Equal(t, []byte{0xC1}, got1)
	require.Equal(t, []byte{0xFF, 0xEF}, got2)
}

func TestEscapeForWireDoublesFFInBodyNotTerminator(t *testing.T) {
	frame := []byte{0x7D, 0x40, 0x40, 0xFF, 0xC1, 0xFF, 0xEF}
	got := EscapeForWire(frame)
	require.Equal(t, []byte{0x7D, 0x40, 0x40, 0xFF, 0xFF, 0xC1, 0xFF, 0xEF}, got)
}

func TestEscapeForWireNoBodyBytes(t *testing.T) {
	frame := []byte{0x6D, 0x40, 0x40, 0xFF, 0xEF}
	got := EscapeForWire(frame)
	require.Equal(t, frame, got)
}
