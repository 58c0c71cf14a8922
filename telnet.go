// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import "io"

// DefaultTerminalType is the terminal-type string negotiated when none
// is configured (spec.md §4.7).
const DefaultTerminalType = "IBM-3278-2"

// NegotiateTelnet performs the minimal, naive (peer responses are not
// inspected) option negotiation required to enter 3270 binary/EOR mode:
// TERMINAL-TYPE, EOR, and BINARY, adapted from the teacher's
// NegotiateTelnet with a configurable terminal-type string. An empty
// termType negotiates DefaultTerminalType.
func NegotiateTelnet(conn io.ReadWriter, termType string) error {
	if termType == "" {
		termType = DefaultTerminalType
	}
	rbuf := make([]byte, 255)

	conn.Write([]byte{0xff, 0xfd, 0x18}) // IAC DO TERMINAL-TYPE
	conn.Read(rbuf)

	sub := make([]byte, 0, len(termType)+6)
	sub = append(sub, 0xff, 0xfa, 0x18, 0x00) // IAC SB TERMINAL-TYPE IS
	sub = append(sub, termType...)
	sub = append(sub, 0xff, 0xf0) // IAC SE
	conn.Write(sub)
	conn.Read(rbuf)

	conn.Write([]byte{0xff, 0xfd, 0x19}) // IAC DO EOR
	conn.Read(rbuf)
	conn.Write([]byte{0xff, 0xfd, 0x00}) // IAC DO BINARY
	conn.Read(rbuf)

	conn.Write([]byte{0xff, 0xfb, 0x19, 0xff, 0xfb, 0x00}) // IAC WILL EOR, IAC WILL BINARY
	conn.Read(rbuf)

	return nil
}

// TelnetFramer de-escapes a raw inbound byte stream for Core.Feed:
// IAC IAC (0xFF 0xFF) collapses to a single literal 0xFF data byte;
// IAC EOR (0xFF 0xEF) is left intact since StreamParser itself detects
// that two-byte marker as the record terminator (spec.md §4.4, §4.7).
// It is safe to call DeEscape repeatedly on successive reads from the
// same connection: a lone trailing 0xFF is buffered across calls rather
// than misread.
type TelnetFramer struct {
	pendingFF bool
}

// DeEscape returns the de-escaped form of raw, consuming and advancing
// any state left over from a previous call.
func (t *TelnetFramer) DeEscape(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	i := 0

	if t.pendingFF {
		t.pendingFF = false
		if len(raw) > 0 && raw[0] == 0xFF {
			out = append(out, 0xFF)
			i = 1
		} else {
			out = append(out, 0xFF)
		}
	}

	for ; i < len(raw); i++ {
		if raw[i] != 0xFF {
			out = append(out, raw[i])
			continue
		}
		if i+1 >= len(raw) {
			t.pendingFF = true
			continue
		}
		if raw[i+1] == 0xFF {
			out = append(out, 0xFF)
			i++
			continue
		}
		// Anything else following an IAC (notably IAC EOR, 0xEF) is left
		// untouched for the core to interpret.
		out = append(out, raw[i])
	}
	return out
}

// EscapeForWire prepares a Replier-built frame (AID | cursor | body |
// literal IAC EOR) for transmission: every 0xFF byte in the body is
// doubled, while the frame's trailing two-byte IAC EOR marker is left
// as a literal, unescaped terminator.
func EscapeForWire(frame []byte) []byte {
	if len(frame) < 2 {
		out := make([]byte, len(frame))
		copy(out, frame)
		return out
	}
	body := frame[:len(frame)-2]
	out := make([]byte, 0, len(body)+2)
	for _, b := range body {
		out = append(out, b)
		if b == 0xFF {
			out = append(out, 0xFF)
		}
	}
	out = append(out, 0xFF, 0xEF)
	return out
}
