// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

// Package tn3270core implements the client-side protocol and screen core
// for the TN3270 data stream used by IBM mainframe transactional hosts
// (CICS, IMS, TSO/ISPF): an incremental outbound-stream parser, a
// deterministic executor that maintains a screen buffer and field table,
// a generator for the inbound Read-family reply stream, and an EBCDIC
// transcoder.
//
// The package is I/O-agnostic: callers feed it post-Telnet-decode bytes
// and receive reply bytes back. TCP/TLS, connection pooling, and
// reconnection are left to the caller; see the telnet.go framing adapter
// for the minimal IAC/EOR handling that sits between a raw socket and
// this package's Core.
package tn3270core

// DefaultRows and DefaultCols are the classic 3270 Model 2 screen
// geometry (24x80), used as the cmd/tn3270demo flag defaults; New and
// NewWithAlternate take rows and cols explicitly.
const (
	DefaultRows = 24
	DefaultCols = 80
)

// Supported alternate screen geometries, per spec: a faithful
// implementation must support at least these four (rows, cols) pairs.
var SupportedGeometries = [][2]int{
	{24, 80},
	{32, 80},
	{43, 80},
	{27, 132},
}
