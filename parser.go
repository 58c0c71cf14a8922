// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

// CommandCode identifies an outbound record's leading command byte
// (spec.md §4.4).
type CommandCode int

const (
	CmdWrite CommandCode = iota
	CmdEraseWrite
	CmdEraseWriteAlternate
	CmdEraseAllUnprotected
	CmdWriteStructuredField
	CmdReadBuffer
	CmdReadModified
	CmdReadModifiedAll
)

func (c CommandCode) String() string {
	switch c {
	case CmdWrite:
		return "Write"
	case CmdEraseWrite:
		return "EraseWrite"
	case CmdEraseWriteAlternate:
		return "EraseWriteAlternate"
	case CmdEraseAllUnprotected:
		return "EraseAllUnprotected"
	case CmdWriteStructuredField:
		return "WriteStructuredField"
	case CmdReadBuffer:
		return "ReadBuffer"
	case CmdReadModified:
		return "ReadModified"
	case CmdReadModifiedAll:
		return "ReadModifiedAll"
	default:
		return "Unknown"
	}
}

// commandByByte recognizes the EBCDIC-safe ("high") command code set;
// real 3270 devices also accept a low, non-EBCDIC-safe set for the same
// commands, which this parser does not need to recognize since every
// modern host emits the high set (the same set the teacher's screen.go
// writes: 0xf5 for Erase/Write).
var commandByByte = map[byte]CommandCode{
	0xF1: CmdWrite,
	0xF5: CmdEraseWrite,
	0x7E: CmdEraseWriteAlternate,
	0x6F: CmdEraseAllUnprotected,
	0xF3: CmdWriteStructuredField,
	0xF2: CmdReadBuffer,
	0xF6: CmdReadModified,
	0x6E: CmdReadModifiedAll,
}

// commandHasWCC reports whether a command byte is followed by a WCC
// byte. Read-family commands have none; nor does Write Structured Field,
// whose body has its own self-describing length-prefixed format (out of
// scope here -- see spec.md §1 Non-goals).
func commandHasWCC(c CommandCode) bool {
	switch c {
	case CmdReadBuffer, CmdReadModified, CmdReadModifiedAll, CmdWriteStructuredField:
		return false
	default:
		return true
	}
}

// WCC is the Write Control Character described by spec.md §4.4. Like
// buffer addresses and basic attribute bytes, its wire byte is a 6-bit
// value passed through the same addressCodes table -- this is why the
// teacher's screen.go WCC literal 0xc3 ("Reset, Unlock Keyboard, Reset
// MDT") decodes, under that table, to raw value 3: bits 0 and 1 set,
// matching KeyboardRestore and ResetMDT below.
type WCC struct {
	ResetPartition  bool
	StartPrinter    bool
	SoundAlarm      bool
	KeyboardRestore bool
	ResetMDT        bool
}

const (
	wccBitResetMDT        = 0x01
	wccBitKeyboardRestore = 0x02
	wccBitSoundAlarm      = 0x04
	wccBitStartPrinter    = 0x08
	wccBitResetPartition  = 0x10
)

// DecodeWCC unpacks a WCC wire byte. An unrecognized byte (not in the
// address code table) decodes permissively to the zero-value WCC rather
// than failing the record -- a host sending a malformed WCC should not
// be able to wedge an otherwise-valid Write/Erase command.
func DecodeWCC(wire byte) WCC {
	raw := addressDecodes[wire]
	if raw == 0xff {
		return WCC{}
	}
	return WCC{
		ResetMDT:        raw&wccBitResetMDT != 0,
		KeyboardRestore: raw&wccBitKeyboardRestore != 0,
		SoundAlarm:      raw&wccBitSoundAlarm != 0,
		StartPrinter:    raw&wccBitStartPrinter != 0,
		ResetPartition:  raw&wccBitResetPartition != 0,
	}
}

// EncodeByte packs a WCC back into its wire byte.
func (w WCC) EncodeByte() byte {
	var raw byte
	if w.ResetMDT {
		raw |= wccBitResetMDT
	}
	if w.KeyboardRestore {
		raw |= wccBitKeyboardRestore
	}
	if w.SoundAlarm {
		raw |= wccBitSoundAlarm
	}
	if w.StartPrinter {
		raw |= wccBitStartPrinter
	}
	if w.ResetPartition {
		raw |= wccBitResetPartition
	}
	return addressCodes[raw]
}

// OrderKind identifies one of the minimum-conformance orders of
// spec.md §4.4.
type OrderKind int

const (
	OrderSF OrderKind = iota
	OrderSFE
	OrderSBA
	OrderSA
	OrderMF
	OrderIC
	OrderPT
	OrderRA
	OrderEUA
	OrderGE
)

func (k OrderKind) String() string {
	switch k {
	case OrderSF:
		return "SF"
	case OrderSFE:
		return "SFE"
	case OrderSBA:
		return "SBA"
	case OrderSA:
		return "SA"
	case OrderMF:
		return "MF"
	case OrderIC:
		return "IC"
	case OrderPT:
		return "PT"
	case OrderRA:
		return "RA"
	case OrderEUA:
		return "EUA"
	case OrderGE:
		return "GE"
	default:
		return "?"
	}
}

const (
	opcodeSF  = 0x1D
	opcodeSFE = 0x29
	opcodeSBA = 0x11
	opcodeSA  = 0x28
	opcodeMF  = 0x2C
	opcodeIC  = 0x13
	opcodePT  = 0x05
	opcodeRA  = 0x3C
	opcodeEUA = 0x12
	opcodeGE  = 0x08
)

var orderByOpcode = map[byte]OrderKind{
	opcodeSF:  OrderSF,
	opcodeSFE: OrderSFE,
	opcodeSBA: OrderSBA,
	opcodeSA:  OrderSA,
	opcodeMF:  OrderMF,
	opcodeIC:  OrderIC,
	opcodePT:  OrderPT,
	opcodeRA:  OrderRA,
	opcodeEUA: OrderEUA,
	opcodeGE:  OrderGE,
}

// ExtPair is a decoded (type, value) pair from an SFE or MF order.
type ExtPair struct {
	Type  byte
	Value byte
}

// OrderOperands carries the decoded operand(s) of one Order event. Only
// the fields relevant to Kind are meaningful; see the per-kind
// descriptions in spec.md §4.4.
type OrderOperands struct {
	Attribute FieldAttribute // SF
	Pairs     []ExtPair      // SFE, MF
	Address   int            // SBA; RA/EUA stop address
	Pair      ExtPair        // SA
	Char      byte           // RA fill character (raw EBCDIC byte)
}

// Sink is the event consumer StreamParser.Feed drives. Event order
// within a record is always BeginCommand, then zero or more
// Order/Data events, then EndRecord.
type Sink interface {
	BeginCommand(code CommandCode, wcc WCC)
	Order(kind OrderKind, operands OrderOperands)
	Data(b byte)
	EndRecord()
}

// WarningSink is an optional extension a Sink may implement to receive
// recoverable parse warnings (spec.md §4.4 UnknownOrder recovery
// policy: "raise a recoverable warning via the sink").
type WarningSink interface {
	Warning(err error)
}

func warn(sink Sink, err error) {
	if ws, ok := sink.(WarningSink); ok {
		ws.Warning(err)
	}
}

type parserMode int

const (
	modeCommand parserMode = iota
	modeWCC
	modeOrderOrData
	modeOrderOperand
)

// accumulatorCap bounds ParserState.accum: the longest possible operand
// sequence is SFE's pair list, a 1-byte count followed by up to 255
// (type, value) pairs (spec.md §5's backpressure bound).
const accumulatorCap = 1 + 255*2

// DefaultRecordByteCeiling is the default value of
// ParserState.RecordByteCeiling: a record that has consumed this many
// bytes without reaching EndRecord is fatal to the session rather than
// waited on forever (spec.md §7).
const DefaultRecordByteCeiling = 64 * 1024

// ParserState is the StreamParser's resumable, per-session state
// (spec.md §3). It is retained across Feed calls so a record fragmented
// arbitrarily by the transport still parses correctly and exactly once.
type ParserState struct {
	mode           parserMode
	bufSize        int
	addrForm       addressForm
	pendingCommand CommandCode
	isStructured   bool // true while inside a WriteStructuredField body (stubbed: treated as opaque data)

	pendingOrder OrderKind
	needBytes    int // bytes still required to complete the pending order
	accum        [accumulatorCap]byte
	accumLen     int
	needCountByte bool // SFE/MF: next accum byte is the pair count, not yet known

	geArmed  bool // GE seen; the next Data byte is alternate-charset
	pendingFF bool // a lone 0xFF was the last byte of the previous Feed call

	// bytesConsumedInRecord counts bytes consumed since the current
	// record's command byte, reset to 0 on EndRecord. A host that never
	// sends an EOR would otherwise stall the parser forever; once this
	// exceeds RecordByteCeiling, Feed gives up on the record and returns
	// ErrProtocolTimeout (spec.md §3, §7).
	bytesConsumedInRecord int

	// RecordByteCeiling bounds bytesConsumedInRecord; set by
	// NewParserState to DefaultRecordByteCeiling, overridable per
	// session.
	RecordByteCeiling int

	// Strict, when true, makes UnknownOrder a fatal record error instead
	// of the default skip-as-data recovery policy.
	Strict bool
}

// NewParserState returns a ParserState for a buffer of bufSize cells,
// ready to parse a new record.
func NewParserState(bufSize int) *ParserState {
	return &ParserState{
		mode:              modeCommand,
		bufSize:           bufSize,
		addrForm:          addressFormFor(bufSize),
		RecordByteCeiling: DefaultRecordByteCeiling,
	}
}

// BytesConsumedInRecord returns the number of bytes consumed since the
// current record's command byte (0 between records).
func (ps *ParserState) BytesConsumedInRecord() int { return ps.bytesConsumedInRecord }

// Reset discards any partially parsed record and returns the parser to
// its initial state, as happens on Bind or an explicit reset request
// from the Executor.
func (ps *ParserState) Reset() {
	strict := ps.Strict
	ceiling := ps.RecordByteCeiling
	*ps = ParserState{mode: modeCommand, bufSize: ps.bufSize, addrForm: ps.addrForm,
		Strict: strict, RecordByteCeiling: ceiling}
}

// StreamParser is the incremental outbound-stream decoder of spec.md
// §4.4.
type StreamParser struct {
	state *ParserState
}

// NewStreamParser returns a StreamParser backed by state. Passing an
// existing ParserState lets a caller inspect/reset it directly; passing
// a fresh one from NewParserState is the common case.
func NewStreamParser(state *ParserState) *StreamParser {
	return &StreamParser{state: state}
}

// Feed decodes as much of data as forms complete commands/orders/data,
// driving sink for each event, and retains any trailing partial order in
// ParserState for the next Feed call. Feeding the concatenation of two
// byte slices produces the same events and end state as feeding them
// separately, in either split (spec.md §8.4).
func (p *StreamParser) Feed(data []byte, sink Sink) (err error) {
	ps := p.state

	// A Feed call that ends mid-order (not enough bytes yet to complete
	// its operands) is exactly spec.md's TruncatedOrder: transient, and
	// only raised as a warning unless it persists past the byte ceiling
	// below (in which case it escalates to the fatal ErrProtocolTimeout
	// returned directly, and this defer is skipped by err != nil).
	defer func() {
		if err == nil && ps.mode == modeOrderOperand && ps.accumLen < ps.needBytes {
			warn(sink, newErr(ErrTruncatedOrder, ps.bytesConsumedInRecord,
				"order operands incomplete, waiting for more bytes"))
		}
	}()

	i := 0
	for i < len(data) {
		switch ps.mode {
		case modeCommand:
			b := data[i]
			i++
			code, ok := commandByByte[b]
			if !ok {
				return newErr(ErrInvalidCommand, i-1, "unrecognized command byte")
			}
			ps.pendingCommand = code
			ps.isStructured = code == CmdWriteStructuredField
			ps.bytesConsumedInRecord = 1
			if commandHasWCC(code) {
				ps.mode = modeWCC
			} else {
				sink.BeginCommand(code, WCC{})
				ps.mode = modeOrderOrData
			}

		case modeWCC:
			b := data[i]
			i++
			ps.bytesConsumedInRecord++
			sink.BeginCommand(ps.pendingCommand, DecodeWCC(b))
			ps.mode = modeOrderOrData

		case modeOrderOrData:
			consumed, done := p.stepOrderOrData(data[i:], sink)
			i += consumed
			ps.bytesConsumedInRecord += consumed
			if done {
				ps.mode = modeCommand
				ps.bytesConsumedInRecord = 0
			}
			if consumed == 0 && !done {
				// stepOrderOrData always consumes at least one byte
				// unless Strict rejected an unknown order byte: fail the
				// record and resynchronise on the next command byte.
				pos := ps.bytesConsumedInRecord
				ps.mode = modeCommand
				ps.bytesConsumedInRecord = 0
				return newErr(ErrUnknownOrder, pos, "unrecognized order byte")
			}

		case modeOrderOperand:
			consumed, operr := p.stepOrderOperand(data[i:], sink)
			i += consumed
			ps.bytesConsumedInRecord += consumed
			if operr != nil {
				// The record cannot be trusted past a rejected operand;
				// resynchronise on the next command byte rather than
				// re-dispatching the same stale operand.
				ps.mode = modeCommand
				ps.bytesConsumedInRecord = 0
				return operr
			}
		}

		if ps.mode != modeCommand && ps.bytesConsumedInRecord > ps.RecordByteCeiling {
			ps.mode = modeCommand
			consumedSoFar := ps.bytesConsumedInRecord
			ps.bytesConsumedInRecord = 0
			return newErr(ErrProtocolTimeout, consumedSoFar,
				"record exceeded byte ceiling without reaching end of record")
		}
	}
	return nil
}

// stepOrderOrData consumes either the IAC-EOR record terminator, one
// order's opcode (transitioning to modeOrderOperand), or one literal
// data byte. It returns the number of input bytes consumed and whether
// the record ended.
func (p *StreamParser) stepOrderOrData(data []byte, sink Sink) (consumed int, endRecord bool) {
	ps := p.state

	if ps.pendingFF {
		if len(data) == 0 {
			return 0, false
		}
		ps.pendingFF = false
		if data[0] == 0xEF {
			sink.EndRecord()
			return 1, true
		}
		// The buffered 0xFF was literal data, not part of an EOR marker;
		// data[0] is then handled below like any other byte.
		p.emitData(0xFF, sink)
	}

	if len(data) == 0 {
		return 0, false
	}

	if data[0] == 0xFF {
		if len(data) < 2 {
			ps.pendingFF = true
			return 1, false
		}
		if data[1] == 0xEF {
			sink.EndRecord()
			return 2, true
		}
		p.emitData(0xFF, sink)
		return 1, false
	}

	if ps.geArmed {
		// The byte after a Graphic Escape is its character operand,
		// never an order opcode.
		p.emitData(data[0], sink)
		return 1, false
	}

	if ps.isStructured {
		// Write Structured Field bodies are out of scope (spec.md §1
		// Non-goals); treat every byte as opaque data until EndRecord.
		p.emitData(data[0], sink)
		return 1, false
	}

	b := data[0]
	kind, isOrder := orderByOpcode[b]
	if !isOrder {
		if b <= 0x3F {
			// Recognized opcode range, unrecognized specific opcode.
			if ps.Strict {
				return 0, false // caller should treat as a fatal error
			}
			warn(sink, newErr(ErrUnknownOrder, -1, "unrecognized order byte, skipping as data"))
			p.emitData(b, sink)
			return 1, false
		}
		p.emitData(b, sink)
		return 1, false
	}

	return 1 + p.beginOrder(kind, sink), false
}

// beginOrder starts collecting an order's operands (or, for zero-operand
// orders, emits immediately). It returns the number of *additional*
// bytes consumed beyond the opcode itself (always 0, since operand
// collection happens in modeOrderOperand on subsequent Feed-loop turns).
func (p *StreamParser) beginOrder(kind OrderKind, sink Sink) int {
	ps := p.state
	switch kind {
	case OrderIC:
		sink.Order(OrderIC, OrderOperands{})
		return 0
	case OrderPT:
		sink.Order(OrderPT, OrderOperands{})
		return 0
	case OrderGE:
		ps.geArmed = true
		sink.Order(OrderGE, OrderOperands{})
		return 0
	}

	ps.pendingOrder = kind
	ps.accumLen = 0
	ps.needCountByte = false
	switch kind {
	case OrderSF:
		ps.needBytes = 1
	case OrderSBA:
		ps.needBytes = 2
	case OrderSA:
		ps.needBytes = 2
	case OrderRA:
		ps.needBytes = 3
	case OrderEUA:
		ps.needBytes = 2
	case OrderSFE, OrderMF:
		ps.needBytes = 1 // the pair-count byte; more is added once known
		ps.needCountByte = true
	}
	ps.mode = modeOrderOperand
	return 0
}

// stepOrderOperand accumulates operand bytes for the in-progress order,
// dispatching the Order event once complete. An error return means the
// order was rejected outright (e.g. an out-of-range buffer address);
// the caller must not re-enter modeOrderOperand with this state.
func (p *StreamParser) stepOrderOperand(data []byte, sink Sink) (consumed int, err error) {
	ps := p.state
	for consumed < len(data) && ps.accumLen < ps.needBytes {
		ps.accum[ps.accumLen] = data[consumed]
		ps.accumLen++
		consumed++

		if ps.needCountByte && ps.accumLen == 1 {
			// The first byte for SFE/MF is the pair count; now we know
			// the true total length.
			count := int(ps.accum[0])
			ps.needBytes = 1 + count*2
			ps.needCountByte = false
		}
	}

	if ps.accumLen < ps.needBytes {
		return consumed, nil
	}

	if err := p.dispatchOrder(sink); err != nil {
		return consumed, err
	}
	ps.mode = modeOrderOrData
	return consumed, nil
}

// dispatchOrder emits the Order event for the now-fully-accumulated
// pending order. A buffer address that decodes out of range for
// SBA/RA/EUA is rejected outright (spec.md §8: "SBA to an address >
// rows*cols is rejected as InvalidAddress"), unlike SF's unrecognized
// attribute byte, which falls back to a default attribute rather than
// failing the record.
func (p *StreamParser) dispatchOrder(sink Sink) error {
	ps := p.state
	switch ps.pendingOrder {
	case OrderSF:
		attr, err := DecodeAttributeByte(ps.accum[0])
		if err != nil {
			// Not a recognized attribute byte; fall back to an
			// unprotected/normal field rather than failing the whole
			// record over a single malformed byte.
			attr = FieldAttribute{}
		}
		sink.Order(OrderSF, OrderOperands{Attribute: attr})

	case OrderSFE:
		count := int(ps.accum[0])
		pairs := make([]ExtPair, count)
		for i := 0; i < count; i++ {
			pairs[i] = ExtPair{Type: ps.accum[1+2*i], Value: ps.accum[2+2*i]}
		}
		var attr FieldAttribute
		for _, pr := range pairs {
			attr.ApplyExtendedPair(pr.Type, pr.Value)
		}
		sink.Order(OrderSFE, OrderOperands{Attribute: attr, Pairs: pairs})

	case OrderSBA:
		addr, err := decodeAddress([2]byte{ps.accum[0], ps.accum[1]}, ps.addrForm, ps.bufSize)
		if err != nil {
			return err
		}
		sink.Order(OrderSBA, OrderOperands{Address: addr})

	case OrderSA:
		sink.Order(OrderSA, OrderOperands{Pair: ExtPair{Type: ps.accum[0], Value: ps.accum[1]}})

	case OrderMF:
		count := int(ps.accum[0])
		pairs := make([]ExtPair, count)
		for i := 0; i < count; i++ {
			pairs[i] = ExtPair{Type: ps.accum[1+2*i], Value: ps.accum[2+2*i]}
		}
		sink.Order(OrderMF, OrderOperands{Pairs: pairs})

	case OrderRA:
		addr, err := decodeAddress([2]byte{ps.accum[0], ps.accum[1]}, ps.addrForm, ps.bufSize)
		if err != nil {
			return err
		}
		sink.Order(OrderRA, OrderOperands{Address: addr, Char: ps.accum[2]})

	case OrderEUA:
		addr, err := decodeAddress([2]byte{ps.accum[0], ps.accum[1]}, ps.addrForm, ps.bufSize)
		if err != nil {
			return err
		}
		sink.Order(OrderEUA, OrderOperands{Address: addr})
	}
	return nil
}

// emitData forwards a literal byte to the sink, consuming and clearing
// any armed Graphic Escape flag. The byte following GE reaches the sink
// unchanged via sink.Data, right after the Order(OrderGE, ...) event; the
// Executor stores it like any other data byte and does not interpret the
// alternate character set. The parser's role is only to ensure GE
// consumes exactly the one byte that follows it.
func (p *StreamParser) emitData(b byte, sink Sink) {
	p.state.geArmed = false
	sink.Data(b)
}
