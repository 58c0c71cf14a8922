// Command tn3270demo is a thin, optional orchestration example around
// tn3270core: it dials a TN3270 host, maintains the terminal-side
// screen state, and lets an operator type field input and press AID
// keys from stdin. It is not a conformance surface -- see the teacher's
// own example* directories for the equivalent role on the host side.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/mwrx/tn3270core"
	"github.com/mwrx/tn3270core/internal/corelog"
)

func main() {
	addr := pflag.StringP("addr", "a", "localhost:3270", "host:port to connect to")
	codepage := pflag.StringP("codepage", "c", "037", "EBCDIC codepage (037, 273, 500, 1047)")
	rows := pflag.Int("rows", tn3270core.DefaultRows, "screen rows")
	cols := pflag.Int("cols", tn3270core.DefaultCols, "screen cols")
	termType := pflag.StringP("termtype", "t", tn3270core.DefaultTerminalType, "telnet terminal type")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	logger := corelog.New()
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	core, err := tn3270core.New(*rows, *cols, *codepage)
	if err != nil {
		logger.Error("failed to construct core", "err", err)
		os.Exit(1)
	}
	core.Logger = logger

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		logger.Error("dial failed", "addr", *addr, "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := tn3270core.NegotiateTelnet(conn, *termType); err != nil {
		logger.Error("telnet negotiation failed", "err", err)
		os.Exit(1)
	}

	framer := &tn3270core.TelnetFramer{}
	readBuf := make([]byte, 4096)

	go func() {
		for {
			n, err := conn.Read(readBuf)
			if err != nil {
				logger.Info("connection closed", "err", err)
				os.Exit(0)
			}
			clean := framer.DeEscape(readBuf[:n])
			if _, err := core.Feed(clean); err != nil {
				logger.Warn("feed error", "err", err)
				continue
			}
			printScreen(core)
		}
	}()

	fmt.Println("Commands: type <row> <col> <text> | aid <name> | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit":
			return
		case "type":
			if len(fields) < 4 {
				fmt.Println("usage: type <row> <col> <text>")
				continue
			}
			row, _ := strconv.Atoi(fields[1])
			col, _ := strconv.Atoi(fields[2])
			text := strings.Join(fields[3:], " ")
			addr := row**cols + col
			if err := core.Type(addr, []byte(text)); err != nil {
				fmt.Println("type error:", err)
			}
		case "aid":
			if len(fields) < 2 {
				fmt.Println("usage: aid <name>")
				continue
			}
			aid, ok := aidByName[strings.ToUpper(fields[1])]
			if !ok {
				fmt.Println("unknown aid:", fields[1])
				continue
			}
			if err := core.PressAID(aid); err != nil {
				fmt.Println("press aid error:", err)
				continue
			}
			sendReply(conn, core, logger)
		default:
			fmt.Println("unknown command")
		}
	}
}

var aidByName = map[string]tn3270core.AID{
	"ENTER": tn3270core.AIDEnter,
	"CLEAR": tn3270core.AIDClear,
	"PA1":   tn3270core.AIDPA1,
	"PA2":   tn3270core.AIDPA2,
	"PA3":   tn3270core.AIDPA3,
	"PF1":   tn3270core.AIDPF1,
	"PF2":   tn3270core.AIDPF2,
	"PF3":   tn3270core.AIDPF3,
	"PF4":   tn3270core.AIDPF4,
	"PF5":   tn3270core.AIDPF5,
}

func sendReply(conn net.Conn, core *tn3270core.Core, logger corelog.Logger) {
	buf := make([]byte, 65536)
	n, err := core.BuildReply(tn3270core.ReplyReadModified, buf)
	if err != nil {
		logger.Error("build reply failed", "err", err)
		return
	}
	if _, err := conn.Write(tn3270core.EscapeForWire(buf[:n])); err != nil {
		logger.Error("write reply failed", "err", err)
	}
}

func printScreen(core *tn3270core.Core) {
	snap := core.SnapshotScreen()
	fmt.Println(strings.Repeat("-", snap.Cols))
	for r := 0; r < snap.Rows; r++ {
		line := make([]byte, snap.Cols)
		for c := 0; c < snap.Cols; c++ {
			b := core.Codec().Decode(snap.Cells[r*snap.Cols+c])
			if b < 0x20 || b > 0x7e {
				b = ' '
			}
			line[c] = b
		}
		fmt.Println(string(line))
	}
}
