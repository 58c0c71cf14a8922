// Package corelog gives the core a single place to configure structured
// logging, replacing the teacher's package-global Debug io.Writer with
// an injectable charmbracelet/log logger.
package corelog

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the interface the core depends on; *log.Logger satisfies it
// directly, so callers who already have one can pass it straight
// through.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
	With(keyvals ...interface{}) *log.Logger
}

// New returns a logger writing to os.Stderr at Info level, prefixed
// "tn3270core".
func New() *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "tn3270core",
	})
	l.SetLevel(log.InfoLevel)
	return l
}

// Discard returns a logger that writes nothing, the default for a Core
// built without an explicit logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}
