// Package xlog supplies the default Logger used when a caller doesn't
// configure one of their own. It follows the teacher's gated-writer
// pattern (a sink that drops everything unless verbose logging is
// enabled, wrapped in a standard log.Logger) rather than stdlib's bare
// log.Printf, so behavior stays consistent with the rest of the module's
// ancestry.
package xlog

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

// AbbrevMaxLen bounds how much of a logged payload (stdin/stdout/stderr
// chunk, command line) is printed before it's elided with "...".
const AbbrevMaxLen = 65

// Abbrev truncates x for logging if it's longer than AbbrevMaxLen.
func Abbrev(x string) string {
	if len(x) > AbbrevMaxLen {
		return x[:AbbrevMaxLen-1] + "..."
	}
	return x
}

var verbose atomic.Bool

// VerboseLoggingEnable turns on Default()'s output to stderr.
func VerboseLoggingEnable() { verbose.Store(true) }

// VerboseLoggingDisable silences Default()'s output again.
func VerboseLoggingDisable() { verbose.Store(false) }

type gatedSink struct{}

func (gatedSink) Write(p []byte) (int, error) {
	if verbose.Load() {
		return fmt.Fprint(os.Stderr, string(p))
	}
	return len(p), nil
}

var std = log.New(gatedSink{}, "SSHEXEC: ", log.Ldate|log.Ltime|log.Lshortfile)

// Logger is the default engine.Logger: four severities, all routed through
// the same gated std logger, silent unless VerboseLoggingEnable was called.
type Logger struct{}

// Default returns the package-level default Logger.
func Default() Logger { return Logger{} }

func (Logger) Debug(msg string) { std.Print("DEBUG " + msg) }
func (Logger) Info(msg string)  { std.Print("INFO  " + msg) }
func (Logger) Warn(msg string)  { std.Print("WARN  " + msg) }
func (Logger) Error(msg string) { std.Print("ERROR " + msg) }
