package engine

import "fmt"

// Status is how a remote process ended. It's created empty by a waiter and
// mutated exactly once, by whichever of setExitCode/setExitSignal the
// server's exit notification triggers; it's only ever read after the
// waiter that owns it has completed, so no lock guards the fields
// themselves — the waiter's completion (a channel receive) is the
// happens-before edge.
type Status struct {
	exitCode   *int
	termSignal string
	coredump   bool
}

func (s *Status) setExitCode(code uint32) {
	if s.exitCode != nil || s.termSignal != "" {
		return
	}
	c := int(code)
	s.exitCode = &c
}

func (s *Status) setExitSignal(name string, coredump bool) {
	if s.exitCode != nil || s.termSignal != "" {
		return
	}
	s.termSignal = name
	s.coredump = coredump
}

// Exited reports whether the process ran to completion and returned a exit
// code (as opposed to dying from a signal, or the channel closing before
// either notification arrived).
func (s *Status) Exited() bool { return s.exitCode != nil }

// Signaled reports whether the process was terminated by a signal.
func (s *Status) Signaled() bool { return s.termSignal != "" }

// ExitCode returns the exit code and whether one was ever set.
func (s *Status) ExitCode() (int, bool) {
	if s.exitCode == nil {
		return 0, false
	}
	return *s.exitCode, true
}

// TermSignal returns the signal name exactly as delivered by the server (see
// SignalNumber for its translation to a local signal number) and whether
// the process was in fact signaled.
func (s *Status) TermSignal() (string, bool) {
	if s.termSignal == "" {
		return "", false
	}
	return s.termSignal, true
}

// Coredump reports whether the server said the process dumped core. Only
// meaningful when Signaled is true.
func (s *Status) Coredump() bool { return s.coredump }

// Success reports whether the process exited with status 0. The second
// return is false ("unknown") whenever the process was signaled or the
// channel closed before any termination notice arrived — callers must not
// conflate "not known to have failed" with "succeeded".
func (s *Status) Success() (ok bool, known bool) {
	if s.exitCode == nil {
		return false, false
	}
	return *s.exitCode == 0, true
}

func (s *Status) String() string {
	switch {
	case s.exitCode != nil:
		return fmt.Sprintf("exited(%d)", *s.exitCode)
	case s.termSignal != "":
		return fmt.Sprintf("signaled(%s,coredump=%v)", s.termSignal, s.coredump)
	default:
		return "uninitialized"
	}
}
