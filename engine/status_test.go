package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Uninitialized(t *testing.T) {
	var s Status
	assert.False(t, s.Exited())
	assert.False(t, s.Signaled())
	ok, known := s.Success()
	assert.False(t, ok)
	assert.False(t, known)
	assert.Equal(t, "uninitialized", s.String())
}

func TestStatus_ExitCode(t *testing.T) {
	var s Status
	s.setExitCode(3)
	code, ok := s.ExitCode()
	assert.True(t, ok)
	assert.Equal(t, 3, code)
	assert.True(t, s.Exited())
	assert.False(t, s.Signaled())
	ok, known := s.Success()
	assert.False(t, ok)
	assert.True(t, known)

	// Second write is ignored; the status is mutated exactly once.
	s.setExitCode(0)
	code, _ = s.ExitCode()
	assert.Equal(t, 3, code)
}

func TestStatus_Success(t *testing.T) {
	var s Status
	s.setExitCode(0)
	ok, known := s.Success()
	assert.True(t, ok)
	assert.True(t, known)
}

func TestStatus_Signaled(t *testing.T) {
	var s Status
	s.setExitSignal("QUIT", true)
	assert.False(t, s.Exited())
	assert.True(t, s.Signaled())
	name, ok := s.TermSignal()
	assert.True(t, ok)
	assert.Equal(t, "QUIT", name)
	assert.True(t, s.Coredump())

	// A signal leaves exit code/Success unknown, never false-success.
	ok, known := s.Success()
	assert.False(t, ok)
	assert.False(t, known)

	// setExitCode after a signal is ignored too; only the first write wins.
	s.setExitCode(1)
	assert.False(t, s.Exited())
}

func TestStatus_SignalNumber(t *testing.T) {
	var s Status
	_, ok := s.SignalNumber()
	assert.False(t, ok)

	s.setExitSignal("TERM", false)
	n, ok := s.SignalNumber()
	assert.True(t, ok)
	assert.Equal(t, 15, n) // SIGTERM

	var other Status
	other.setExitSignal("NOTASIGNAL", false)
	_, ok = other.SignalNumber()
	assert.False(t, ok)
}
