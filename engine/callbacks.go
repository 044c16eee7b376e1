package engine

import (
	"context"
	"io"
	"sync"

	"github.com/monopole/sshexec/transport"
)

// headerSlack reserves room for SSH framing overhead when sizing the stdin
// pump's write unit (spec.md §4.4).
const headerSlack = 512

// minPumpUnit is the floor on the stdin pump's write unit regardless of how
// small the server's advertised max packet size is.
const minPumpUnit = 1024

// endpoints are the caller-facing sinks/sources the callback installer
// wires a channel's events into.
type endpoints struct {
	stdin  io.Reader
	stdout io.WriteCloser
	stderr io.WriteCloser
	logger Logger
}

// sink implements transport.Sink, translating channel events into Status
// mutation and local pipe writes exactly as spec.md §4.4 describes.
type sink struct {
	ep     endpoints
	status *Status
	c      *channel
	sess   *Session

	mu        sync.Mutex
	outClosed bool
	errClosed bool
	stopStdin context.CancelFunc
}

func installCallbacks(sess *Session, c *channel, w *Waiter, ep endpoints) *sink {
	s := &sink{ep: ep, status: &w.status, c: c, sess: sess}
	return s
}

func (s *sink) OnData(p []byte) {
	if s.ep.stdout == nil {
		return
	}
	if _, err := s.ep.stdout.Write(p); err != nil {
		return
	}
	if f, ok := s.ep.stdout.(flusher); ok {
		_ = f.Flush()
	}
	if s.ep.logger != nil {
		if h, ok := s.ep.logger.(StdoutHook); ok {
			h.Stdout(p)
		}
	}
}

func (s *sink) OnExtendedData(dataType uint32, p []byte) {
	if dataType != 1 {
		if s.ep.logger != nil {
			s.ep.logger.Warn("engine; unknown extended-data type, dropping")
		}
		return
	}
	if s.ep.stderr == nil {
		return
	}
	if _, err := s.ep.stderr.Write(p); err != nil {
		return
	}
	if f, ok := s.ep.stderr.(flusher); ok {
		_ = f.Flush()
	}
	if s.ep.logger != nil {
		if h, ok := s.ep.logger.(StderrHook); ok {
			h.Stderr(p)
		}
	}
}

func (s *sink) OnExitStatus(code uint32) { s.status.setExitCode(code) }

func (s *sink) OnExitSignal(name string, coredump bool) { s.status.setExitSignal(name, coredump) }

func (s *sink) OnEOF() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.outClosed && s.ep.stdout != nil {
		_ = s.ep.stdout.Close()
		s.outClosed = true
	}
	if !s.errClosed && s.ep.stderr != nil {
		_ = s.ep.stderr.Close()
		s.errClosed = true
	}
}

func (s *sink) OnClose(fault error) {
	s.mu.Lock()
	stop := s.stopStdin
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	if s.c.tc != nil {
		_ = s.c.tc.CloseWrite()
	}
	s.sess.mu.Lock()
	s.c.signalClose(fault)
	s.sess.mu.Unlock()
}

type flusher interface{ Flush() error }

// startStdinPump begins a goroutine that reads ep.stdin in units of
// max(minPumpUnit, remoteMaxPacket-headerSlack) and forwards each read, full
// or partial, as a channel data write. Reads block only the pump's own
// goroutine, so a slow producer never stalls the session. On end of stream
// (or any read error) it sends a channel-EOF request and returns.
func (s *sink) startStdinPump(tc transport.Channel, remoteMaxPacket uint32) {
	if s.ep.stdin == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.stopStdin = cancel
	s.mu.Unlock()

	unit := int(remoteMaxPacket) - headerSlack
	if unit < minPumpUnit {
		unit = minPumpUnit
	}

	go func() {
		buf := make([]byte, unit)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			n, err := s.ep.stdin.Read(buf)
			if n > 0 {
				if _, werr := tc.Write(buf[:n]); werr != nil {
					return
				}
				if s.ep.logger != nil {
					if h, ok := s.ep.logger.(StdinHook); ok {
						h.Stdin(buf[:n])
					}
				}
			}
			if err != nil {
				_ = tc.CloseWrite()
				return
			}
		}
	}()
}
