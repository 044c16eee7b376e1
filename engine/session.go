package engine

import (
	"os"
	"sync"

	"github.com/monopole/sshexec/transport"
)

// Session owns one transport.Transport and drives its session loop
// (spec.md §4.5): a single goroutine that services transport bookkeeping
// for every channel opened against it, cooperating with caller goroutines
// through one shared mutex and a wake pipe.
//
// Unlike the source this is translated from, golang.org/x/crypto/ssh (and
// this module's fake transport) already run their own safe-for-concurrent
// use I/O multiplexing in a background goroutine; the loop here therefore
// owns registry bookkeeping and orderly teardown rather than raw socket
// I/O, while per-channel data delivery runs on the goroutines the
// transport's Channel.StartPump spins up. This keeps §5's guarantees
// (single-channel ordering, no cross-channel ordering, no orphaned
// waiters) without re-deriving a select loop the standard library and the
// SSH package already provide.
type Session struct {
	t transport.Transport

	mu       sync.Mutex
	cond     *sync.Cond
	channels map[*channel]struct{}
	closed   bool

	wakeR, wakeW *os.File
	loopDone     chan struct{}
}

// NewSession starts the session loop over t and returns once it's running.
func NewSession(t transport.Transport) (*Session, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, wrapf("creating wake pipe: %w", err)
	}
	s := &Session{
		t:        t,
		channels: make(map[*channel]struct{}),
		wakeR:    r,
		wakeW:    w,
		loopDone: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s, nil
}

// Transport returns the underlying transport.
func (s *Session) Transport() transport.Transport { return s.t }

// newChannel allocates a channel wrapper whose close condition shares this
// session's mutex, per spec.md §3/§5.
func (s *Session) newChannel() *channel {
	return newChannel(&s.mu)
}

// register adds c to the live-channel set and wakes the loop so it notices
// it's no longer idle (spec.md §4.5 step 3).
func (s *Session) register(c *channel) {
	s.mu.Lock()
	s.channels[c] = struct{}{}
	s.cond.Broadcast()
	s.mu.Unlock()
	s.wake()
}

func (s *Session) deregister(c *channel) {
	s.mu.Lock()
	delete(s.channels, c)
	s.mu.Unlock()
	s.wake()
}

// wake writes one byte to the wake pipe so a blocked loop iteration
// observes new state. Per spec.md §4.5, exactly one byte is drained per
// wake, so writers and the drainer stay in lockstep.
func (s *Session) wake() {
	_, _ = s.wakeW.Write([]byte{0})
}

// Close shuts the session down: the loop exits, and every channel still
// registered gets its open and close conditions force-signaled with
// ErrSessionClosed so no waiter is left blocked (spec.md §4.5 last
// paragraph, §5 "Cancellation").
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	s.wake()
	<-s.loopDone
	return nil
}

func (s *Session) loop() {
	defer close(s.loopDone)
	defer s.teardown()
	buf := make([]byte, 1)
	for {
		s.mu.Lock()
		if s.t.Preprocess() {
			s.mu.Unlock()
			return
		}
		for len(s.channels) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		if _, err := s.wakeR.Read(buf); err != nil {
			return
		}

		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		s.mu.Lock()
		post := s.t.Postprocess()
		s.mu.Unlock()
		if post {
			return
		}
	}
}

// teardown runs once, when the loop is about to exit for any reason. It
// guarantees no waiter is ever orphaned by a dead transport.
func (s *Session) teardown() {
	s.mu.Lock()
	var tcs []transport.Channel
	for c := range s.channels {
		c.signalOpen(ErrSessionClosed)
		c.signalClose(ErrSessionClosed)
		if c.tc != nil {
			tcs = append(tcs, c.tc)
		}
	}
	s.channels = make(map[*channel]struct{})
	s.mu.Unlock()
	// Closing a transport channel fires the sink's OnClose, which takes
	// s.mu, so the channels are closed only after it is released.
	for _, tc := range tcs {
		_ = tc.Close()
	}
	_ = s.wakeR.Close()
	_ = s.wakeW.Close()
}
