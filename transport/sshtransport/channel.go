package sshtransport

import (
	"context"
	"io"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/monopole/sshexec/transport"
)

// exitStatusMsg and exitSignalMsg mirror the SSH_MSG_CHANNEL_REQUEST
// payloads for "exit-status"/"exit-signal" (RFC 4254 6.10), the same shape
// golang.org/x/crypto/ssh's own session.go decodes internally.
type exitStatusMsg struct {
	Status uint32
}

type exitSignalMsg struct {
	Signal     string
	CoreDumped bool
	Message    string
	Lang       string
}

type channel struct {
	ch   ssh.Channel
	reqs <-chan *ssh.Request

	mu        sync.Mutex
	sink      transport.Sink
	closeOnce sync.Once
}

func newChannel(ch ssh.Channel, reqs <-chan *ssh.Request) *channel {
	return &channel{ch: ch, reqs: reqs}
}

func (c *channel) Write(p []byte) (int, error) { return c.ch.Write(p) }

func (c *channel) SendRequest(_ context.Context, name string, wantReply bool, payload []byte) (bool, error) {
	return c.ch.SendRequest(name, wantReply, payload)
}

func (c *channel) CloseWrite() error { return c.ch.CloseWrite() }

func (c *channel) Close() error {
	err := c.ch.Close()
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	if sink != nil {
		c.closeOnce.Do(func() { sink.OnClose(nil) })
	}
	return err
}

// StartPump spawns a data pump and a request pump. The data pump reads
// stdout and stderr concurrently but funnels both into sink.OnData/
// OnExtendedData through one goroutine (see pumpData), so the two streams
// of a single channel are never delivered to the sink from two racing
// goroutines at once; the request pump dispatches exit-status/exit-signal.
func (c *channel) StartPump(sink transport.Sink) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()

	go c.pumpData(sink)
	go c.pumpRequests(sink)
}

// streamChunk tags a read from either the channel's data stream or its
// stderr extended-data stream, so both can be funneled through one
// delivery goroutine below.
type streamChunk struct {
	extended bool
	data     []byte
}

// pumpData drains stdout and stderr on their own reader goroutines but
// delivers every chunk to sink from a single goroutine, in the order the
// chunks arrive on the shared channel. This doesn't recover the server's
// true wire-level interleave of two independent SSH data streams, but it
// does mean sink.OnData/OnExtendedData for one channel are never called
// concurrently from two goroutines racing directly into a shared sink —
// merged output (Popen2e) sees a deterministic interleave of this
// process's own scheduling instead of an unsynchronized one.
func (c *channel) pumpData(sink transport.Sink) {
	chunks := make(chan streamChunk, 32)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		drain(c.ch, false, chunks)
	}()
	go func() {
		defer wg.Done()
		drain(c.ch.Stderr(), true, chunks)
	}()
	go func() {
		wg.Wait()
		close(chunks)
	}()

	for sc := range chunks {
		if sc.extended {
			sink.OnExtendedData(1, sc.data)
		} else {
			sink.OnData(sc.data)
		}
	}
	sink.OnEOF()
}

func drain(r io.Reader, extended bool, out chan<- streamChunk) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			out <- streamChunk{extended: extended, data: cp}
		}
		if err != nil {
			return
		}
	}
}

func (c *channel) pumpRequests(sink transport.Sink) {
	for req := range c.reqs {
		switch req.Type {
		case "exit-status":
			var m exitStatusMsg
			if err := ssh.Unmarshal(req.Payload, &m); err == nil {
				sink.OnExitStatus(m.Status)
			}
		case "exit-signal":
			var m exitSignalMsg
			if err := ssh.Unmarshal(req.Payload, &m); err == nil {
				sink.OnExitSignal(m.Signal, m.CoreDumped)
			}
		}
		if req.WantReply {
			_ = req.Reply(true, nil)
		}
	}
	c.closeOnce.Do(func() { sink.OnClose(nil) })
}
