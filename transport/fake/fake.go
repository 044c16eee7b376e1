// Package fake is an in-process stand-in for a real SSH connection, used by
// engine's tests. It accepts (or, per an OpenPolicy, refuses some number of
// times before accepting) a channel open, then actually execs the command
// line locally via os/exec so that tests can assert on real stdout/stderr
// bytes and real exit statuses, the way the teacher's channelsMakerF let
// tests inject bare channels instead of a live subprocess.
package fake

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"github.com/monopole/sshexec/transport"
)

// signalNames maps this system's signal numbers to the RFC 4254 6.10
// exit-signal names (no "SIG" prefix). A real SSH server makes the same
// translation on the remote side before putting a name on the wire;
// syscall.Signal.String() returns human prose ("quit", "killed"), not
// these names, so it can't be used directly.
var signalNames = map[syscall.Signal]string{
	syscall.SIGHUP:  "HUP",
	syscall.SIGINT:  "INT",
	syscall.SIGQUIT: "QUIT",
	syscall.SIGILL:  "ILL",
	syscall.SIGTRAP: "TRAP",
	syscall.SIGABRT: "ABRT",
	syscall.SIGBUS:  "BUS",
	syscall.SIGFPE:  "FPE",
	syscall.SIGKILL: "KILL",
	syscall.SIGUSR1: "USR1",
	syscall.SIGSEGV: "SEGV",
	syscall.SIGUSR2: "USR2",
	syscall.SIGPIPE: "PIPE",
	syscall.SIGALRM: "ALRM",
	syscall.SIGTERM: "TERM",
}

// OpenPolicy controls how a Transport's OpenChannel behaves, letting tests
// exercise the retry and retry-exhaustion properties from spec.md §8.
type OpenPolicy struct {
	// RefusalsBeforeSuccess is how many times OpenChannel refuses before
	// it finally accepts. Zero means every open succeeds.
	RefusalsBeforeSuccess int
	RefusalCode           uint32
	RefusalReason         string
}

const defaultMaxPacket = 1 << 15 // RFC 4253 6.1

// Transport is a fake transport.Transport.
type Transport struct {
	policy OpenPolicy

	mu     sync.Mutex
	opens  int
	closed bool
}

// New returns a Transport that applies policy to every OpenChannel call.
func New(policy OpenPolicy) *Transport {
	return &Transport{policy: policy}
}

func (t *Transport) OpenChannel(_ context.Context, _ string, _ []byte) (transport.Channel, error) {
	t.mu.Lock()
	attempt := t.opens
	t.opens++
	t.mu.Unlock()

	if attempt < t.policy.RefusalsBeforeSuccess {
		return nil, &transport.ErrChannelOpenFailed{
			Code:   t.policy.RefusalCode,
			Reason: t.policy.RefusalReason,
		}
	}
	return newChannel(), nil
}

// Attempts reports how many times OpenChannel has been called so far.
func (t *Transport) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opens
}

func (t *Transport) RemoteMaxPacket() uint32 { return defaultMaxPacket }

func (t *Transport) Preprocess() (closed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Transport) Postprocess() (closed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Shutdown makes every subsequent Preprocess/Postprocess report closed,
// simulating the transport dying out from under the session loop.
func (t *Transport) Shutdown() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// channel is a fake transport.Channel backed by a local *exec.Cmd.
type channel struct {
	mu   sync.Mutex
	sink transport.Sink

	cmd   *exec.Cmd
	stdin io.WriteCloser
	env   []string

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newChannel() *channel {
	return &channel{}
}

func (c *channel) Write(p []byte) (int, error) {
	c.mu.Lock()
	stdin := c.stdin
	c.mu.Unlock()
	if stdin == nil {
		return 0, io.ErrClosedPipe
	}
	return stdin.Write(p)
}

func (c *channel) SendRequest(_ context.Context, name string, _ bool, payload []byte) (bool, error) {
	// next decodes one SSH wire string (4-byte big-endian length, then the
	// bytes) off the front of b and returns it with the remainder.
	next := func(b []byte) (string, []byte) {
		if len(b) < 4 || len(b)-4 < int(binary.BigEndian.Uint32(b)) {
			return "", nil
		}
		n := 4 + int(binary.BigEndian.Uint32(b))
		return string(b[4:n]), b[n:]
	}
	switch name {
	case "pty-req":
		// Fake transport never actually allocates a pty; the request is
		// accepted and otherwise ignored.
		return true, nil
	case "env":
		k, rest := next(payload)
		v, _ := next(rest)
		c.mu.Lock()
		c.env = append(c.env, k+"="+v)
		c.mu.Unlock()
		return true, nil
	case "exec":
		cmdline, _ := next(payload)
		return true, c.exec(cmdline)
	default:
		return true, nil
	}
}

func (c *channel) exec(cmdline string) error {
	cmd := exec.Command("/bin/sh", "-c", cmdline)

	c.mu.Lock()
	cmd.Env = append(cmd.Environ(), c.env...)
	c.mu.Unlock()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("fake transport; stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("fake transport; stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("fake transport; stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("fake transport; start: %w", err)
	}

	c.mu.Lock()
	c.cmd = cmd
	c.stdin = stdin
	sink := c.sink
	c.mu.Unlock()

	chunks := make(chan streamChunk, 32)
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		pump(stdout, false, chunks)
	}()
	go func() {
		defer c.wg.Done()
		pump(stderr, true, chunks)
	}()
	go func() {
		c.wg.Wait()
		close(chunks)
	}()

	go func() {
		// A single goroutine delivers both streams to sink, in receipt
		// order, so stdout and stderr chunks for this channel never race
		// into the sink from two goroutines at once (matters for the
		// merged-stream ordering Capture2e/Popen2e expose).
		for sc := range chunks {
			if sc.extended {
				sink.OnExtendedData(1, sc.data)
			} else {
				sink.OnData(sc.data)
			}
		}
		err := cmd.Wait()
		reportExit(sink, err)
		sink.OnEOF()
		c.closeOnce.Do(func() { sink.OnClose(nil) })
	}()
	return nil
}

// streamChunk tags a read from stdout or stderr so both can be funneled
// through the single delivery goroutine in exec above.
type streamChunk struct {
	extended bool
	data     []byte
}

func pump(r io.Reader, extended bool, out chan<- streamChunk) {
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

func reportExit(sink transport.Sink, err error) {
	if err == nil {
		sink.OnExitStatus(0)
		return
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		sink.OnExitStatus(1)
		return
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		sink.OnExitStatus(uint32(exitErr.ExitCode()))
		return
	}
	if status.Signaled() {
		name, ok := signalNames[status.Signal()]
		if !ok {
			name = status.Signal().String()
		}
		sink.OnExitSignal(name, status.CoreDump())
		return
	}
	sink.OnExitStatus(uint32(status.ExitStatus()))
}

func (c *channel) CloseWrite() error {
	c.mu.Lock()
	stdin := c.stdin
	c.stdin = nil
	c.mu.Unlock()
	if stdin == nil {
		return nil
	}
	return stdin.Close()
}

func (c *channel) Close() error {
	c.mu.Lock()
	cmd := c.cmd
	sink := c.sink
	c.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	if sink != nil {
		c.closeOnce.Do(func() { sink.OnClose(nil) })
	}
	return nil
}

func (c *channel) StartPump(sink transport.Sink) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()
}
