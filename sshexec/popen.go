package sshexec

import (
	"context"
	"io"
	"os"

	"github.com/monopole/sshexec/engine"
	"github.com/monopole/sshexec/internal/xlog"
	"github.com/monopole/sshexec/transport"
)

// Session is the caller-facing handle every entry point in this package is
// a method of: open a transport (sshtransport.Dial for a real connection,
// transport/fake.New for tests), wrap it with NewSession, then call
// Popen2/Popen2e/Popen3/Capture2/Capture2e/Capture3 on the result, exactly
// as the Ruby library this is translated from calls popen2 etc. directly
// on its connection session object.
type Session struct {
	*engine.Session
}

// Status is the terminal status of a remote process (spec.md §4.4),
// re-exported so callers don't need to import package engine directly.
type Status = engine.Status

// Waiter is the caller's join point, re-exported for the same reason.
type Waiter = engine.Waiter

// NewSession starts the session loop over t (spec.md §4.5) and returns a
// Session ready to open channels against.
func NewSession(t transport.Transport) (*Session, error) {
	s, err := engine.NewSession(t)
	if err != nil {
		return nil, err
	}
	return &Session{Session: s}, nil
}

func assembleCmdline(opts Options, cmd string, args []string) (string, error) {
	return buildRedirects(quoteCommand(cmd, args), opts.Redirects)
}

func quoteCommand(cmd string, args []string) string {
	out := shellQuote(cmd)
	for _, a := range args {
		out += " " + shellQuote(a)
	}
	return out
}

func openOptions(env map[string]string, opts Options, stdin io.Reader, stdout, stderr io.WriteCloser) (engine.OpenOptions, error) {
	if err := opts.validate(); err != nil {
		return engine.OpenOptions{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = xlog.Default()
	}
	retries, delay := opts.ChannelRetries.resolve()
	return engine.OpenOptions{
		Env:        env,
		Stdin:      stdin,
		Stdout:     stdout,
		Stderr:     stderr,
		Logger:     logger,
		PTYRequest: resolvePTY(opts.PTY),
		Retries:    retries,
		RetryDelay: delay,
		Host:       opts.WorkingHost,
	}, nil
}

// Popen2 opens cmd (shell-quoted together with args and any Options
// redirects), wiring the remote process's stdin and stdout to the
// returned pipes; stderr is left attached to the channel's extended-data
// stream but discarded (spec.md §2's "popen2" semantics: caller owns
// stdin/stdout, stderr is the server's problem).
func (s *Session) Popen2(ctx context.Context, env map[string]string, opts Options, cmd string, args ...string) (io.WriteCloser, io.ReadCloser, *engine.Waiter, error) {
	return s.popen(ctx, env, opts, cmd, args, false)
}

// Popen2e is Popen2 but merges stderr into the returned stdout stream
// (spec.md §2's "popen2e").
func (s *Session) Popen2e(ctx context.Context, env map[string]string, opts Options, cmd string, args ...string) (io.WriteCloser, io.ReadCloser, *engine.Waiter, error) {
	return s.popen(ctx, env, opts, cmd, args, true)
}

func (s *Session) popen(ctx context.Context, env map[string]string, opts Options, cmd string, args []string, mergeStderr bool) (io.WriteCloser, io.ReadCloser, *engine.Waiter, error) {
	cmdline, err := assembleCmdline(opts, cmd, args)
	if err != nil {
		return nil, nil, nil, err
	}

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	var stderr io.WriteCloser = DevNull
	if mergeStderr {
		stderr = outW
	}

	oo, err := openOptions(env, opts, inR, outW, stderr)
	if err != nil {
		_ = inR.Close()
		_ = inW.Close()
		_ = outR.Close()
		_ = outW.Close()
		return nil, nil, nil, err
	}

	w, err := engine.Open(ctx, s.Session, cmdline, oo)
	if err != nil {
		return nil, nil, nil, err
	}
	return inW, outR, w, nil
}

// Popen3 is Popen2 but keeps stderr separate, returning it as a third
// pipe (spec.md §2's "popen3").
func (s *Session) Popen3(ctx context.Context, env map[string]string, opts Options, cmd string, args ...string) (io.WriteCloser, io.ReadCloser, io.ReadCloser, *engine.Waiter, error) {
	cmdline, err := assembleCmdline(opts, cmd, args)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	// stdout and stderr are OS pipes: their buffers let a caller read one
	// stream to EOF before the other without stalling delivery of either.
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		_ = outR.Close()
		_ = outW.Close()
		return nil, nil, nil, nil, err
	}
	inR, inW := io.Pipe()

	oo, err := openOptions(env, opts, inR, outW, errW)
	if err != nil {
		_ = inR.Close()
		_ = inW.Close()
		_ = outR.Close()
		_ = outW.Close()
		_ = errR.Close()
		_ = errW.Close()
		return nil, nil, nil, nil, err
	}

	w, err := engine.Open(ctx, s.Session, cmdline, oo)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return inW, outR, errR, w, nil
}
