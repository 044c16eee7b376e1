package sshexec

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/monopole/sshexec/engine"
)

// Capture2 runs cmd, writes Options.StdinData (if any) then closes stdin,
// reads stdout to completion, and returns the collected bytes alongside
// the terminal Status (spec.md §2's "capture2").
func (s *Session) Capture2(ctx context.Context, env map[string]string, opts Options, cmd string, args ...string) ([]byte, *engine.Status, error) {
	stdin, stdout, w, err := s.Popen2(ctx, env, opts, cmd, args...)
	if err != nil {
		return nil, nil, err
	}
	return drain2(ctx, stdin, stdout, w, opts.StdinData)
}

// Capture2e is Capture2 with stdout and stderr merged into one stream
// (spec.md §2's "capture2e").
func (s *Session) Capture2e(ctx context.Context, env map[string]string, opts Options, cmd string, args ...string) ([]byte, *engine.Status, error) {
	stdin, combined, w, err := s.Popen2e(ctx, env, opts, cmd, args...)
	if err != nil {
		return nil, nil, err
	}
	return drain2(ctx, stdin, combined, w, opts.StdinData)
}

func drain2(ctx context.Context, stdin io.WriteCloser, out io.ReadCloser, w *engine.Waiter, stdinData []byte) ([]byte, *engine.Status, error) {
	if err := feedStdin(stdin, stdinData); err != nil {
		return nil, nil, err
	}

	var (
		outBytes []byte
		readErr  error
	)
	done := make(chan struct{})
	go func() {
		outBytes, readErr = io.ReadAll(out)
		close(done)
	}()

	status, waitErr := w.Wait(ctx)
	<-done
	if waitErr != nil {
		return outBytes, status, waitErr
	}
	return outBytes, status, readErr
}

// Capture3 is Capture2 with stdout and stderr collected separately
// (spec.md §2's "capture3"). The two streams are drained concurrently via
// an errgroup so neither can block the other: a remote process that fills
// its stdout pipe while waiting for someone to read stderr (or vice
// versa) must not deadlock the caller.
func (s *Session) Capture3(ctx context.Context, env map[string]string, opts Options, cmd string, args ...string) ([]byte, []byte, *engine.Status, error) {
	stdin, stdout, stderr, w, err := s.Popen3(ctx, env, opts, cmd, args...)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := feedStdin(stdin, opts.StdinData); err != nil {
		return nil, nil, nil, err
	}

	var outBytes, errBytes []byte
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		outBytes, err = io.ReadAll(stdout)
		return err
	})
	g.Go(func() error {
		var err error
		errBytes, err = io.ReadAll(stderr)
		return err
	})

	status, waitErr := w.Wait(ctx)
	readErr := g.Wait()
	if waitErr != nil {
		return outBytes, errBytes, status, waitErr
	}
	return outBytes, errBytes, status, readErr
}

func feedStdin(stdin io.WriteCloser, data []byte) error {
	if len(data) > 0 {
		if _, err := stdin.Write(data); err != nil {
			_ = stdin.Close()
			return err
		}
	}
	return stdin.Close()
}
