package engine

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/monopole/sshexec/transport"
)

// Default retry policy for Open, per spec.md §4.6.
const (
	DefaultRetries    = 5
	DefaultRetryDelay = time.Second
)

// OpenOptions parameterizes Open. Redirects and PTY are opaque here; the
// root sshexec package is responsible for folding them into cmdline and a
// pty-req payload before calling Open, keeping engine ignorant of
// shell-quoting and termios encoding (spec.md §1's named external
// collaborators).
type OpenOptions struct {
	Env    map[string]string
	Stdin  io.Reader
	Stdout io.WriteCloser
	Stderr io.WriteCloser
	Logger Logger

	// PTYRequest, if non-nil, is sent as a "pty-req" channel request before
	// "exec". Payload encoding is the caller's job (see sshexec/pty.go).
	PTYRequest []byte

	Retries    int
	RetryDelay time.Duration

	// Host is used only for InitHook logging.
	Host string
}

func (o *OpenOptions) withDefaults() OpenOptions {
	out := *o
	if out.Retries == 0 {
		out.Retries = DefaultRetries
	}
	if out.RetryDelay == 0 {
		out.RetryDelay = DefaultRetryDelay
	}
	if out.Logger == nil {
		out.Logger = nopLogger{}
	}
	return out
}

// Open implements the open-with-retry driver (spec.md §4.6): it opens a
// session-type channel, requests a pty and sets env vars if configured,
// sends "exec" with cmdline, installs callbacks, and retries on
// *transport.ErrChannelOpenFailed up to opts.Retries times with
// opts.RetryDelay between attempts; a zero Retries or RetryDelay selects
// DefaultRetries or DefaultRetryDelay. On success it returns a Waiter whose
// Wait blocks until the remote process has exited.
func Open(ctx context.Context, sess *Session, cmdline string, opts OpenOptions) (*Waiter, error) {
	if cmdline == "" {
		return nil, ErrNoCommand
	}
	o := opts.withDefaults()

	remaining := o.Retries
	for {
		c := sess.newChannel()
		w := newWaiter()

		sk := installCallbacks(sess, c, w, endpoints{
			stdin:  o.Stdin,
			stdout: o.Stdout,
			stderr: o.Stderr,
			logger: o.Logger,
		})

		afterOpen := func(tc transport.Channel) error {
			if h, ok := o.Logger.(InitHook); ok {
				h.Init(o.Host, cmdline, o.Env, o.PTYRequest)
			}
			tc.StartPump(sk)
			if o.PTYRequest != nil {
				if _, err := tc.SendRequest(ctx, "pty-req", true, o.PTYRequest); err != nil {
					return wrapf("pty-req: %w", err)
				}
			}
			for k, v := range o.Env {
				// Servers commonly whitelist accepted env vars; per
				// spec.md §4.6, rejection here is not a failure.
				_, _ = tc.SendRequest(ctx, "env", false, encodeEnvRequest(k, v))
			}
			if _, err := tc.SendRequest(ctx, "exec", true, encodeString(cmdline)); err != nil {
				return wrapf("exec %q: %w", cmdline, err)
			}
			sk.startStdinPump(tc, sess.Transport().RemoteMaxPacket())
			return nil
		}

		go w.run(ctx, sess, "session", nil, c, afterOpen)

		if err := c.waitOpen(); err != nil {
			var openFailed *ErrChannelOpenFailed
			if errors.As(err, &openFailed) && remaining > 0 {
				remaining--
				o.Logger.Warn(wrapf("channel open failed (retrying): %v", err).Error())
				select {
				case <-time.After(o.RetryDelay):
				case <-ctx.Done():
					closeEndpoints(o)
					return nil, ctx.Err()
				}
				continue
			}
			closeEndpoints(o)
			return nil, err
		}
		return w, nil
	}
}

func closeEndpoints(o OpenOptions) {
	if c, ok := o.Stdin.(io.Closer); ok {
		_ = c.Close()
	}
	if o.Stdout != nil {
		_ = o.Stdout.Close()
	}
	if o.Stderr != nil {
		_ = o.Stderr.Close()
	}
}
