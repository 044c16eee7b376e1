package engine

import (
	"context"

	"github.com/monopole/sshexec/transport"
)

// Waiter is the caller's join point (spec.md §4.3): it carries the
// terminal Status and is how a caller blocks until the remote process has
// exited and the channel has closed.
type Waiter struct {
	status Status
	done   chan struct{}
	err    error
	c      *channel
}

func newWaiter() *Waiter {
	return &Waiter{done: make(chan struct{})}
}

// Wait blocks until the channel has closed (i.e. the remote process has
// exited and the server has sent channel-close), then returns the Status
// along with the captured fault, if any. It may be called any number of
// times and from any number of goroutines; all see the same result.
func (w *Waiter) Wait(ctx context.Context) (*Status, error) {
	select {
	case <-w.done:
		return &w.status, w.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run is the waiter task's body (spec.md §4.3): open the channel, register
// with the session, run the exec sequence via afterOpen, then block until
// the channel's close condition fires.
func (w *Waiter) run(
	ctx context.Context,
	sess *Session,
	chanType string,
	payload []byte,
	c *channel,
	afterOpen func(transport.Channel) error,
) {
	defer close(w.done)
	w.c = c

	tc, err := sess.Transport().OpenChannel(ctx, chanType, payload)
	if err != nil {
		c.signalOpen(err)
		sess.mu.Lock()
		c.signalClose(err)
		sess.mu.Unlock()
		w.err = err
		return
	}
	c.tc = tc
	sess.register(c)

	if afterOpen != nil {
		if err := afterOpen(tc); err != nil {
			c.signalOpen(err)
			sess.mu.Lock()
			c.signalClose(err)
			sess.mu.Unlock()
			sess.deregister(c)
			_ = tc.Close()
			w.err = err
			return
		}
	}

	c.signalOpen(nil)

	sess.mu.Lock()
	w.err = c.waitClosedLocked()
	sess.mu.Unlock()
	sess.deregister(c)
}
