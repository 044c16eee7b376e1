package engine

import (
	"sync"

	"github.com/monopole/sshexec/transport"
)

// channel is the per-channel state described in spec.md §4.2: an open
// condition guarded by its own mutex, a close condition guarded by the
// session's shared mutex, and a fault captured by whichever hook fires
// first. Both conditions are signaled exactly once.
type channel struct {
	tc transport.Channel

	openMu   sync.Mutex
	openCond *sync.Cond
	opened   bool

	closeCond *sync.Cond // guarded by the session's shared mutex
	closed    bool

	fault error
}

// newChannel builds a channel whose close condition shares sessionMu with
// every other channel in the session, per spec.md §4.3/§5.
func newChannel(sessionMu *sync.Mutex) *channel {
	c := &channel{}
	c.openCond = sync.NewCond(&c.openMu)
	c.closeCond = sync.NewCond(sessionMu)
	return c
}

// signalOpen fires exactly once: on open confirmation, open failure, or
// catastrophic session shutdown.
func (c *channel) signalOpen(fault error) {
	c.openMu.Lock()
	if c.opened {
		c.openMu.Unlock()
		return
	}
	if fault != nil && c.fault == nil {
		c.fault = fault
	}
	c.opened = true
	c.openCond.Broadcast()
	c.openMu.Unlock()
}

// signalClose fires exactly once, from the do-close hook, from an
// open-failure (so no waiter is ever left blocked), or from session
// teardown. Caller must hold the session mutex that guards closeCond.
func (c *channel) signalClose(fault error) {
	if c.closed {
		return
	}
	if fault != nil && c.fault == nil {
		c.fault = fault
	}
	c.closed = true
	c.closeCond.Broadcast()
}

// waitOpen blocks until the server has confirmed or refused the channel,
// then returns the captured fault, if any.
func (c *channel) waitOpen() error {
	c.openMu.Lock()
	for !c.opened {
		c.openCond.Wait()
	}
	err := c.fault
	c.openMu.Unlock()
	return err
}

// waitClosedLocked blocks until the close condition has been signaled and
// returns the captured fault, if any. Caller must hold the session mutex
// that guards closeCond.
func (c *channel) waitClosedLocked() error {
	for !c.closed {
		c.closeCond.Wait()
	}
	return c.fault
}
