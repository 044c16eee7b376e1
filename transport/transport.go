// Package transport names the external collaborator this module builds on:
// an already-authenticated, multiplexed connection capable of opening
// session-type channels and running a remote command on each one.
//
// Nothing in this package dials a network or speaks the SSH wire protocol.
// The real implementation lives in transport/sshtransport and wraps
// golang.org/x/crypto/ssh; transport/fake stands in for it in tests.
package transport

import "context"

// OpenFailure carries the reason a server gave for refusing a channel open.
type OpenFailure struct {
	Code   uint32
	Reason string
}

// Sink receives the events a channel delivers after it's open. Ordering
// within stdout, within stderr, and between exit notification and close is
// guaranteed, nothing else is. Events are not serialized across those
// groups: an implementation may deliver data events and exit/close events
// from different goroutines at the same time (sshtransport does).
type Sink interface {
	OnData(p []byte)
	OnExtendedData(dataType uint32, p []byte)
	OnExitStatus(code uint32)
	OnExitSignal(name string, coredump bool)
	OnEOF()
	OnClose(fault error)
}

// Channel is one open, exec'd, session-type SSH channel.
type Channel interface {
	// Write sends p as channel data (stdin). Safe for concurrent use with
	// reads; implementations must not block the caller on a slow remote
	// consumer indefinitely without respecting ctx-less best effort writes.
	Write(p []byte) (int, error)

	// SendRequest issues a channel request (e.g. "pty-req", "env", "exec",
	// "eof" is handled via CloseWrite instead). wantReply blocks for the
	// server's accept/reject when true.
	SendRequest(ctx context.Context, name string, wantReply bool, payload []byte) (bool, error)

	// CloseWrite signals end-of-stream on stdin without closing the whole
	// channel (SSH channel-eof equivalent).
	CloseWrite() error

	// Close tears the channel down unconditionally (SSH channel-close
	// equivalent). Idempotent.
	Close() error

	// StartPump begins delivering inbound channel events to sink. Must be
	// called at most once. Implementations run delivery on their own
	// goroutine(s) so callers never block the channel's creator.
	StartPump(sink Sink)
}

// Transport opens channels against one underlying connection and gives the
// session loop a place to hang connection-wide bookkeeping.
type Transport interface {
	// OpenChannel requests a new session-type channel and blocks until the
	// server confirms or refuses it. A refusal is returned as
	// *ErrChannelOpenFailed.
	OpenChannel(ctx context.Context, chanType string, extra []byte) (Channel, error)

	// RemoteMaxPacket is the server-advertised maximum payload size for a
	// single data packet on a newly opened channel; used to size the stdin
	// pump's write unit.
	RemoteMaxPacket() uint32

	// Preprocess runs once per session-loop iteration before the loop
	// considers itself idle. Returns true once the underlying connection
	// has gone away for good.
	Preprocess() (closed bool)

	// Postprocess runs once per iteration after the loop wakes up. Returns
	// true once the underlying connection has gone away for good.
	Postprocess() (closed bool)
}
