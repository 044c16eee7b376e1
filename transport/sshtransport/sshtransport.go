// Package sshtransport implements transport.Transport over a real
// golang.org/x/crypto/ssh connection, grounded on the dial-and-wrap pattern
// in slok-sbx's internal/ssh.Client and rclone's backend/sftp ssh adapter.
package sshtransport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/monopole/sshexec/transport"
)

// remoteMaxPacket is the RFC 4253 6.1 conventional maximum packet size.
// golang.org/x/crypto/ssh doesn't surface the negotiated value from its
// public API, so this module uses the same constant the wire format itself
// recommends, matching what other SSH implementations hardcode as well.
const remoteMaxPacket = 1 << 15

// Config configures a dial to an SSH server.
type Config struct {
	Addr           string // host:port
	ClientConfig   *ssh.ClientConfig
	ConnectTimeout time.Duration
}

// Transport wraps a live *ssh.Client.
type Transport struct {
	client *ssh.Client
	closed chan struct{}
}

// Dial connects to an SSH server and returns a Transport bound to it.
func Dial(ctx context.Context, cfg Config) (*Transport, error) {
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	var d net.Dialer
	netConn, err := d.DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("sshtransport; dial %s: %w", cfg.Addr, err)
	}

	clientConfig := *cfg.ClientConfig
	clientConfig.Timeout = timeout

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, cfg.Addr, &clientConfig)
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("sshtransport; handshake with %s: %w", cfg.Addr, err)
	}

	t := &Transport{
		client: ssh.NewClient(sshConn, chans, reqs),
		closed: make(chan struct{}),
	}
	go func() {
		_ = t.client.Wait()
		close(t.closed)
	}()
	return t, nil
}

// New wraps an already-connected *ssh.Client, for callers that manage their
// own dial/auth (e.g. reusing a connection across many sshexec calls).
func New(client *ssh.Client) *Transport {
	t := &Transport{client: client, closed: make(chan struct{})}
	go func() {
		_ = t.client.Wait()
		close(t.closed)
	}()
	return t
}

func (t *Transport) Close() error { return t.client.Close() }

// Client returns the underlying *ssh.Client, for callers that need to lay
// another protocol (e.g. github.com/pkg/sftp) over the same connection.
func (t *Transport) Client() *ssh.Client { return t.client }

func (t *Transport) OpenChannel(ctx context.Context, chanType string, extra []byte) (transport.Channel, error) {
	type result struct {
		ch   ssh.Channel
		reqs <-chan *ssh.Request
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		ch, reqs, err := t.client.Conn.OpenChannel(chanType, extra)
		resCh <- result{ch, reqs, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resCh:
		if res.err != nil {
			var openErr *ssh.OpenChannelError
			if errors.As(res.err, &openErr) {
				return nil, &transport.ErrChannelOpenFailed{
					Code:   uint32(openErr.Reason),
					Reason: openErr.Message,
				}
			}
			return nil, fmt.Errorf("sshtransport; open channel: %w", res.err)
		}
		return newChannel(res.ch, res.reqs), nil
	}
}

func (t *Transport) RemoteMaxPacket() uint32 { return remoteMaxPacket }

func (t *Transport) Preprocess() (closed bool) {
	return t.isClosed()
}

func (t *Transport) Postprocess() (closed bool) {
	return t.isClosed()
}

func (t *Transport) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}
