package sshexec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/monopole/sshexec/sshexec"
	"github.com/monopole/sshexec/transport/fake"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	sess, err := NewSession(fake.New(fake.OpenPolicy{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestCapture2(t *testing.T) {
	sess := newTestSession(t)
	out, status, err := sess.Capture2(context.Background(), nil, Options{}, "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
	code, ok := status.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code)
}

func TestCapture3(t *testing.T) {
	sess := newTestSession(t)
	out, errOut, status, err := sess.Capture3(context.Background(), nil, Options{},
		"sh", "-c", "echo out; echo err 1>&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, "out\n", string(out))
	assert.Equal(t, "err\n", string(errOut))
	code, ok := status.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 3, code)
}

func TestCapture2e(t *testing.T) {
	sess := newTestSession(t)
	combined, status, err := sess.Capture2e(context.Background(), nil, Options{},
		"sh", "-c", "echo a; echo b 1>&2")
	require.NoError(t, err)
	assert.Contains(t, string(combined), "a\n")
	assert.Contains(t, string(combined), "b\n")
	code, ok := status.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code)
}

func TestCapture2_StdinData(t *testing.T) {
	sess := newTestSession(t)
	out, status, err := sess.Capture2(context.Background(), nil, Options{StdinData: []byte("hi\n")}, "cat")
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(out))
	code, ok := status.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code)
}

func TestCapture2_Signaled(t *testing.T) {
	sess := newTestSession(t)
	out, status, err := sess.Capture2(context.Background(), nil, Options{}, "sh", "-c", "kill -QUIT $$")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.True(t, status.Signaled())
	name, ok := status.TermSignal()
	require.True(t, ok)
	assert.Equal(t, "QUIT", name)
}

func TestCapture2_RedirectAppendsToCmdline(t *testing.T) {
	sess := newTestSession(t)
	// "echo x" with err redirected onto fd 1 merges what would be stderr
	// into the captured stdout stream; since echo never writes to stderr
	// this just proves the redirect clause was assembled and accepted by
	// the shell without error.
	out, status, err := sess.Capture2(context.Background(), nil, Options{
		Redirects: []Redirect{{Key: "err", Dest: 1}},
	}, "echo", "x")
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(out))
	code, ok := status.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code)
}
