package engine_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monopole/sshexec/engine"
	"github.com/monopole/sshexec/transport/fake"
)

func newTestSession(t *testing.T, policy fake.OpenPolicy) (*engine.Session, *fake.Transport) {
	t.Helper()
	ft := fake.New(policy)
	sess, err := engine.NewSession(ft)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess, ft
}

func captureOut(t *testing.T, sess *engine.Session, cmdline string) (string, *engine.Status) {
	t.Helper()
	var out bytes.Buffer
	w, err := engine.Open(context.Background(), sess, cmdline, engine.OpenOptions{
		Stdout: nopCloser{&out},
		Stderr: nopCloser{io.Discard},
	})
	require.NoError(t, err)
	status, err := w.Wait(context.Background())
	require.NoError(t, err)
	return out.String(), status
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func TestOpen_Capture2Equivalent(t *testing.T) {
	sess, _ := newTestSession(t, fake.OpenPolicy{})
	out, status := captureOut(t, sess, "echo hello")
	assert.Equal(t, "hello\n", out)
	code, ok := status.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code)
}

func TestOpen_Capture3Partitioning(t *testing.T) {
	sess, _ := newTestSession(t, fake.OpenPolicy{})
	var out, errOut bytes.Buffer
	w, err := engine.Open(context.Background(), sess, `sh -c 'echo out; echo err 1>&2; exit 3'`, engine.OpenOptions{
		Stdout: nopCloser{&out},
		Stderr: nopCloser{&errOut},
	})
	require.NoError(t, err)
	status, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "out\n", out.String())
	assert.Equal(t, "err\n", errOut.String())
	code, ok := status.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 3, code)
}

func TestOpen_Stdin(t *testing.T) {
	sess, _ := newTestSession(t, fake.OpenPolicy{})
	var out bytes.Buffer
	w, err := engine.Open(context.Background(), sess, "cat", engine.OpenOptions{
		Stdin:  bytes.NewBufferString("hi\n"),
		Stdout: nopCloser{&out},
	})
	require.NoError(t, err)
	status, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out.String())
	code, ok := status.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code)
}

func TestOpen_Signaled(t *testing.T) {
	sess, _ := newTestSession(t, fake.OpenPolicy{})
	w, err := engine.Open(context.Background(), sess, `sh -c 'kill -QUIT $$'`, engine.OpenOptions{
		Stdout: nopCloser{io.Discard},
		Stderr: nopCloser{io.Discard},
	})
	require.NoError(t, err)
	status, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Signaled())
	name, ok := status.TermSignal()
	require.True(t, ok)
	assert.Equal(t, "QUIT", name)
	_, known := status.Success()
	assert.False(t, known)
}

func TestOpen_RetrySucceedsAfterRefusals(t *testing.T) {
	sess, ft := newTestSession(t, fake.OpenPolicy{RefusalsBeforeSuccess: 2, RefusalCode: 1, RefusalReason: "busy"})
	w, err := engine.Open(context.Background(), sess, "echo ok", engine.OpenOptions{
		Stdout:     nopCloser{io.Discard},
		Stderr:     nopCloser{io.Discard},
		RetryDelay: time.Millisecond,
		Retries:    5,
	})
	require.NoError(t, err)
	_, err = w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ft.Attempts())
}

func TestOpen_RetryExhaustion(t *testing.T) {
	sess, _ := newTestSession(t, fake.OpenPolicy{RefusalsBeforeSuccess: 10, RefusalCode: 1, RefusalReason: "nope"})
	_, err := engine.Open(context.Background(), sess, "echo ok", engine.OpenOptions{
		Stdout:     nopCloser{io.Discard},
		Stderr:     nopCloser{io.Discard},
		RetryDelay: time.Millisecond,
		Retries:    2,
	})
	require.Error(t, err)
	assert.ErrorAs(t, err, new(*engine.ErrChannelOpenFailed))
}

func TestOpen_EmptyCommand(t *testing.T) {
	sess, _ := newTestSession(t, fake.OpenPolicy{})
	_, err := engine.Open(context.Background(), sess, "", engine.OpenOptions{})
	assert.ErrorIs(t, err, engine.ErrNoCommand)
}
