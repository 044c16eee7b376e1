package sshexec_test

import (
	"bufio"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/monopole/sshexec/sshexec"
)

func TestPopen2_EchoPipeline(t *testing.T) {
	sess := newTestSession(t)
	stdin, stdout, w, err := sess.Popen2(context.Background(), nil, Options{}, "cat")
	require.NoError(t, err)

	_, err = stdin.Write([]byte("line one\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(stdout)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "line one\n", line)

	require.NoError(t, stdin.Close())
	_, err = io.ReadAll(reader)
	assert.NoError(t, err)

	status, err := w.Wait(context.Background())
	require.NoError(t, err)
	code, ok := status.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 0, code)
}

func TestPopen3_SeparateStreams(t *testing.T) {
	sess := newTestSession(t)
	stdin, stdout, stderr, w, err := sess.Popen3(context.Background(), nil, Options{}, "sh", "-c", "read x; echo out-$x; echo err-$x 1>&2")
	require.NoError(t, err)
	require.NoError(t, stdin.Close()) // no data, just EOF so `read` returns immediately empty.

	out, err := io.ReadAll(stdout)
	require.NoError(t, err)
	errOut, err := io.ReadAll(stderr)
	require.NoError(t, err)

	assert.Equal(t, "out-\n", string(out))
	assert.Equal(t, "err-\n", string(errOut))

	_, err = w.Wait(context.Background())
	require.NoError(t, err)
}

func TestPopen2e_MergesStreams(t *testing.T) {
	sess := newTestSession(t)
	stdin, combined, w, err := sess.Popen2e(context.Background(), nil, Options{}, "sh", "-c", "echo one; echo two 1>&2")
	require.NoError(t, err)
	require.NoError(t, stdin.Close())

	out, err := io.ReadAll(combined)
	require.NoError(t, err)
	assert.Contains(t, string(out), "one\n")
	assert.Contains(t, string(out), "two\n")

	_, err = w.Wait(context.Background())
	require.NoError(t, err)
}
