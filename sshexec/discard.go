package sshexec

import "io"

// DevNull is an io.WriteCloser that discards everything written to it, for
// callers that want a stream (e.g. stderr in Popen2) but don't care about
// its contents.
var DevNull io.WriteCloser = &discard{}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }
func (*discard) Close() error                { return nil }
