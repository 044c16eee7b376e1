package engine

import (
	"errors"
	"fmt"

	"github.com/monopole/sshexec/transport"
)

// ErrChannelOpenFailed is re-exported so callers can errors.As against it
// without importing the transport package directly.
type ErrChannelOpenFailed = transport.ErrChannelOpenFailed

// ErrSessionClosed is the fault every still-open channel is handed when the
// session's transport dies out from under it.
var ErrSessionClosed = errors.New("engine; session closed before channel finished")

// ErrNoCommand is returned by Open when the caller supplied an empty
// command line.
var ErrNoCommand = errors.New("engine; must specify a command to run")

func wrapf(format string, args ...any) error {
	return fmt.Errorf("engine; "+format, args...)
}
