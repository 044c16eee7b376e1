package transport

import "fmt"

// ErrChannelOpenFailed is raised when the server refuses a channel open.
// The open-with-retry driver recovers from this locally up to its
// configured retry count; beyond that it's surfaced to the caller verbatim.
type ErrChannelOpenFailed struct {
	Code   uint32
	Reason string
}

func (e *ErrChannelOpenFailed) Error() string {
	return fmt.Sprintf("channel open failed; code=%d reason=%q", e.Code, e.Reason)
}

// NewErrChannelOpenFailed builds an ErrChannelOpenFailed from a server's
// open-failure notice.
func NewErrChannelOpenFailed(of OpenFailure) *ErrChannelOpenFailed {
	return &ErrChannelOpenFailed{Code: of.Code, Reason: of.Reason}
}
