package sshexec

import (
	"fmt"
	"time"

	"github.com/monopole/sshexec/engine"
)

// RetrySpec is channel_retries from spec.md §6: either a bare retry count
// (delay defaults to engine.DefaultRetryDelay) or an explicit
// [retries, delaySeconds] pair. A zero delay is always replaced by
// engine.DefaultRetryDelay, and a zero count by engine.DefaultRetries, so
// neither "no delay" nor "no retries" can be expressed.
type RetrySpec struct {
	Retries int
	Delay   time.Duration

	set bool
}

// Retries builds a RetrySpec with the default delay.
func Retries(n int) RetrySpec { return RetrySpec{Retries: n, set: true} }

// RetriesWithDelay builds a RetrySpec with an explicit delay, the Go
// equivalent of the source's [retries, delay_seconds] pair.
func RetriesWithDelay(n int, delay time.Duration) RetrySpec {
	return RetrySpec{Retries: n, Delay: delay, set: true}
}

func (r RetrySpec) resolve() (int, time.Duration) {
	if !r.set {
		return engine.DefaultRetries, engine.DefaultRetryDelay
	}
	delay := r.Delay
	if delay == 0 {
		delay = engine.DefaultRetryDelay
	}
	return r.Retries, delay
}

// Redirect is one redirection clause: Key is a stream selector (in/out/err,
// a bare fd number, or a literal shell operator), Dest is int for "&N" or
// string for a shell-escaped path. Options.Redirects is a slice rather than
// a map so a caller's declaration order is preserved onto the assembled
// command line (spec.md §4.6/§6: redirections are appended in declaration
// order).
type Redirect struct {
	Key  string
	Dest any
}

// Options is the recognized option bag every entry point accepts (spec.md
// §6). validate only rejects malformed input; defaults (retry policy,
// logger) are filled in when the options are converted for engine.Open.
type Options struct {
	// Redirects is appended to the assembled command line in order, each
	// clause rendered as redirectOperator(Key) + the rendered Dest.
	Redirects []Redirect

	// ChannelRetries controls the open-with-retry driver's policy.
	ChannelRetries RetrySpec

	// StdinData is written to stdin and the pipe closed, for the Capture*
	// variants only.
	StdinData []byte

	// Logger is optional; when nil, the module's default logger is used,
	// which stays silent unless verbose logging has been enabled.
	Logger Logger

	// PTY is either a bool or PTYModes.
	PTY any

	// WorkingHost labels InitHook log lines; purely cosmetic.
	WorkingHost string
}

func (o Options) validate() error {
	for _, r := range o.Redirects {
		if r.Key == "" {
			return fmt.Errorf("sshexec; empty redirect key is not allowed")
		}
	}
	switch o.PTY.(type) {
	case nil, bool, PTYModes:
	default:
		return fmt.Errorf("sshexec; PTY option must be bool or PTYModes, got %T", o.PTY)
	}
	return nil
}
