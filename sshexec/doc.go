// Package sshexec gives callers "open a child process with pipes"
// semantics over a multiplexed SSH connection: hand in a command line plus
// optional environment, redirections, and PTY request, and get back
// readable/writable byte streams for the remote process's stdin/stdout/
// stderr plus a handle that yields a termination status once the process
// exits.
//
// The channel lifecycle and concurrency engine this package is a thin
// façade over lives in package engine; the SSH transport itself lives in
// package transport and its sshtransport/fake implementations.
package sshexec
