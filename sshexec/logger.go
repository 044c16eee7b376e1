package sshexec

import "github.com/monopole/sshexec/engine"

// Logger is the caller-supplied logging collaborator (spec.md §6). Debug,
// Info, Warn and Error are required; a Logger may additionally implement
// InitHook, StdinHook, StdoutHook and/or StderrHook, detected by capability
// probe, to receive per-open and per-chunk tracing.
type Logger = engine.Logger

// InitHook, StdinHook, StdoutHook and StderrHook are re-exported so callers
// can implement them without importing package engine directly.
type (
	InitHook   = engine.InitHook
	StdinHook  = engine.StdinHook
	StdoutHook = engine.StdoutHook
	StderrHook = engine.StderrHook
)
