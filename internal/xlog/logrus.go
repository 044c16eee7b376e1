package xlog

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a *logrus.Logger to engine.Logger (the adaptation
// lives here, not in package engine, so engine stays dependency-free).
// It also implements engine.InitHook so cmd/sshexec can demonstrate
// structured per-open fields without the engine package knowing logrus
// exists.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrus wraps l, applying fields to every subsequent log line.
func NewLogrus(l *logrus.Logger, fields logrus.Fields) LogrusLogger {
	return LogrusLogger{entry: l.WithFields(fields)}
}

func (l LogrusLogger) Debug(msg string) { l.entry.Debug(msg) }
func (l LogrusLogger) Info(msg string)  { l.entry.Info(msg) }
func (l LogrusLogger) Warn(msg string)  { l.entry.Warn(msg) }
func (l LogrusLogger) Error(msg string) { l.entry.Error(msg) }

// Init implements engine.InitHook: it logs the remote host, command line
// and environment once per channel open, at Info level.
func (l LogrusLogger) Init(host, cmdline string, env map[string]string, pty any) {
	envJSON, _ := json.Marshal(env)
	l.entry.WithFields(logrus.Fields{
		"host":    host,
		"cmdline": Abbrev(cmdline),
		"env":     string(envJSON),
		"pty":     pty != nil,
	}).Info("opening channel")
}
