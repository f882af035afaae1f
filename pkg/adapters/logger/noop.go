package logger

import "github.com/user/framereader/pkg/ports"

// NoopLogger discards every message. The CLI uses it for --quiet and tests
// use it where log output is irrelevant.
type NoopLogger struct{}

// NewNoop returns a discarding logger.
func NewNoop() *NoopLogger {
	return &NoopLogger{}
}

func (*NoopLogger) Debug(string, ...interface{}) {}
func (*NoopLogger) Info(string, ...interface{})  {}
func (*NoopLogger) Warn(string, ...interface{})  {}
func (*NoopLogger) Error(string, ...interface{}) {}

func (l *NoopLogger) WithComponent(string) ports.Logger { return l }

var _ ports.Logger = (*NoopLogger)(nil)
