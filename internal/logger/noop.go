package logger

// NoopLogger discards all log output. Used in tests and as a safe
// default when no logger is injected.
type NoopLogger struct{}

// NewNoop creates a logger that discards everything.
func NewNoop() *NoopLogger {
	return &NoopLogger{}
}

// Debug does nothing.
func (l *NoopLogger) Debug(_ string, _ ...any) {}

// Info does nothing.
func (l *NoopLogger) Info(_ string, _ ...any) {}

// Warn does nothing.
func (l *NoopLogger) Warn(_ string, _ ...any) {}

// Error does nothing.
func (l *NoopLogger) Error(_ string, _ ...any) {}

// Fatal does nothing; it does not exit.
func (l *NoopLogger) Fatal(_ string, _ ...any) {}

// With returns the same noop logger.
func (l *NoopLogger) With(_ ...any) Interface { return l }
