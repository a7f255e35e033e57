package logger

// nopLogger discards everything. Tests use it to keep output quiet.
type nopLogger struct{}

// NewNop returns a Logger that drops all entries.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (n nopLogger) With(...Field) Logger { return n }
func (nopLogger) Sync() error            { return nil }
