package emitter

// noopLogger is the default logger. The library stays silent unless a
// log writer is injected through WithLogWriter.
type noopLogger struct{}

func (l noopLogger) WithField(string, any) logger { return l }

func (noopLogger) Debugf(string, ...any) {}

func (noopLogger) Infof(string, ...any) {}

func (noopLogger) Warnf(string, ...any) {}

func (noopLogger) Errorf(string, ...any) {}
