package emitter

import "io"

type config struct {
	maxListeners int
	logger       logger
}

func newConfig(opts ...Option) config {
	cfg := config{logger: noopLogger{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures an Emitter or a Signal at construction time.
type Option func(*config)

// WithMaxListeners caps how many listeners may be simultaneously registered
// per event. Zero or negative means unlimited. On an Emitter the cap applies
// to every event without an explicit SetLimit; on a Signal it is the global
// cap.
func WithMaxListeners(max int) Option {
	return func(cfg *config) {
		if max > 0 {
			cfg.maxListeners = max
		}
	}
}

// WithLogWriter enables debug diagnostics, written to w. Errors are never
// routed through the log, only lifecycle traces.
func WithLogWriter(w io.Writer) Option {
	return func(cfg *config) {
		cfg.logger = newWriterLogger(w)
	}
}
