package imgstage

import "log/slog"

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets the logger used for progress and cleanup diagnostics.
// The default discards all logs.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		p.logger = logger
		return nil
	}
}

// WithKeepSource disables removal of the source staging directory after a
// failed run, leaving the defective bundle in place for inspection.
func WithKeepSource(keep bool) Option {
	return func(p *Pipeline) error {
		p.keepSource = keep
		return nil
	}
}
