package gridc

import (
	"github.com/gridc-io/gridc/frontend"
	"github.com/gridc-io/gridc/frontend/clc"
	"github.com/rs/zerolog"
)

// Option describes a function used to configure a Program.
type Option func(*config)

type config struct {
	frontend frontend.Frontend
	logger   zerolog.Logger
	policy   frontend.Policy
}

func newConfig(opts []Option) *config {
	cfg := &config{
		frontend: clc.New(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithFrontend supplies the compiler front end used by Build. The default is
// the built-in kernel-language front end.
func WithFrontend(f frontend.Frontend) Option {
	return func(cfg *config) {
		cfg.frontend = f
	}
}

// WithLogger supplies a logger for build and kernel-resolution events. The
// default logger discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithPolicy sets the invocation policy: the precompiled header directory
// and the target pointer width. The zero policy targets the host pointer
// width with no precompiled headers.
func WithPolicy(policy frontend.Policy) Option {
	return func(cfg *config) {
		cfg.policy = policy
	}
}
