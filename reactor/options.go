package reactor

import "github.com/rs/zerolog"

type options struct {
	log zerolog.Logger
}

// Option configures a reactor.
type Option func(*options)

// WithLogger sets the logger used for callback panics.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}
