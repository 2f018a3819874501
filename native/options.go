package native

import "go.uber.org/zap"

type Options struct {
	log            *zap.Logger
	onNotification func(id string, data []byte)
}

type Option func(*Options)

func WithLogger(log *zap.Logger) Option {
	return func(opts *Options) {
		opts.log = log
	}
}

// WithNotificationCallback sets a callback that receives every raw chunk
// before it is framed. It is mostly used for debugging purposes.
func WithNotificationCallback(fn func(id string, data []byte)) Option {
	return func(opts *Options) {
		opts.onNotification = fn
	}
}

func buildOptions(opts []Option) *Options {
	o := &Options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
