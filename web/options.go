package web

import "go.uber.org/zap"

type Options struct {
	log *zap.Logger
}

type Option func(*Options)

func WithLogger(log *zap.Logger) Option {
	return func(opts *Options) {
		opts.log = log
	}
}

func buildOptions(opts []Option) *Options {
	o := &Options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
