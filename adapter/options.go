package adapter

import "go.uber.org/zap"

type Options struct {
	store     RobotStore
	log       *zap.Logger
	listeners []func(State)
}

type Option func(*Options)

// WithStore sets the store that is told about the connected robot.
func WithStore(store RobotStore) Option {
	return func(opts *Options) {
		opts.store = store
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(opts *Options) {
		opts.log = log
	}
}

// WithStateListener registers fn to be called after every state change.
func WithStateListener(fn func(State)) Option {
	return func(opts *Options) {
		opts.listeners = append(opts.listeners, fn)
	}
}
