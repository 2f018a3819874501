package serial

import (
	"go.bug.st/serial"
	"go.uber.org/zap"
)

type ConnectOptions struct {
	mode       *serial.Mode
	terminator string
	log        *zap.Logger
	open       Opener
	onRecv     func(data []byte)
	onSend     func(rx string, data []byte)
}

type ConnectOption func(*ConnectOptions)

// WithBaudRate overrides the default baud rate of 115200.
func WithBaudRate(rate int) ConnectOption {
	return func(opts *ConnectOptions) {
		opts.mode.BaudRate = rate
	}
}

// WithTerminator sets the bytes appended to every message written to the
// robot. The default is a newline.
func WithTerminator(t string) ConnectOption {
	return func(opts *ConnectOptions) {
		opts.terminator = t
	}
}

func WithLogger(log *zap.Logger) ConnectOption {
	return func(opts *ConnectOptions) {
		opts.log = log
	}
}

// WithOpener replaces the function used to open ports.
func WithOpener(open Opener) ConnectOption {
	return func(opts *ConnectOptions) {
		opts.open = open
	}
}

// OnRecv sets a callback for every chunk read from the port.
func OnRecv(fn func(data []byte)) ConnectOption {
	return func(opts *ConnectOptions) {
		opts.onRecv = fn
	}
}

// OnSend sets a callback for every message written to the port.
func OnSend(fn func(rx string, data []byte)) ConnectOption {
	return func(opts *ConnectOptions) {
		opts.onSend = fn
	}
}

func buildOptions(opts []ConnectOption) *ConnectOptions {
	o := &ConnectOptions{
		mode: &serial.Mode{
			BaudRate: 115200,
			DataBits: 8,
			StopBits: serial.OneStopBit,
			Parity:   serial.NoParity,
		},
		terminator: "\n",
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.open == nil {
		mode := o.mode
		o.open = func(address string) (Port, error) {
			return serial.Open(address, mode)
		}
	}
	return o
}
