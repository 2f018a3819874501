package robotble

import (
	"errors"
	"strings"
)

// Kind identifies a category of robot communication failure. A Kind is itself
// an error so it can be used as an errors.Is target.
type Kind string

const (
	ErrConnection            Kind = "connection"
	ErrCharacteristicWrite   Kind = "characteristic write"
	ErrDeviceNotFound        Kind = "device not found"
	ErrTimeout               Kind = "timeout"
	ErrPermissionsNotGranted Kind = "permissions not granted"
	ErrRuntime               Kind = "runtime"
	ErrDevice                Kind = "device"
)

func (k Kind) Error() string {
	return string(k)
}

// ErrClosed is delivered to observers of a channel that was closed because
// the connection went away.
var ErrClosed = errors.New("channel closed")

type defaultText struct {
	message string
	action  string
}

var defaults = map[Kind]defaultText{
	ErrConnection: {
		message: "An error occurred while connecting to the robot",
		action:  "Check the connection with the robot",
	},
	ErrCharacteristicWrite: {
		message: "An error occurred while sending data to the robot",
		action:  "Check the robot connection configuration",
	},
	ErrDeviceNotFound: {
		message: "Robot not found",
		action:  "Make sure the robot is on and accepting connections",
	},
	ErrTimeout: {
		message: "The robot took too long to respond",
		action:  "Check that the robot is still connected and try again",
	},
	ErrPermissionsNotGranted: {
		message: "Bluetooth access permissions not granted",
		action:  "Grant the necessary permissions and try again",
	},
	ErrRuntime: {
		message: "An error occurred in the robot",
		action:  "Check the robot and try again",
	},
	ErrDevice: {
		message: "An error occurred on this device",
		action:  "Check that Bluetooth on your device is active and working",
	},
}

// Error is the error type surfaced to users of the package. Message is a
// human-readable description, Action is guidance on how to recover and Cause
// is the underlying error, if any.
type Error struct {
	Kind    Kind
	Message string
	Action  string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

type ErrorOption func(*Error)

// WithMessage overrides the default message of the error.
func WithMessage(msg string) ErrorOption {
	return func(e *Error) {
		e.Message = msg
	}
}

// WithAction overrides the default recovery guidance of the error.
func WithAction(action string) ErrorOption {
	return func(e *Error) {
		e.Action = action
	}
}

// NewError builds an Error of the given kind with the default message and
// action for that kind.
func NewError(kind Kind, cause error, opts ...ErrorOption) *Error {
	d := defaults[kind]
	e := &Error{
		Kind:    kind,
		Message: d.message,
		Action:  d.action,
		Cause:   cause,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func ConnectionError(cause error, opts ...ErrorOption) *Error {
	return NewError(ErrConnection, cause, opts...)
}

func CharacteristicWriteError(cause error, opts ...ErrorOption) *Error {
	return NewError(ErrCharacteristicWrite, cause, opts...)
}

func DeviceNotFoundError(cause error, opts ...ErrorOption) *Error {
	return NewError(ErrDeviceNotFound, cause, opts...)
}

func TimeoutError(cause error, opts ...ErrorOption) *Error {
	return NewError(ErrTimeout, cause, opts...)
}

func PermissionsNotGrantedError(cause error, opts ...ErrorOption) *Error {
	return NewError(ErrPermissionsNotGranted, cause, opts...)
}

func RuntimeError(cause error, opts ...ErrorOption) *Error {
	return NewError(ErrRuntime, cause, opts...)
}

func DeviceError(cause error, opts ...ErrorOption) *Error {
	return NewError(ErrDevice, cause, opts...)
}

// ActionOf returns the recovery guidance carried by err, or an empty string if
// err does not carry any.
func ActionOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Action
	}
	return ""
}
