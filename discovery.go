package robotble

import (
	"context"
	"errors"
	"time"
)

// DefaultDiscoveryTimeout bounds how long a discovery strategy looks for a
// robot.
const DefaultDiscoveryTimeout = 5 * time.Second

// DiscoveryStrategy finds a robot advertising a name starting with
// namePrefix. services lists the service UUIDs the connection will use; some
// backends need them up front.
type DiscoveryStrategy interface {
	Execute(ctx context.Context, services []string, namePrefix string) (Device, error)
}

// DiscoveryFunc adapts a function to the DiscoveryStrategy interface.
type DiscoveryFunc func(ctx context.Context, services []string, namePrefix string) (Device, error)

func (f DiscoveryFunc) Execute(ctx context.Context, services []string, namePrefix string) (Device, error) {
	return f(ctx, services, namePrefix)
}

// WithTimeout runs find with a context that expires after timeout. If the
// deadline passes before find returns a device, a TimeoutError is returned.
// Cancellation of the parent context is reported as is.
func WithTimeout(
	ctx context.Context,
	timeout time.Duration,
	find func(ctx context.Context) (Device, error),
) (Device, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	device, err := find(ctx)
	if err == nil {
		return device, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) && errors.Is(err, context.DeadlineExceeded) {
		return nil, TimeoutError(err, WithMessage("The robot was not found"))
	}
	return nil, err
}
