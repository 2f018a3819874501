package web

import (
	"context"
	"time"

	"github.com/kellegous/poop"

	"github.com/tamandutech/robotble"
)

// Discovery opens the browser's device picker filtered by name prefix.
type Discovery struct {
	bluetooth Bluetooth
	timeout   time.Duration
}

var _ robotble.DiscoveryStrategy = (*Discovery)(nil)

func NewDiscovery(bluetooth Bluetooth) *Discovery {
	return &Discovery{
		bluetooth: bluetooth,
		timeout:   robotble.DefaultDiscoveryTimeout,
	}
}

// WithTimeout returns a copy of the discovery that gives up after timeout.
func (d *Discovery) WithTimeout(timeout time.Duration) *Discovery {
	dd := *d
	dd.timeout = timeout
	return &dd
}

// Execute asks the user to pick a robot. The services are passed as optional
// services so the connection may use them afterwards.
func (d *Discovery) Execute(ctx context.Context, services []string, namePrefix string) (robotble.Device, error) {
	if d.bluetooth == nil {
		return nil, robotble.DeviceNotFoundError(poop.New("web bluetooth is not available"))
	}

	optional := make([]string, 0, len(services))
	for _, s := range services {
		uuid, err := robotble.NormalizeUUID(s)
		if err != nil {
			return nil, robotble.DeviceNotFoundError(poop.Chain(err))
		}
		optional = append(optional, uuid)
	}

	return robotble.WithTimeout(ctx, d.timeout, func(ctx context.Context) (robotble.Device, error) {
		device, err := d.bluetooth.RequestDevice(ctx, &RequestDeviceOptions{
			Filters:          []Filter{{NamePrefix: namePrefix}},
			OptionalServices: optional,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, robotble.DeviceNotFoundError(poop.Chain(err))
		}
		if device == nil {
			return nil, robotble.DeviceNotFoundError(poop.New("no device selected"))
		}
		return device, nil
	})
}
