package serial

import (
	"context"
	"strings"
	"time"

	"github.com/kellegous/poop"
	"go.bug.st/serial"

	"github.com/tamandutech/robotble"
)

// Device is a serial port.
type Device string

var _ robotble.Device = Device("")

func (d Device) ID() string {
	return string(d)
}

func (d Device) Name() string {
	return string(d)
}

// Discovery picks the first serial port whose name starts with a prefix, such
// as /dev/ttyUSB or COM.
type Discovery struct {
	list    func() ([]string, error)
	timeout time.Duration
}

var _ robotble.DiscoveryStrategy = (*Discovery)(nil)

func NewDiscovery() *Discovery {
	return &Discovery{
		list:    serial.GetPortsList,
		timeout: robotble.DefaultDiscoveryTimeout,
	}
}

func (d *Discovery) Execute(ctx context.Context, services []string, namePrefix string) (robotble.Device, error) {
	return robotble.WithTimeout(ctx, d.timeout, func(ctx context.Context) (robotble.Device, error) {
		ports, err := d.list()
		if err != nil {
			return nil, robotble.DeviceNotFoundError(poop.Chain(err))
		}
		for _, port := range ports {
			if strings.HasPrefix(port, namePrefix) {
				return Device(port), nil
			}
		}
		return nil, robotble.DeviceNotFoundError(poop.Newf("no port matches %q", namePrefix))
	})
}
