package native

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kellegous/poop"
	"go.uber.org/zap"

	"github.com/tamandutech/robotble"
)

// Device is a robot found while scanning.
type Device struct {
	Advertisement
}

var _ robotble.Device = (*Device)(nil)

func (d *Device) ID() string {
	return d.Address
}

func (d *Device) Name() string {
	return d.LocalName
}

// Discovery finds robots by scanning for advertisements whose local name
// starts with a prefix.
type Discovery struct {
	manager Manager
	timeout time.Duration
	log     *zap.Logger
}

var _ robotble.DiscoveryStrategy = (*Discovery)(nil)

func NewDiscovery(manager Manager, opts ...Option) *Discovery {
	o := buildOptions(opts)
	return &Discovery{
		manager: manager,
		timeout: robotble.DefaultDiscoveryTimeout,
		log:     o.log,
	}
}

// WithTimeout returns a copy of the discovery that gives up after timeout.
func (d *Discovery) WithTimeout(timeout time.Duration) *Discovery {
	dd := *d
	dd.timeout = timeout
	return &dd
}

// Execute scans until a matching robot is found, the timeout passes or ctx is
// done. Scanning is always stopped before Execute returns.
func (d *Discovery) Execute(ctx context.Context, services []string, namePrefix string) (robotble.Device, error) {
	return robotble.WithTimeout(ctx, d.timeout, func(ctx context.Context) (robotble.Device, error) {
		return d.scan(ctx, namePrefix)
	})
}

// scan runs the manager's scan on its own goroutine until a match, an error or
// the end of ctx. A stop requested before the scan has really started fails
// on most stacks, so every advertisement seen after the request retries it.
func (d *Discovery) scan(ctx context.Context, namePrefix string) (robotble.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		once    sync.Once
		stopped atomic.Bool
		halted  atomic.Bool
	)
	halt := func() {
		if err := d.manager.StopScan(); err != nil {
			d.log.Debug("stop scan", zap.Error(err))
			return
		}
		halted.Store(true)
	}
	stop := func() {
		once.Do(func() {
			stopped.Store(true)
			halt()
		})
	}
	defer stop()

	found := make(chan *Device, 1)
	failed := make(chan error, 1)

	go func() {
		if stopped.Load() {
			return
		}
		err := d.manager.Scan(func(adv Advertisement) {
			if stopped.Load() {
				if !halted.Load() {
					halt()
				}
				return
			}
			if !strings.HasPrefix(adv.LocalName, namePrefix) {
				return
			}
			select {
			case found <- &Device{Advertisement: adv}:
				stop()
			default:
			}
		})
		if err != nil {
			failed <- err
		}
	}()

	select {
	case dev := <-found:
		d.log.Info("found robot",
			zap.String("name", dev.LocalName),
			zap.String("address", dev.Address),
			zap.Int16("rssi", dev.RSSI))
		return dev, nil
	case err := <-failed:
		return nil, robotble.DeviceNotFoundError(poop.Chain(err))
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
