// Package adapter orchestrates permissions, discovery and the transport
// client into the connection lifecycle of a single robot.
package adapter

import (
	"context"
	"sync"

	"github.com/kellegous/poop"
	"go.uber.org/zap"

	"github.com/tamandutech/robotble"
)

type Adapter struct {
	client      robotble.Client
	discovery   robotble.DiscoveryStrategy
	permissions robotble.PermissionStrategy
	opts        *Options

	lck   sync.Mutex
	state State

	permLck sync.Mutex
	granted bool
}

func New(
	client robotble.Client,
	discovery robotble.DiscoveryStrategy,
	permissions robotble.PermissionStrategy,
	opts ...Option,
) *Adapter {
	o := &Options{
		store: &CurrentRobot{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Adapter{
		client:      client,
		discovery:   discovery,
		permissions: permissions,
		opts:        o,
		state:       StateIdle,
	}
}

// Client returns the transport client driven by the adapter.
func (a *Adapter) Client() robotble.Client {
	return a.client
}

func (a *Adapter) State() State {
	a.lck.Lock()
	defer a.lck.Unlock()
	return a.state
}

func (a *Adapter) setState(s State) {
	a.lck.Lock()
	prev := a.state
	a.state = s
	a.lck.Unlock()

	if prev == s {
		return
	}

	a.opts.log.Debug("state changed",
		zap.String("from", string(prev)),
		zap.String("to", string(s)))
	for _, fn := range a.opts.listeners {
		fn(s)
	}
}

// checkPermissions runs the permission strategy until it grants access.
func (a *Adapter) checkPermissions(ctx context.Context) error {
	a.permLck.Lock()
	defer a.permLck.Unlock()

	if a.granted {
		return nil
	}

	res, err := a.permissions.Execute(ctx)
	if err != nil {
		return robotble.PermissionsNotGrantedError(poop.Chain(err))
	}
	if !res.Granted {
		var opts []robotble.ErrorOption
		if res.Action != "" {
			opts = append(opts, robotble.WithAction(res.Action))
		}
		return robotble.PermissionsNotGrantedError(nil, opts...)
	}

	a.granted = true
	return nil
}

// RequestDevice looks for a robot whose name starts with namePrefix and that
// exposes the services of cfg.
func (a *Adapter) RequestDevice(
	ctx context.Context,
	cfg *robotble.Config,
	namePrefix string,
) (robotble.Device, error) {
	if err := a.checkPermissions(ctx); err != nil {
		return nil, err
	}

	a.setState(StateRequestingDevice)
	defer a.setState(StateIdle)

	device, err := a.discovery.Execute(ctx, cfg.ServiceUUIDs(), namePrefix)
	if err != nil {
		a.opts.log.Info("robot not found",
			zap.String("prefix", namePrefix),
			zap.Error(err))
		return nil, err
	}
	return device, nil
}

// Connect connects the client to device and publishes cfg to the robot store.
func (a *Adapter) Connect(ctx context.Context, device robotble.Device, cfg *robotble.Config) error {
	a.setState(StateConnecting)

	if err := a.client.Connect(ctx, device, cfg); err != nil {
		a.setState(StateIdle)
		return err
	}

	a.opts.store.SetRobot(cfg)
	a.setState(StateConnected)
	return nil
}

// Disconnect disconnects the client. The robot store is cleared and the state
// goes back to idle even if the client fails to disconnect.
func (a *Adapter) Disconnect(ctx context.Context) error {
	defer func() {
		a.opts.store.SetRobot(nil)
		a.setState(StateIdle)
	}()

	return a.client.Disconnect(ctx)
}

// ConnectByName finds a robot by name prefix and connects to it.
func (a *Adapter) ConnectByName(ctx context.Context, cfg *robotble.Config, namePrefix string) (robotble.Device, error) {
	device, err := a.RequestDevice(ctx, cfg, namePrefix)
	if err != nil {
		return nil, err
	}

	if err := a.Connect(ctx, device, cfg); err != nil {
		return nil, err
	}
	return device, nil
}
