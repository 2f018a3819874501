package adapter

import (
	"strings"
	"time"

	"github.com/kellegous/poop"
	"go.uber.org/zap"

	"github.com/tamandutech/robotble"
	"github.com/tamandutech/robotble/native"
	"github.com/tamandutech/robotble/permissions"
	"github.com/tamandutech/robotble/serial"
	"github.com/tamandutech/robotble/web"
)

const (
	InterfaceBLE    = "ble"
	InterfaceSerial = "serial"
)

// Backend is the set of strategies used to reach a robot on a platform.
type Backend struct {
	Client      robotble.Client
	Discovery   robotble.DiscoveryStrategy
	Permissions robotble.PermissionStrategy
}

type BackendConfig struct {
	Platform robotble.Platform

	// Interface is either "ble" (the default) or "serial".
	Interface string

	// Manager is the native Bluetooth stack. When nil the default stack of
	// the host is used.
	Manager native.Manager

	// Requester asks for runtime permissions on Android.
	Requester permissions.Requester

	// DiscoveryTimeout bounds Bluetooth scans. Zero keeps the default.
	DiscoveryTimeout time.Duration

	// Native configures the native Bluetooth client.
	Native []native.Option

	// Serial configures the serial client.
	Serial []serial.ConnectOption

	Log *zap.Logger
}

// NewBackend assembles the client, discovery and permission strategies for
// the platform and interface of cfg.
func NewBackend(cfg *BackendConfig) (*Backend, error) {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	switch strings.ToLower(cfg.Interface) {
	case "", InterfaceBLE:
	case InterfaceSerial:
		return &Backend{
			Client:      serial.NewClient(append([]serial.ConnectOption{serial.WithLogger(log)}, cfg.Serial...)...),
			Discovery:   serial.NewDiscovery(),
			Permissions: permissions.Granted{},
		}, nil
	default:
		return nil, poop.Newf("unknown interface %q", cfg.Interface)
	}

	timeout := cfg.DiscoveryTimeout
	if timeout <= 0 {
		timeout = robotble.DefaultDiscoveryTimeout
	}

	if cfg.Platform == robotble.PlatformWeb {
		return &Backend{
			Client:      web.NewClient(web.WithLogger(log)),
			Discovery:   web.NewDiscovery(web.Navigator()).WithTimeout(timeout),
			Permissions: permissions.NewWeb(nil),
		}, nil
	}

	manager := cfg.Manager
	if manager == nil {
		m, err := native.DefaultManager()
		if err != nil {
			return nil, poop.Chain(err)
		}
		manager = m
	}

	perms := permissions.ForPlatform(cfg.Platform, cfg.Requester, nil)
	if b, ok := perms.(*permissions.BlueZ); ok {
		perms = b.WithLogger(log)
	}

	return &Backend{
		Client:      native.NewClient(manager, append([]native.Option{native.WithLogger(log)}, cfg.Native...)...),
		Discovery:   native.NewDiscovery(manager, native.WithLogger(log)).WithTimeout(timeout),
		Permissions: perms,
	}, nil
}

// NewForPlatform returns an Adapter over the backend described by cfg.
func NewForPlatform(cfg *BackendConfig, opts ...Option) (*Adapter, error) {
	b, err := NewBackend(cfg)
	if err != nil {
		return nil, poop.Chain(err)
	}
	return New(b.Client, b.Discovery, b.Permissions, opts...), nil
}
