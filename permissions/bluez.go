package permissions

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/kellegous/poop"
	"go.uber.org/zap"

	"github.com/tamandutech/robotble"
)

const (
	bluezBus       = "org.bluez"
	bluezAdapter   = "org.bluez.Adapter1"
	DefaultAdapter = dbus.ObjectPath("/org/bluez/hci0")
)

// PropertyGetter reads a D-Bus property. *dbus.Object satisfies it.
type PropertyGetter interface {
	GetProperty(p string) (dbus.Variant, error)
}

// BlueZ grants access when the BlueZ adapter exists and is powered.
type BlueZ struct {
	adapter PropertyGetter
	log     *zap.Logger
}

var _ robotble.PermissionStrategy = (*BlueZ)(nil)

// NewBlueZ returns a strategy reading the adapter through obj. If obj is nil,
// the default adapter is looked up on the system bus at each check.
func NewBlueZ(obj PropertyGetter) *BlueZ {
	return &BlueZ{adapter: obj, log: zap.NewNop()}
}

// WithLogger returns a copy of the strategy that logs to log.
func (b *BlueZ) WithLogger(log *zap.Logger) *BlueZ {
	bb := *b
	bb.log = log
	return &bb
}

func (b *BlueZ) Execute(ctx context.Context) (robotble.PermissionResult, error) {
	adapter := b.adapter
	if adapter == nil {
		conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
		if err != nil {
			b.log.Warn("unable to reach the system bus", zap.Error(err))
			return robotble.PermissionResult{Action: actionCheckBluetooth}, nil
		}
		defer conn.Close()
		adapter = conn.Object(bluezBus, DefaultAdapter)
	}

	powered, err := getProperty[bool](adapter, bluezAdapter, "Powered")
	if err != nil {
		b.log.Warn("unable to read adapter state", zap.Error(err))
		return robotble.PermissionResult{Action: actionCheckBluetooth}, nil
	}
	if !powered {
		return robotble.PermissionResult{Action: actionPowerOnAdapter}, nil
	}
	return robotble.PermissionResult{Granted: true}, nil
}

func getProperty[T any](obj PropertyGetter, iface, property string) (T, error) {
	var zero T
	v, err := obj.GetProperty(iface + "." + property)
	if err != nil {
		return zero, poop.Chain(err)
	}

	val, ok := v.Value().(T)
	if !ok {
		return zero, poop.Newf("property %s.%s has unexpected type %T", iface, property, v.Value())
	}
	return val, nil
}
