// Package native implements the robot transport on top of a native Bluetooth
// stack, such as BlueZ, CoreBluetooth or WinRT.
package native

import "context"

// Advertisement is a single scan result.
type Advertisement struct {
	Address   string
	LocalName string
	RSSI      int16
}

// Manager is the part of a Bluetooth stack the client needs.
type Manager interface {
	// Scan blocks, calling fn for every advertisement, until StopScan is called.
	Scan(fn func(Advertisement)) error
	StopScan() error
	Connect(ctx context.Context, address string) (Peripheral, error)
}

// Peripheral is a connected device.
type Peripheral interface {
	DiscoverServices(uuids []string) ([]Service, error)
	Disconnect() error
	Connected() bool
}

type Service interface {
	UUID() string
	DiscoverCharacteristics(uuids []string) ([]Characteristic, error)
}

type Characteristic interface {
	UUID() string
	// EnableNotifications registers fn to receive value changes. A nil fn
	// disables notifications.
	EnableNotifications(fn func(value []byte)) error
	WriteWithoutResponse(p []byte) (int, error)
}
