// Package web implements the robot transport on top of the Web Bluetooth API.
// The API is reached through syscall/js when built for js/wasm; other builds
// can provide their own Bluetooth implementation.
package web

import "context"

type Filter struct {
	NamePrefix string
}

type RequestDeviceOptions struct {
	Filters          []Filter
	OptionalServices []string
}

// Bluetooth is the navigator.bluetooth object.
type Bluetooth interface {
	// RequestDevice shows the device picker. It returns a nil Device if the
	// user dismissed the picker without choosing.
	RequestDevice(ctx context.Context, opts *RequestDeviceOptions) (Device, error)
}

// Device is a BluetoothDevice returned by the picker.
type Device interface {
	ID() string
	Name() string
	GATT() GATTServer
}

type GATTServer interface {
	Connect(ctx context.Context) error
	Connected() bool
	Disconnect()
	PrimaryService(ctx context.Context, uuid string) (Service, error)
}

type Service interface {
	Characteristic(ctx context.Context, uuid string) (Characteristic, error)
}

type Properties struct {
	Notify               bool
	WriteWithoutResponse bool
}

type Characteristic interface {
	UUID() string
	Properties() Properties
	StartNotifications(ctx context.Context) error
	StopNotifications(ctx context.Context) error
	// OnValueChanged adds a characteristicvaluechanged listener and returns a
	// function that removes it.
	OnValueChanged(fn func(value []byte)) (remove func())
	WriteWithoutResponse(ctx context.Context, p []byte) error
}
