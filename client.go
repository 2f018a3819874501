package robotble

import "context"

// Device is a robot found by a DiscoveryStrategy.
type Device interface {
	// ID returns the backend identifier of the device, such as a Bluetooth
	// address or a serial port path.
	ID() string
	Name() string
}

// Client is a transport to a single robot. Implementations exist for native
// Bluetooth stacks, Web Bluetooth and serial ports.
//
// Requests on the same TX characteristic must not overlap: Request returns
// the first message that arrives after the command is sent, so a caller must
// wait for one request to finish before issuing the next.
type Client interface {
	Connect(ctx context.Context, device Device, cfg *Config) error
	IsConnected() bool
	Disconnect(ctx context.Context) error

	// Send writes message to the characteristic registered under rx.
	Send(ctx context.Context, rx, message string) error

	// Request sends command to rx and returns the next message received on
	// tx.
	Request(ctx context.Context, tx, rx, command string) (*Message, error)

	// Subscribe attaches an observer to the messages received on tx.
	Subscribe(tx string, fn Observer) (*Subscription, error)
}
