// Package serial implements the robot transport over a serial port, such as
// the USB link to the robot's microcontroller. Frames use the same format as
// over Bluetooth.
package serial

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/kellegous/poop"
	"go.uber.org/zap"

	"github.com/tamandutech/robotble"
)

// Port is an open serial port.
type Port interface {
	io.ReadWriteCloser
}

type Opener func(address string) (Port, error)

type endpoint struct {
	tx bool
}

func isTX(e endpoint) bool {
	return e.tx
}

type link struct {
	port           Port
	isDisconnected atomic.Bool
	done           chan struct{}
}

// Client is a robotble.Client over a serial port. Every TX id of the
// configuration shares the inbound stream of the port and every RX id writes
// to the port.
type Client struct {
	opts *ConnectOptions

	lck      sync.Mutex
	link     *link
	registry *robotble.Registry[endpoint]
}

var _ robotble.Client = (*Client)(nil)

func NewClient(opts ...ConnectOption) *Client {
	return &Client{
		opts:     buildOptions(opts),
		registry: robotble.NewRegistry[endpoint](),
	}
}

// Connect opens the port named by the device id.
func (c *Client) Connect(ctx context.Context, device robotble.Device, cfg *robotble.Config) error {
	if err := cfg.Validate(); err != nil {
		return robotble.ConnectionError(err)
	}

	c.lck.Lock()
	defer c.lck.Unlock()

	if c.link != nil {
		return robotble.ConnectionError(poop.New("already connected"))
	}

	port, err := c.opts.open(device.ID())
	if err != nil {
		return robotble.ConnectionError(poop.Chain(err))
	}

	channel := robotble.NewChannel()
	for _, chars := range cfg.Services {
		for id := range chars {
			c.registry.Register(id, endpoint{tx: robotble.IsTX(id)})
			if robotble.IsTX(id) {
				c.registry.Attach(id, channel)
			}
		}
	}

	l := &link{
		port: port,
		done: make(chan struct{}),
	}
	go c.read(l, channel)

	c.link = l
	c.opts.log.Info("connected", zap.String("port", device.ID()))
	return nil
}

func (c *Client) read(l *link, channel *robotble.Channel) {
	defer close(l.done)

	var buf [1024]byte
	for {
		n, err := l.port.Read(buf[:])
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			if c.opts.onRecv != nil {
				c.opts.onRecv(data)
			}
			channel.Publish(data)
		}
		if err != nil {
			if !l.isDisconnected.Load() {
				c.opts.log.Warn("serial read failed", zap.Error(err))
			}
			l.isDisconnected.Store(true)
			channel.Close()
			return
		}
	}
}

func (c *Client) IsConnected() bool {
	c.lck.Lock()
	defer c.lck.Unlock()
	return c.link != nil && !c.link.isDisconnected.Load()
}

// Disconnect closes the port. It does nothing when there is no connection.
func (c *Client) Disconnect(ctx context.Context) error {
	c.lck.Lock()
	defer c.lck.Unlock()

	l := c.link
	if l == nil {
		return nil
	}
	c.link = nil

	l.isDisconnected.Store(true)
	c.registry.Reset()
	if err := l.port.Close(); err != nil {
		return robotble.ConnectionError(poop.Chain(err))
	}

	select {
	case <-l.done:
	case <-ctx.Done():
		return poop.Chain(ctx.Err())
	}

	c.opts.log.Info("disconnected")
	return nil
}

func (c *Client) Send(ctx context.Context, rx, message string) error {
	e, err := c.registry.CheckRX(rx)
	if err != nil {
		return err
	}
	if e.tx {
		return robotble.ConnectionError(
			poop.Newf("characteristic %s is not writable", rx),
			robotble.WithMessage("Characteristic not found"),
			robotble.WithAction("Check that the characteristics are available on the robot"))
	}

	c.lck.Lock()
	l := c.link
	c.lck.Unlock()
	if l == nil {
		return robotble.CharacteristicWriteError(poop.New("port is closed"))
	}

	data := []byte(message + c.opts.terminator)
	if c.opts.onSend != nil {
		c.opts.onSend(rx, data)
	}
	if _, err := l.port.Write(data); err != nil {
		return robotble.CharacteristicWriteError(poop.Chain(err))
	}
	return nil
}

func (c *Client) Request(ctx context.Context, tx, rx, command string) (*robotble.Message, error) {
	ch, err := c.registry.CheckTX(c.IsConnected(), tx, isTX)
	if err != nil {
		return nil, err
	}

	return robotble.Request(ctx, ch, func(ctx context.Context) error {
		return c.Send(ctx, rx, command)
	})
}

func (c *Client) Subscribe(tx string, fn robotble.Observer) (*robotble.Subscription, error) {
	ch, err := c.registry.CheckTX(c.IsConnected(), tx, isTX)
	if err != nil {
		return nil, err
	}
	return ch.Subscribe(fn), nil
}
