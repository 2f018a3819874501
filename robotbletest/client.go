// Package robotbletest provides an in-memory robotble.Client for testing code
// that talks to robots.
package robotbletest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kellegous/poop"

	"github.com/tamandutech/robotble"
)

// Handler simulates the robot. It is called for every message sent and
// returns the reply to publish on every TX channel, or nil for no reply.
type Handler func(rx, message string) *robotble.Message

// Reply returns a Handler that answers every command with data.
func Reply(data string) Handler {
	return func(rx, message string) *robotble.Message {
		return &robotble.Message{CmdExecd: message, Data: data}
	}
}

// Client is a fake robotble.Client. The zero value is not usable, use
// NewClient.
type Client struct {
	ConnectErr    error
	DisconnectErr error
	SendErr       error

	lck       sync.Mutex
	handler   Handler
	connected bool
	device    robotble.Device
	rx        map[string]bool
	channels  map[string]*robotble.Channel
	sent      []string
}

var _ robotble.Client = (*Client)(nil)

func NewClient(handler Handler) *Client {
	return &Client{
		handler:  handler,
		rx:       map[string]bool{},
		channels: map[string]*robotble.Channel{},
	}
}

// SetHandler replaces the handler simulating the robot.
func (c *Client) SetHandler(h Handler) {
	c.lck.Lock()
	defer c.lck.Unlock()
	c.handler = h
}

func (c *Client) Connect(ctx context.Context, device robotble.Device, cfg *robotble.Config) error {
	if c.ConnectErr != nil {
		return robotble.ConnectionError(c.ConnectErr)
	}
	if err := cfg.Validate(); err != nil {
		return robotble.ConnectionError(err)
	}

	c.lck.Lock()
	defer c.lck.Unlock()

	for _, chars := range cfg.Services {
		for id := range chars {
			if robotble.IsTX(id) {
				c.channels[id] = robotble.NewChannel()
			} else {
				c.rx[id] = true
			}
		}
	}
	c.device = device
	c.connected = true
	return nil
}

func (c *Client) IsConnected() bool {
	c.lck.Lock()
	defer c.lck.Unlock()
	return c.connected
}

// Device returns the device passed to the last Connect.
func (c *Client) Device() robotble.Device {
	c.lck.Lock()
	defer c.lck.Unlock()
	return c.device
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.lck.Lock()
	channels := c.channels
	c.channels = map[string]*robotble.Channel{}
	c.rx = map[string]bool{}
	c.connected = false
	c.lck.Unlock()

	for _, ch := range channels {
		ch.Close()
	}

	if c.DisconnectErr != nil {
		return robotble.ConnectionError(c.DisconnectErr)
	}
	return nil
}

func (c *Client) Send(ctx context.Context, rx, message string) error {
	c.lck.Lock()
	if !c.rx[rx] {
		c.lck.Unlock()
		return robotble.ConnectionError(
			poop.Newf("characteristic %s is not registered", rx),
			robotble.WithMessage("Characteristic not found"),
			robotble.WithAction("Check that the characteristics are available on the robot"))
	}
	if c.SendErr != nil {
		c.lck.Unlock()
		return robotble.CharacteristicWriteError(c.SendErr)
	}
	c.sent = append(c.sent, message)
	h := c.handler
	c.lck.Unlock()

	if h != nil {
		if reply := h(rx, message); reply != nil {
			c.Publish(reply)
		}
	}
	return nil
}

// Sent returns every message sent so far.
func (c *Client) Sent() []string {
	c.lck.Lock()
	defer c.lck.Unlock()
	return append([]string(nil), c.sent...)
}

// Publish delivers msg on every TX channel as if the robot had sent it.
func (c *Client) Publish(msg *robotble.Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	c.Emit(append(b, 0))
}

// Emit delivers a raw chunk on every TX channel.
func (c *Client) Emit(chunk []byte) {
	c.lck.Lock()
	var channels []*robotble.Channel
	for _, ch := range c.channels {
		channels = append(channels, ch)
	}
	c.lck.Unlock()

	for _, ch := range channels {
		ch.Publish(chunk)
	}
}

func (c *Client) channel(tx string) (*robotble.Channel, error) {
	c.lck.Lock()
	defer c.lck.Unlock()

	if !c.connected {
		return nil, robotble.ConnectionError(
			poop.New("not connected"),
			robotble.WithMessage("No bluetooth connection"),
			robotble.WithAction("Connect the dashboard to a line follower"))
	}
	ch, ok := c.channels[tx]
	if !ok {
		return nil, robotble.ConnectionError(
			poop.Newf("characteristic %s is not registered", tx),
			robotble.WithMessage("Problems were found communicating with the robot"),
			robotble.WithAction("Check the robot's bluetooth interface configuration"))
	}
	return ch, nil
}

func (c *Client) Request(ctx context.Context, tx, rx, command string) (*robotble.Message, error) {
	ch, err := c.channel(tx)
	if err != nil {
		return nil, err
	}
	return robotble.Request(ctx, ch, func(ctx context.Context) error {
		return c.Send(ctx, rx, command)
	})
}

func (c *Client) Subscribe(tx string, fn robotble.Observer) (*robotble.Subscription, error) {
	ch, err := c.channel(tx)
	if err != nil {
		return nil, err
	}
	return ch.Subscribe(fn), nil
}

// Device is a fake robotble.Device.
type Device struct {
	Address   string
	LocalName string
}

func (d *Device) ID() string   { return d.Address }
func (d *Device) Name() string { return d.LocalName }

// Discovery is a fake robotble.DiscoveryStrategy returning Device or Err.
type Discovery struct {
	Device robotble.Device
	Err    error

	lck      sync.Mutex
	services []string
	prefix   string
}

func (d *Discovery) Execute(ctx context.Context, services []string, namePrefix string) (robotble.Device, error) {
	d.lck.Lock()
	d.services, d.prefix = services, namePrefix
	d.lck.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Device, nil
}

// Last returns the arguments of the last Execute.
func (d *Discovery) Last() ([]string, string) {
	d.lck.Lock()
	defer d.lck.Unlock()
	return d.services, d.prefix
}

// Permissions is a fake robotble.PermissionStrategy that counts its calls.
type Permissions struct {
	Result robotble.PermissionResult
	Err    error

	lck   sync.Mutex
	calls int
}

func (p *Permissions) Execute(ctx context.Context) (robotble.PermissionResult, error) {
	p.lck.Lock()
	p.calls++
	p.lck.Unlock()
	return p.Result, p.Err
}

func (p *Permissions) Calls() int {
	p.lck.Lock()
	defer p.lck.Unlock()
	return p.calls
}
