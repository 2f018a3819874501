package web

import (
	"context"
	"sync"

	"github.com/kellegous/poop"
	"go.uber.org/zap"

	"github.com/tamandutech/robotble"
)

type characteristic struct {
	Characteristic
	notifiable bool
	remove     func()
}

func isNotifiable(c *characteristic) bool {
	return c.notifiable
}

// Client is a robotble.Client backed by Web Bluetooth.
type Client struct {
	opts *Options

	lck      sync.Mutex
	server   GATTServer
	registry *robotble.Registry[*characteristic]
}

var _ robotble.Client = (*Client)(nil)

func NewClient(opts ...Option) *Client {
	return &Client{
		opts:     buildOptions(opts),
		registry: robotble.NewRegistry[*characteristic](),
	}
}

// Connect connects to the GATT server of a device returned by Discovery and
// starts notifications on every TX characteristic that supports them.
func (c *Client) Connect(ctx context.Context, device robotble.Device, cfg *robotble.Config) error {
	if err := cfg.Validate(); err != nil {
		return robotble.ConnectionError(err)
	}

	d, ok := device.(Device)
	if !ok {
		return robotble.ConnectionError(poop.Newf("%T is not a web bluetooth device", device))
	}

	c.lck.Lock()
	defer c.lck.Unlock()

	if server := c.server; server != nil {
		if server.Connected() {
			return robotble.ConnectionError(poop.New("already connected"))
		}
		c.opts.log.Info("replacing dropped link")
		c.server = nil
		c.release(ctx)
		server.Disconnect()
	}

	server := d.GATT()
	if err := server.Connect(ctx); err != nil {
		return robotble.ConnectionError(poop.Chain(err))
	}

	if err := c.discover(ctx, server, cfg); err != nil {
		c.release(ctx)
		server.Disconnect()
		return robotble.ConnectionError(err)
	}

	c.server = server
	c.opts.log.Info("connected",
		zap.String("device", d.ID()),
		zap.String("name", d.Name()))
	return nil
}

func (c *Client) discover(ctx context.Context, server GATTServer, cfg *robotble.Config) error {
	for _, uuid := range cfg.ServiceUUIDs() {
		normalized, err := robotble.NormalizeUUID(uuid)
		if err != nil {
			return poop.Chain(err)
		}

		service, err := server.PrimaryService(ctx, normalized)
		if err != nil {
			return poop.Chain(err)
		}

		for id, charUUID := range cfg.Services[uuid] {
			normalized, err := robotble.NormalizeUUID(charUUID)
			if err != nil {
				return poop.Chain(err)
			}

			ch, err := service.Characteristic(ctx, normalized)
			if err != nil {
				return poop.Chain(err)
			}

			if err := c.register(ctx, id, ch); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) register(ctx context.Context, id string, ch Characteristic) error {
	h := &characteristic{Characteristic: ch}
	if !robotble.IsTX(id) || !ch.Properties().Notify {
		c.registry.Register(id, h)
		return nil
	}

	if err := ch.StartNotifications(ctx); err != nil {
		return poop.Chain(err)
	}

	channel := robotble.NewChannel()
	h.remove = ch.OnValueChanged(channel.Publish)
	h.notifiable = true

	c.registry.Register(id, h)
	c.registry.Attach(id, channel)
	return nil
}

func (c *Client) release(ctx context.Context) {
	for id, h := range c.registry.Reset() {
		if !h.notifiable {
			continue
		}
		h.remove()
		if err := h.StopNotifications(ctx); err != nil {
			c.opts.log.Debug("stop notifications",
				zap.String("characteristic", id),
				zap.Error(err))
		}
	}
}

func (c *Client) IsConnected() bool {
	c.lck.Lock()
	defer c.lck.Unlock()
	return c.server != nil && c.server.Connected()
}

// Disconnect removes every listener and disconnects the GATT server. It does
// nothing when there is no connection.
func (c *Client) Disconnect(ctx context.Context) error {
	c.lck.Lock()
	defer c.lck.Unlock()

	server := c.server
	if server == nil {
		return nil
	}
	c.server = nil

	c.release(ctx)
	server.Disconnect()
	c.opts.log.Info("disconnected")
	return nil
}

func (c *Client) Send(ctx context.Context, rx, message string) error {
	h, err := c.registry.CheckRX(rx)
	if err != nil {
		return err
	}

	if err := h.WriteWithoutResponse(ctx, []byte(message)); err != nil {
		return robotble.CharacteristicWriteError(poop.Chain(err))
	}
	return nil
}

func (c *Client) Request(ctx context.Context, tx, rx, command string) (*robotble.Message, error) {
	ch, err := c.registry.CheckTX(c.IsConnected(), tx, isNotifiable)
	if err != nil {
		return nil, err
	}

	return robotble.Request(ctx, ch, func(ctx context.Context) error {
		return c.Send(ctx, rx, command)
	})
}

func (c *Client) Subscribe(tx string, fn robotble.Observer) (*robotble.Subscription, error) {
	ch, err := c.registry.CheckTX(c.IsConnected(), tx, isNotifiable)
	if err != nil {
		return nil, err
	}
	return ch.Subscribe(fn), nil
}
