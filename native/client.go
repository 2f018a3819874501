package native

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/kellegous/poop"
	"go.uber.org/zap"

	"github.com/tamandutech/robotble"
)

type characteristic struct {
	Characteristic
	notifiable bool
}

func isNotifiable(c *characteristic) bool {
	return c.notifiable
}

// Client is a robotble.Client backed by a native Bluetooth Manager.
type Client struct {
	manager Manager
	opts    *Options

	lck        sync.Mutex
	peripheral Peripheral
	registry   *robotble.Registry[*characteristic]
}

var _ robotble.Client = (*Client)(nil)

func NewClient(manager Manager, opts ...Option) *Client {
	return &Client{
		manager:  manager,
		opts:     buildOptions(opts),
		registry: robotble.NewRegistry[*characteristic](),
	}
}

// Connect connects to the device, discovers the configured services and
// characteristics and starts listening on every TX characteristic.
func (c *Client) Connect(ctx context.Context, device robotble.Device, cfg *robotble.Config) error {
	if err := cfg.Validate(); err != nil {
		return robotble.ConnectionError(err)
	}

	c.lck.Lock()
	defer c.lck.Unlock()

	if p := c.peripheral; p != nil {
		if p.Connected() {
			return robotble.ConnectionError(poop.New("already connected"))
		}
		c.opts.log.Info("replacing dropped link")
		c.peripheral = nil
		c.teardown(p)
	}

	log := c.opts.log.With(zap.String("device", device.ID()))

	p, err := c.manager.Connect(ctx, device.ID())
	if err != nil {
		return robotble.ConnectionError(poop.Chain(err))
	}

	if err := c.discover(p, cfg, log); err != nil {
		c.teardown(p)
		return robotble.ConnectionError(err)
	}

	c.peripheral = p
	log.Info("connected",
		zap.String("name", device.Name()),
		zap.Int("characteristics", c.registry.Len()))
	return nil
}

func (c *Client) discover(p Peripheral, cfg *robotble.Config, log *zap.Logger) error {
	services, err := p.DiscoverServices(cfg.ServiceUUIDs())
	if err != nil {
		return poop.Chain(err)
	}
	if len(services) == 0 {
		return poop.New("no services found")
	}

	for _, uuid := range cfg.ServiceUUIDs() {
		i := slices.IndexFunc(services, func(s Service) bool {
			return robotble.SameUUID(s.UUID(), uuid)
		})
		if i < 0 {
			return poop.Newf("service %s not found", uuid)
		}

		ids := cfg.Services[uuid]
		var uuids []string
		for _, id := range slices.Sorted(maps.Keys(ids)) {
			uuids = append(uuids, ids[id])
		}

		chars, err := services[i].DiscoverCharacteristics(uuids)
		if err != nil {
			return poop.Chain(err)
		}
		if len(chars) == 0 {
			return poop.Newf("no characteristics found in service %s", uuid)
		}

		for _, ch := range chars {
			for id, want := range ids {
				if !robotble.SameUUID(ch.UUID(), want) {
					continue
				}
				if err := c.register(id, ch, log); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (c *Client) register(id string, ch Characteristic, log *zap.Logger) error {
	h := &characteristic{Characteristic: ch}
	if !robotble.IsTX(id) {
		c.registry.Register(id, h)
		return nil
	}

	channel := robotble.NewChannel()
	onNotification := c.opts.onNotification
	if err := ch.EnableNotifications(func(data []byte) {
		if onNotification != nil {
			onNotification(id, data)
		}
		channel.Publish(data)
	}); err != nil {
		log.Warn("unable to enable notifications",
			zap.String("characteristic", id),
			zap.Error(err))
		return poop.Chain(err)
	}

	h.notifiable = true
	c.registry.Register(id, h)
	c.registry.Attach(id, channel)
	return nil
}

func (c *Client) teardown(p Peripheral) {
	for _, h := range c.registry.Reset() {
		if h.notifiable {
			h.EnableNotifications(nil)
		}
	}
	if err := p.Disconnect(); err != nil {
		c.opts.log.Debug("disconnect after failed connect", zap.Error(err))
	}
}

// IsConnected reports whether the link to the robot is up.
func (c *Client) IsConnected() bool {
	c.lck.Lock()
	defer c.lck.Unlock()
	return c.peripheral != nil && c.peripheral.Connected()
}

// Disconnect stops listening on every TX characteristic and drops the link.
// It does nothing when there is no connection.
func (c *Client) Disconnect(ctx context.Context) error {
	c.lck.Lock()
	defer c.lck.Unlock()

	p := c.peripheral
	if p == nil {
		return nil
	}
	c.peripheral = nil

	for _, h := range c.registry.Reset() {
		if h.notifiable {
			h.EnableNotifications(nil)
		}
	}

	if err := p.Disconnect(); err != nil {
		return robotble.ConnectionError(poop.Chain(err))
	}
	c.opts.log.Info("disconnected")
	return nil
}

func (c *Client) Send(ctx context.Context, rx, message string) error {
	h, err := c.registry.CheckRX(rx)
	if err != nil {
		return err
	}

	if _, err := h.WriteWithoutResponse([]byte(message)); err != nil {
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
