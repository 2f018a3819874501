//go:build (linux && !android) || (darwin && !ios) || windows

package native

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kellegous/poop"
	"tinygo.org/x/bluetooth"

	"github.com/tamandutech/robotble"
)

// TinyGoManager is a Manager backed by tinygo.org/x/bluetooth.
type TinyGoManager struct {
	adapter *bluetooth.Adapter

	lck   sync.Mutex
	seen  map[string]bluetooth.Address
	links map[string]*tinygoPeripheral
}

var _ Manager = (*TinyGoManager)(nil)

// DefaultManager enables the default adapter of the host.
func DefaultManager() (Manager, error) {
	return NewTinyGoManager(bluetooth.DefaultAdapter)
}

func NewTinyGoManager(adapter *bluetooth.Adapter) (*TinyGoManager, error) {
	if err := adapter.Enable(); err != nil {
		return nil, poop.Chain(err)
	}

	m := &TinyGoManager{
		adapter: adapter,
		seen:    map[string]bluetooth.Address{},
		links:   map[string]*tinygoPeripheral{},
	}

	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		m.lck.Lock()
		p := m.links[device.Address.String()]
		m.lck.Unlock()
		if p != nil {
			p.connected.Store(connected)
		}
	})

	return m, nil
}

func (m *TinyGoManager) Scan(fn func(Advertisement)) error {
	return m.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		addr := result.Address.String()

		m.lck.Lock()
		m.seen[addr] = result.Address
		m.lck.Unlock()

		fn(Advertisement{
			Address:   addr,
			LocalName: result.LocalName(),
			RSSI:      result.RSSI,
		})
	})
}

func (m *TinyGoManager) StopScan() error {
	return m.adapter.StopScan()
}

// Connect connects to a device that was seen by a previous scan.
func (m *TinyGoManager) Connect(ctx context.Context, address string) (Peripheral, error) {
	if err := ctx.Err(); err != nil {
		return nil, poop.Chain(err)
	}

	m.lck.Lock()
	addr, ok := m.seen[address]
	m.lck.Unlock()
	if !ok {
		return nil, poop.Newf("device %s was not seen during scan", address)
	}

	device, err := m.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, poop.Chain(err)
	}

	p := &tinygoPeripheral{
		device: device,
		release: func() {
			m.lck.Lock()
			defer m.lck.Unlock()
			delete(m.links, address)
		},
	}
	p.connected.Store(true)

	m.lck.Lock()
	m.links[address] = p
	m.lck.Unlock()

	return p, nil
}

type tinygoPeripheral struct {
	device    bluetooth.Device
	connected atomic.Bool
	release   func()
}

func (p *tinygoPeripheral) DiscoverServices(uuids []string) ([]Service, error) {
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, poop.Chain(err)
	}

	services, err := p.device.DiscoverServices(filter)
	if err != nil {
		return nil, poop.Chain(err)
	}

	res := make([]Service, 0, len(services))
	for _, s := range services {
		res = append(res, &tinygoService{service: s})
	}
	return res, nil
}

func (p *tinygoPeripheral) Disconnect() error {
	p.connected.Store(false)
	p.release()
	return p.device.Disconnect()
}

func (p *tinygoPeripheral) Connected() bool {
	return p.connected.Load()
}

type tinygoService struct {
	service bluetooth.DeviceService
}

func (s *tinygoService) UUID() string {
	return s.service.UUID().String()
}

func (s *tinygoService) DiscoverCharacteristics(uuids []string) ([]Characteristic, error) {
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, poop.Chain(err)
	}

	chars, err := s.service.DiscoverCharacteristics(filter)
	if err != nil {
		return nil, poop.Chain(err)
	}

	res := make([]Characteristic, 0, len(chars))
	for _, c := range chars {
		res = append(res, &tinygoCharacteristic{char: c})
	}
	return res, nil
}

type tinygoCharacteristic struct {
	char bluetooth.DeviceCharacteristic
}

func (c *tinygoCharacteristic) UUID() string {
	return c.char.UUID().String()
}

func (c *tinygoCharacteristic) EnableNotifications(fn func(value []byte)) error {
	return c.char.EnableNotifications(fn)
}

func (c *tinygoCharacteristic) WriteWithoutResponse(p []byte) (int, error) {
	return c.char.WriteWithoutResponse(p)
}

func parseUUIDs(uuids []string) ([]bluetooth.UUID, error) {
	res := make([]bluetooth.UUID, 0, len(uuids))
	for _, s := range uuids {
		s, err := robotble.NormalizeUUID(s)
		if err != nil {
			return nil, poop.Chain(err)
		}
		uuid, err := bluetooth.ParseUUID(s)
		if err != nil {
			return nil, poop.Chain(err)
		}
		res = append(res, uuid)
	}
	return res, nil
}
