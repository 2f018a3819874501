package native

import (
	"context"
	"errors"
	"sync"
)

const (
	uartService = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	uartRX      = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"
	uartTX      = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
)

type fakeCharacteristic struct {
	uuid      string
	notifyErr error
	writeErr  error

	lck     sync.Mutex
	notify  func([]byte)
	written []string

	// respond is called for every write, simulating the robot.
	respond func(c *fakeCharacteristic, p []byte)
}

func (c *fakeCharacteristic) UUID() string {
	return c.uuid
}

func (c *fakeCharacteristic) EnableNotifications(fn func([]byte)) error {
	if c.notifyErr != nil {
		return c.notifyErr
	}
	c.lck.Lock()
	defer c.lck.Unlock()
	c.notify = fn
	return nil
}

func (c *fakeCharacteristic) WriteWithoutResponse(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.lck.Lock()
	c.written = append(c.written, string(p))
	respond := c.respond
	c.lck.Unlock()
	if respond != nil {
		respond(c, p)
	}
	return len(p), nil
}

func (c *fakeCharacteristic) Notify(data []byte) {
	c.lck.Lock()
	fn := c.notify
	c.lck.Unlock()
	if fn != nil {
		fn(data)
	}
}

func (c *fakeCharacteristic) Written() []string {
	c.lck.Lock()
	defer c.lck.Unlock()
	return append([]string(nil), c.written...)
}

func (c *fakeCharacteristic) Notifying() bool {
	c.lck.Lock()
	defer c.lck.Unlock()
	return c.notify != nil
}

type fakeService struct {
	uuid  string
	chars []*fakeCharacteristic
}

func (s *fakeService) UUID() string {
	return s.uuid
}

func (s *fakeService) DiscoverCharacteristics(uuids []string) ([]Characteristic, error) {
	var res []Characteristic
	for _, c := range s.chars {
		res = append(res, c)
	}
	return res, nil
}

type fakePeripheral struct {
	services     []*fakeService
	disconnected bool
}

func (p *fakePeripheral) DiscoverServices(uuids []string) ([]Service, error) {
	var res []Service
	for _, s := range p.services {
		res = append(res, s)
	}
	return res, nil
}

func (p *fakePeripheral) Disconnect() error {
	p.disconnected = true
	return nil
}

func (p *fakePeripheral) Connected() bool {
	return !p.disconnected
}

type fakeManager struct {
	peripheral *fakePeripheral
	ads        []Advertisement
	scanErr    error

	lck       sync.Mutex
	stops     int
	stopped   chan struct{}
	stopOnce  sync.Once
	connected []string
}

func newFakeManager(p *fakePeripheral, ads ...Advertisement) *fakeManager {
	return &fakeManager{
		peripheral: p,
		ads:        ads,
		stopped:    make(chan struct{}),
	}
}

func (m *fakeManager) Scan(fn func(Advertisement)) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	for _, ad := range m.ads {
		fn(ad)
	}
	<-m.stopped
	return nil
}

func (m *fakeManager) StopScan() error {
	m.lck.Lock()
	m.stops++
	m.lck.Unlock()
	m.stopOnce.Do(func() {
		close(m.stopped)
	})
	return nil
}

func (m *fakeManager) Stops() int {
	m.lck.Lock()
	defer m.lck.Unlock()
	return m.stops
}

func (m *fakeManager) Connect(ctx context.Context, address string) (Peripheral, error) {
	if m.peripheral == nil {
		return nil, errors.New("unreachable")
	}
	m.lck.Lock()
	m.connected = append(m.connected, address)
	m.lck.Unlock()
	m.peripheral.disconnected = false
	return m.peripheral, nil
}

type robot struct {
	tx *fakeCharacteristic
	rx *fakeCharacteristic
}

// newRobot returns a peripheral exposing the UART service. Every write to RX
// is answered by reply on TX, split into chunks of at most 20 bytes.
func newRobot(reply func(cmd string) string) (*fakePeripheral, *robot) {
	r := &robot{
		tx: &fakeCharacteristic{uuid: uartTX},
		rx: &fakeCharacteristic{uuid: uartRX},
	}
	if reply != nil {
		r.rx.respond = func(_ *fakeCharacteristic, p []byte) {
			data := []byte(reply(string(p)) + "\x00")
			go func() {
				for len(data) > 0 {
					n := min(20, len(data))
					r.tx.Notify(data[:n])
					data = data[n:]
				}
			}()
		}
	}
	return &fakePeripheral{
		services: []*fakeService{
			{uuid: uartService, chars: []*fakeCharacteristic{r.tx, r.rx}},
		},
	}, r
}
