package adapter

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/tamandutech/robotble"
	"github.com/tamandutech/robotble/robotbletest"
)

func uartConfig() *robotble.Config {
	return &robotble.Config{
		Services: map[string]map[string]string{
			"6e400001-b5a3-f393-e0a9-e50e24dcca9e": {
				"UART_TX": "6e400003-b5a3-f393-e0a9-e50e24dcca9e",
				"UART_RX": "6e400002-b5a3-f393-e0a9-e50e24dcca9e",
			},
		},
	}
}

type stateLog struct {
	lck    sync.Mutex
	states []State
}

func (l *stateLog) record(s State) {
	l.lck.Lock()
	defer l.lck.Unlock()
	l.states = append(l.states, s)
}

func (l *stateLog) Get() []State {
	l.lck.Lock()
	defer l.lck.Unlock()
	return append([]State(nil), l.states...)
}

type harness struct {
	client      *robotbletest.Client
	discovery   *robotbletest.Discovery
	permissions *robotbletest.Permissions
	store       *CurrentRobot
	states      *stateLog
	adapter     *Adapter
}

func newHarness() *harness {
	h := &harness{
		client: robotbletest.NewClient(robotbletest.Reply("OK")),
		discovery: &robotbletest.Discovery{
			Device: &robotbletest.Device{Address: "AA:BB", LocalName: "Braia"},
		},
		permissions: &robotbletest.Permissions{
			Result: robotble.PermissionResult{Granted: true},
		},
		store:  &CurrentRobot{},
		states: &stateLog{},
	}
	h.adapter = New(h.client, h.discovery, h.permissions,
		WithStore(h.store),
		WithStateListener(h.states.record))
	return h
}

func TestRequestDevice(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h := newHarness()
		device, err := h.adapter.RequestDevice(t.Context(), uartConfig(), "Braia")
		if err != nil {
			t.Fatal(err)
		}
		if device.Name() != "Braia" {
			t.Fatalf("unexpected device %s", device.Name())
		}

		services, prefix := h.discovery.Last()
		if !reflect.DeepEqual(services, uartConfig().ServiceUUIDs()) || prefix != "Braia" {
			t.Fatalf("unexpected discovery arguments %v %q", services, prefix)
		}

		expected := []State{StateRequestingDevice, StateIdle}
		if !reflect.DeepEqual(h.states.Get(), expected) {
			t.Fatalf("expected %v, got %v", expected, h.states.Get())
		}
	})

	t.Run("not found", func(t *testing.T) {
		h := newHarness()
		h.discovery.Err = robotble.DeviceNotFoundError(nil)
		_, err := h.adapter.RequestDevice(t.Context(), uartConfig(), "Braia")
		if !errors.Is(err, robotble.ErrDeviceNotFound) {
			t.Fatalf("expected device not found, got %v", err)
		}
		if h.adapter.State() != StateIdle {
			t.Fatalf("expected idle, got %s", h.adapter.State())
		}
	})

	t.Run("permissions denied", func(t *testing.T) {
		h := newHarness()
		h.permissions.Result = robotble.PermissionResult{
			Action: "Enable the Web Bluetooth API in your browser to connect to the robot",
		}

		_, err := h.adapter.RequestDevice(t.Context(), uartConfig(), "Braia")
		var e *robotble.Error
		if !errors.As(err, &e) || e.Kind != robotble.ErrPermissionsNotGranted {
			t.Fatalf("expected permissions error, got %v", err)
		}
		if e.Action != h.permissions.Result.Action {
			t.Fatalf("unexpected action %q", e.Action)
		}
		if len(h.states.Get()) != 0 {
			t.Fatalf("expected no state change, got %v", h.states.Get())
		}
	})

	t.Run("permissions cached once granted", func(t *testing.T) {
		h := newHarness()
		for range 3 {
			if _, err := h.adapter.RequestDevice(t.Context(), uartConfig(), "Braia"); err != nil {
				t.Fatal(err)
			}
		}
		if h.permissions.Calls() != 1 {
			t.Fatalf("expected 1 permission check, got %d", h.permissions.Calls())
		}
	})

	t.Run("permissions checked again after denial", func(t *testing.T) {
		h := newHarness()
		h.permissions.Result = robotble.PermissionResult{}
		if _, err := h.adapter.RequestDevice(t.Context(), uartConfig(), "Braia"); err == nil {
			t.Fatal("expected error")
		}
		h.permissions.Result = robotble.PermissionResult{Granted: true}
		if _, err := h.adapter.RequestDevice(t.Context(), uartConfig(), "Braia"); err != nil {
			t.Fatal(err)
		}
		if h.permissions.Calls() != 2 {
			t.Fatalf("expected 2 permission checks, got %d", h.permissions.Calls())
		}
	})
}

func TestConnect(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness()
		cfg := uartConfig()
		device, err := h.adapter.ConnectByName(t.Context(), cfg, "Braia")
		if err != nil {
			t.Fatal(err)
		}
		if h.client.Device() != device {
			t.Fatal("expected client to be connected to the discovered device")
		}
		if h.adapter.State() != StateConnected {
			t.Fatalf("expected connected, got %s", h.adapter.State())
		}
		if h.store.Robot() != cfg {
			t.Fatal("expected robot to be published")
		}

		expected := []State{StateRequestingDevice, StateIdle, StateConnecting, StateConnected}
		if !reflect.DeepEqual(h.states.Get(), expected) {
			t.Fatalf("expected %v, got %v", expected, h.states.Get())
		}
	})

	t.Run("failure", func(t *testing.T) {
		h := newHarness()
		h.client.ConnectErr = errors.New("gatt server unreachable")
		err := h.adapter.Connect(t.Context(), h.discovery.Device, uartConfig())
		if !errors.Is(err, robotble.ErrConnection) {
			t.Fatalf("expected connection error, got %v", err)
		}
		if h.adapter.State() != StateIdle {
			t.Fatalf("expected idle, got %s", h.adapter.State())
		}
		if h.store.Robot() != nil {
			t.Fatal("did not expect a robot to be published")
		}
	})
}

func TestDisconnect(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness()
		if err := h.adapter.Connect(t.Context(), h.discovery.Device, uartConfig()); err != nil {
			t.Fatal(err)
		}
		if err := h.adapter.Disconnect(t.Context()); err != nil {
			t.Fatal(err)
		}
		if h.adapter.State() != StateIdle || h.store.Robot() != nil {
			t.Fatal("expected idle state with no robot")
		}
		if h.client.IsConnected() {
			t.Fatal("expected client to be disconnected")
		}
	})

	t.Run("failure still resets", func(t *testing.T) {
		h := newHarness()
		if err := h.adapter.Connect(t.Context(), h.discovery.Device, uartConfig()); err != nil {
			t.Fatal(err)
		}
		h.client.DisconnectErr = errors.New("already gone")
		if err := h.adapter.Disconnect(t.Context()); err == nil {
			t.Fatal("expected error")
		}
		if h.adapter.State() != StateIdle || h.store.Robot() != nil {
			t.Fatal("expected idle state with no robot")
		}
	})
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(&BackendConfig{Interface: InterfaceSerial})
	if err != nil {
		t.Fatal(err)
	}
	if res, err := b.Permissions.Execute(t.Context()); err != nil || !res.Granted {
		t.Fatalf("expected serial to be granted, got %+v %v", res, err)
	}

	if _, err := NewBackend(&BackendConfig{Interface: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown interface")
	}

	b, err = NewBackend(&BackendConfig{Platform: robotble.PlatformWeb})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Discovery.Execute(t.Context(), nil, "Braia"); !errors.Is(err, robotble.ErrDeviceNotFound) {
		t.Fatalf("expected device not found without a browser, got %v", err)
	}
}
