package permissions

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/tamandutech/robotble"
)

type fakeRequester struct {
	statuses  map[Permission]Status
	err       error
	requested []Permission
}

func (r *fakeRequester) RequestMultiple(ctx context.Context, permissions []Permission) (map[Permission]Status, error) {
	r.requested = permissions
	return r.statuses, r.err
}

func TestAndroid(t *testing.T) {
	t.Run("all granted", func(t *testing.T) {
		r := &fakeRequester{statuses: map[Permission]Status{
			BluetoothScan:      StatusGranted,
			BluetoothConnect:   StatusGranted,
			AccessFineLocation: StatusGranted,
		}}
		res, err := NewAndroid(r).Execute(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if !res.Granted {
			t.Fatal("expected permissions to be granted")
		}
		if !reflect.DeepEqual(r.requested, []Permission{BluetoothScan, BluetoothConnect, AccessFineLocation}) {
			t.Fatalf("unexpected request %v", r.requested)
		}
	})

	t.Run("one denied", func(t *testing.T) {
		r := &fakeRequester{statuses: map[Permission]Status{
			BluetoothScan:      StatusGranted,
			BluetoothConnect:   StatusDenied,
			AccessFineLocation: StatusGranted,
		}}
		res, err := NewAndroid(r).Execute(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		expected := robotble.PermissionResult{
			Action: "Allow the dashboard to access Bluetooth features on your device",
		}
		if res != expected {
			t.Fatalf("expected %+v, got %+v", expected, res)
		}
	})

	t.Run("no requester", func(t *testing.T) {
		res, err := NewAndroid(nil).Execute(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if res.Granted || res.Action != "Check that Bluetooth on your device is active and working" {
			t.Fatalf("unexpected result %+v", res)
		}
	})

	t.Run("request failure", func(t *testing.T) {
		r := &fakeRequester{err: errors.New("activity not attached")}
		if _, err := NewAndroid(r).Execute(t.Context()); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestWeb(t *testing.T) {
	res, err := NewWeb(func() bool { return false }).Execute(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if res.Granted || res.Action != "Enable the Web Bluetooth API in your browser to connect to the robot" {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = NewWeb(func() bool { return true }).Execute(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Granted {
		t.Fatal("expected permissions to be granted")
	}
}

type fakeAdapter map[string]any

func (a fakeAdapter) GetProperty(p string) (dbus.Variant, error) {
	v, ok := a[p]
	if !ok {
		return dbus.Variant{}, errors.New("org.freedesktop.DBus.Error.UnknownObject")
	}
	return dbus.MakeVariant(v), nil
}

func TestBlueZ(t *testing.T) {
	tests := []struct {
		name    string
		adapter fakeAdapter
		granted bool
		action  string
	}{
		{"powered", fakeAdapter{"org.bluez.Adapter1.Powered": true}, true, ""},
		{"off", fakeAdapter{"org.bluez.Adapter1.Powered": false}, false, "Turn on the Bluetooth adapter of your computer"},
		{"missing", fakeAdapter{}, false, "Check that Bluetooth on your device is active and working"},
		{"wrong type", fakeAdapter{"org.bluez.Adapter1.Powered": "yes"}, false, "Check that Bluetooth on your device is active and working"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, err := NewBlueZ(test.adapter).Execute(t.Context())
			if err != nil {
				t.Fatal(err)
			}
			if res.Granted != test.granted || res.Action != test.action {
				t.Fatalf("unexpected result %+v", res)
			}
		})
	}
}

func TestForPlatform(t *testing.T) {
	if _, ok := ForPlatform(robotble.PlatformAndroid, nil, nil).(*Android); !ok {
		t.Fatal("expected android strategy")
	}
	if _, ok := ForPlatform(robotble.PlatformWeb, nil, nil).(*Web); !ok {
		t.Fatal("expected web strategy")
	}
	if _, ok := ForPlatform(robotble.PlatformLinux, nil, nil).(*BlueZ); !ok {
		t.Fatal("expected bluez strategy")
	}

	res, err := ForPlatform(robotble.PlatformIOS, nil, nil).Execute(t.Context())
	if err != nil || !res.Granted {
		t.Fatalf("expected ios to be granted, got %+v %v", res, err)
	}
}
