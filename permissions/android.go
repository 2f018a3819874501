package permissions

import (
	"context"

	"github.com/kellegous/poop"

	"github.com/tamandutech/robotble"
)

type Permission string

const (
	BluetoothScan      Permission = "android.permission.BLUETOOTH_SCAN"
	BluetoothConnect   Permission = "android.permission.BLUETOOTH_CONNECT"
	AccessFineLocation Permission = "android.permission.ACCESS_FINE_LOCATION"
)

type Status string

const (
	StatusGranted       Status = "granted"
	StatusDenied        Status = "denied"
	StatusNeverAskAgain Status = "never_ask_again"
)

// Requester asks the Android runtime for a batch of permissions. It is
// provided by the host application.
type Requester interface {
	RequestMultiple(ctx context.Context, permissions []Permission) (map[Permission]Status, error)
}

// Android requests the Bluetooth and location permissions needed to scan for
// and connect to robots.
type Android struct {
	requester Requester
}

var _ robotble.PermissionStrategy = (*Android)(nil)

func NewAndroid(requester Requester) *Android {
	return &Android{requester: requester}
}

var required = []Permission{
	BluetoothScan,
	BluetoothConnect,
	AccessFineLocation,
}

func (a *Android) Execute(ctx context.Context) (robotble.PermissionResult, error) {
	if a.requester == nil {
		return robotble.PermissionResult{Action: actionCheckBluetooth}, nil
	}

	statuses, err := a.requester.RequestMultiple(ctx, required)
	if err != nil {
		return robotble.PermissionResult{}, poop.Chain(err)
	}

	for _, p := range required {
		if statuses[p] != StatusGranted {
			return robotble.PermissionResult{Action: actionAllowBluetooth}, nil
		}
	}
	return robotble.PermissionResult{Granted: true}, nil
}
