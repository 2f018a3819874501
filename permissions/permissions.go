// Package permissions provides the permission strategies for every platform
// the dashboard runs on.
package permissions

import (
	"context"

	"github.com/tamandutech/robotble"
)

const (
	actionAllowBluetooth = "Allow the dashboard to access Bluetooth features on your device"
	actionCheckBluetooth = "Check that Bluetooth on your device is active and working"
	actionEnableWebAPI   = "Enable the Web Bluetooth API in your browser to connect to the robot"
	actionPowerOnAdapter = "Turn on the Bluetooth adapter of your computer"
)

// Granted is a strategy that always grants access. It is used on platforms
// where the system prompts the user itself, such as iOS.
type Granted struct{}

var _ robotble.PermissionStrategy = Granted{}

func (Granted) Execute(ctx context.Context) (robotble.PermissionResult, error) {
	return robotble.PermissionResult{Granted: true}, nil
}

// IOS grants access unconditionally; the system asks the user on first use.
type IOS = Granted

// ForPlatform returns the permission strategy for platform. requester is only
// used on Android and bus only on Linux; either may be nil.
func ForPlatform(platform robotble.Platform, requester Requester, bus PropertyGetter) robotble.PermissionStrategy {
	switch platform {
	case robotble.PlatformAndroid:
		return NewAndroid(requester)
	case robotble.PlatformWeb:
		return NewWeb(nil)
	case robotble.PlatformLinux:
		return NewBlueZ(bus)
	default:
		return Granted{}
	}
}
