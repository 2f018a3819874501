package permissions

import (
	"context"

	"github.com/tamandutech/robotble"
	"github.com/tamandutech/robotble/web"
)

// Web grants access when the browser exposes the Web Bluetooth API.
type Web struct {
	available func() bool
}

var _ robotble.PermissionStrategy = (*Web)(nil)

// NewWeb returns a strategy using available to detect the API. A nil
// available checks navigator.bluetooth.
func NewWeb(available func() bool) *Web {
	if available == nil {
		available = func() bool {
			return web.Navigator() != nil
		}
	}
	return &Web{available: available}
}

func (w *Web) Execute(ctx context.Context) (robotble.PermissionResult, error) {
	if !w.available() {
		return robotble.PermissionResult{Action: actionEnableWebAPI}, nil
	}
	return robotble.PermissionResult{Granted: true}, nil
}
