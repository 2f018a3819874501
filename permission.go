package robotble

import "context"

// PermissionResult is the outcome of a permission check. When Granted is
// false, Action tells the user what to do about it.
type PermissionResult struct {
	Granted bool
	Action  string
}

// PermissionStrategy checks, and if needed requests, the platform permissions
// required to use Bluetooth.
type PermissionStrategy interface {
	Execute(ctx context.Context) (PermissionResult, error)
}
