//go:build !((linux && !android) || (darwin && !ios) || windows)

package native

import "github.com/kellegous/poop"

// DefaultManager reports that there is no native Bluetooth stack available
// for this platform. Hosts such as mobile apps provide their own Manager.
func DefaultManager() (Manager, error) {
	return nil, poop.New("no native bluetooth stack for this platform")
}
