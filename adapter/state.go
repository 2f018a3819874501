package adapter

import (
	"sync"

	"github.com/tamandutech/robotble"
)

// State is the connection state of an Adapter.
type State string

const (
	StateIdle             State = "idle"
	StateRequestingDevice State = "requesting-device"
	StateConnecting       State = "connecting"
	StateConnected        State = "connected"
)

// RobotStore receives the configuration of the connected robot, or nil when
// the robot goes away.
type RobotStore interface {
	SetRobot(cfg *robotble.Config)
}

// CurrentRobot is an in-memory RobotStore.
type CurrentRobot struct {
	lck sync.RWMutex
	cfg *robotble.Config
}

var _ RobotStore = (*CurrentRobot)(nil)

func (r *CurrentRobot) SetRobot(cfg *robotble.Config) {
	r.lck.Lock()
	defer r.lck.Unlock()
	r.cfg = cfg
}

// Robot returns the configuration of the connected robot, or nil.
func (r *CurrentRobot) Robot() *robotble.Config {
	r.lck.RLock()
	defer r.lck.RUnlock()
	return r.cfg
}
