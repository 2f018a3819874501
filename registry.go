package robotble

import (
	"sync"

	"github.com/kellegous/poop"
)

// Registry maps characteristic ids to live backend handles and to the
// channels of the notifiable ones. It is built during Connect and reset on
// Disconnect.
type Registry[H any] struct {
	lck      sync.RWMutex
	handles  map[string]H
	channels map[string]*Channel
}

func NewRegistry[H any]() *Registry[H] {
	return &Registry[H]{
		handles:  map[string]H{},
		channels: map[string]*Channel{},
	}
}

// Register records the handle of the characteristic with the given id.
func (r *Registry[H]) Register(id string, h H) {
	r.lck.Lock()
	defer r.lck.Unlock()
	r.handles[id] = h
}

// Attach records the channel of a notifiable characteristic.
func (r *Registry[H]) Attach(id string, ch *Channel) {
	r.lck.Lock()
	defer r.lck.Unlock()
	r.channels[id] = ch
}

// Lookup returns the handle registered under id.
func (r *Registry[H]) Lookup(id string) (H, bool) {
	r.lck.RLock()
	defer r.lck.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// Channel returns the channel attached under id.
func (r *Registry[H]) Channel(id string) (*Channel, bool) {
	r.lck.RLock()
	defer r.lck.RUnlock()
	ch, ok := r.channels[id]
	return ch, ok
}

// Len returns the number of registered handles.
func (r *Registry[H]) Len() int {
	r.lck.RLock()
	defer r.lck.RUnlock()
	return len(r.handles)
}

// Reset clears the registry, closing every attached channel, and returns the
// handles that were registered.
func (r *Registry[H]) Reset() map[string]H {
	r.lck.Lock()
	handles, channels := r.handles, r.channels
	r.handles = map[string]H{}
	r.channels = map[string]*Channel{}
	r.lck.Unlock()

	for _, ch := range channels {
		ch.Close()
	}
	return handles
}

// CheckTX verifies that the characteristic id can be listened to: the client
// is connected, the id is registered, the backend handle is notifiable and a
// channel is attached. notifiable may be nil when every registered handle is
// notifiable.
func (r *Registry[H]) CheckTX(connected bool, id string, notifiable func(H) bool) (*Channel, error) {
	if !connected {
		return nil, ConnectionError(
			poop.New("not connected"),
			WithMessage("No bluetooth connection"),
			WithAction("Connect the dashboard to a line follower"))
	}

	problem := func(cause error) error {
		return ConnectionError(
			cause,
			WithMessage("Problems were found communicating with the robot"),
			WithAction("Check the robot's bluetooth interface configuration"))
	}

	h, ok := r.Lookup(id)
	if !ok {
		return nil, problem(poop.Newf("characteristic %s is not registered", id))
	}
	if notifiable != nil && !notifiable(h) {
		return nil, problem(poop.Newf("characteristic %s is not notifiable", id))
	}
	ch, ok := r.Channel(id)
	if !ok {
		return nil, problem(poop.Newf("characteristic %s has no channel", id))
	}
	return ch, nil
}

// CheckRX returns the handle of a writable characteristic.
func (r *Registry[H]) CheckRX(id string) (H, error) {
	h, ok := r.Lookup(id)
	if !ok {
		return h, ConnectionError(
			poop.Newf("characteristic %s is not registered", id),
			WithMessage("Characteristic not found"),
			WithAction("Check that the characteristics are available on the robot"))
	}
	return h, nil
}
