package robotble

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Observer receives the messages of a channel. err is non-nil when the
// channel failed or was closed; no further calls follow an error.
// Observers are called synchronously and must not block.
type Observer func(msg *Message, err error)

type observer struct {
	fn     Observer
	active atomic.Bool
}

// Subscription is the handle returned when attaching an observer to a
// channel.
type Subscription struct {
	once    sync.Once
	release func()
}

// Unsubscribe detaches the observer. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.release)
}

// Channel turns the raw chunks of a notifiable characteristic into messages
// and multicasts them to any number of observers. A frame that fails to parse
// is terminal: the error is delivered to every observer, current and future.
type Channel struct {
	pub sync.Mutex // serializes Publish so frames are delivered in order

	lck       sync.RWMutex
	framer    Framer
	observers []*observer
	err       error
}

func NewChannel() *Channel {
	return &Channel{}
}

// Subscribe attaches fn to the channel.
func (c *Channel) Subscribe(fn Observer) *Subscription {
	o := &observer{fn: fn}
	o.active.Store(true)

	c.lck.Lock()
	if err := c.err; err != nil {
		c.lck.Unlock()
		o.active.Store(false)
		fn(nil, err)
		return &Subscription{release: func() {}}
	}
	c.observers = append(c.observers, o)
	c.lck.Unlock()

	return &Subscription{
		release: func() {
			c.remove(o)
		},
	}
}

func (c *Channel) remove(o *observer) {
	o.active.Store(false)

	c.lck.Lock()
	defer c.lck.Unlock()
	c.observers = slices.DeleteFunc(c.observers, func(ob *observer) bool {
		return ob == o
	})
}

// Publish feeds a chunk received from the characteristic into the channel.
func (c *Channel) Publish(chunk []byte) {
	c.pub.Lock()
	defer c.pub.Unlock()

	c.lck.Lock()
	if c.err != nil {
		c.lck.Unlock()
		return
	}
	msg, err := c.framer.Feed(chunk)
	if msg == nil && err == nil {
		c.lck.Unlock()
		return
	}
	observers := slices.Clone(c.observers)
	if err != nil {
		c.err = err
		c.observers = nil
	}
	c.lck.Unlock()

	for _, o := range observers {
		if o.active.Load() {
			o.fn(msg, err)
		}
	}
}

// Close fails the channel with ErrClosed and drops every observer.
func (c *Channel) Close() {
	c.lck.Lock()
	if c.err != nil {
		c.lck.Unlock()
		return
	}
	c.err = ErrClosed
	observers := c.observers
	c.observers = nil
	c.lck.Unlock()

	for _, o := range observers {
		if o.active.Load() {
			o.fn(nil, ErrClosed)
		}
	}
}

// Err returns the terminal error of the channel, if any.
func (c *Channel) Err() error {
	c.lck.RLock()
	defer c.lck.RUnlock()
	return c.err
}
