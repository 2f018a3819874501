// Package robot provides the commands understood by the line follower
// firmware on top of a robotble.Client.
package robot

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tamandutech/robotble"
)

const (
	DefaultTX = "UART_TX"
	DefaultRX = "UART_RX"
)

// Robot issues commands to a connected robot. Commands are sent one at a
// time so that every response is matched to its command.
type Robot struct {
	client robotble.Client
	tx, rx string
	log    *zap.Logger

	lck     sync.Mutex
	paused  atomic.Bool
	install *rate.Limiter
}

type Option func(*Robot)

// WithCharacteristics overrides the default UART_TX and UART_RX ids.
func WithCharacteristics(tx, rx string) Option {
	return func(r *Robot) {
		r.tx, r.rx = tx, rx
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(r *Robot) {
		r.log = log
	}
}

// WithInstallInterval sets the minimum delay between the commands sent by
// InstallParameters. It defaults to 100ms.
func WithInstallInterval(d time.Duration) Option {
	return func(r *Robot) {
		r.install = rate.NewLimiter(rate.Every(d), 1)
	}
}

func New(client robotble.Client, opts ...Option) *Robot {
	r := &Robot{
		client:  client,
		tx:      DefaultTX,
		rx:      DefaultRX,
		log:     zap.NewNop(),
		install: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Request sends command and returns the robot's response.
func (r *Robot) Request(ctx context.Context, command string) (*robotble.Message, error) {
	r.lck.Lock()
	defer r.lck.Unlock()

	msg, err := r.client.Request(ctx, r.tx, r.rx, command)
	if err != nil {
		r.log.Debug("request failed",
			zap.String("command", command),
			zap.Error(err))
		return nil, err
	}

	r.log.Debug("request",
		zap.String("command", command),
		zap.String("cmdExecd", msg.CmdExecd),
		zap.String("data", msg.Data))
	return msg, nil
}

// Subscribe attaches fn to every message the robot sends.
func (r *Robot) Subscribe(fn robotble.Observer) (*robotble.Subscription, error) {
	return r.client.Subscribe(r.tx, fn)
}

// Messages returns every message the robot sends until ctx is done.
func (r *Robot) Messages(ctx context.Context) iter.Seq2[*robotble.Message, error] {
	return robotble.Messages(ctx, r.client, r.tx)
}
