package robotble

import (
	"context"
	"iter"

	"github.com/kellegous/poop"
)

type result struct {
	msg *Message
	err error
}

// Request subscribes to ch, sends the command with send and waits for the
// first message to arrive. The subscription is made before sending so a
// response cannot be missed. Clients use it to implement Client.Request.
func Request(
	ctx context.Context,
	ch *Channel,
	send func(ctx context.Context) error,
) (*Message, error) {
	res := make(chan result, 1)
	sub := ch.Subscribe(func(msg *Message, err error) {
		select {
		case res <- result{msg: msg, err: err}:
		default:
		}
	})
	defer sub.Unsubscribe()

	if err := send(ctx); err != nil {
		return nil, err
	}

	select {
	case r := <-res:
		if r.err != nil {
			return nil, poop.Chain(r.err)
		}
		return r.msg, nil
	case <-ctx.Done():
		return nil, poop.Chain(ctx.Err())
	}
}

// Messages returns an iterator over the messages received on the tx
// characteristic of client. Iteration stops when ctx is done or the channel
// fails, in which case the error is yielded last.
//
// Up to 64 messages are buffered for a slow consumer. Messages arriving while
// the buffer is full are dropped so that the publisher is never blocked. The
// terminal error is always delivered, after the buffered messages.
func Messages(ctx context.Context, client Client, tx string) iter.Seq2[*Message, error] {
	return func(yield func(*Message, error) bool) {
		msgs := make(chan *Message, 64)
		errs := make(chan error, 1)

		sub, err := client.Subscribe(tx, func(msg *Message, err error) {
			if err != nil {
				select {
				case errs <- err:
				default:
				}
				return
			}
			select {
			case msgs <- msg:
			default:
			}
		})
		if err != nil {
			yield(nil, err)
			return
		}
		defer sub.Unsubscribe()

		for {
			select {
			case msg := <-msgs:
				if !yield(msg, nil) {
					return
				}
			case err := <-errs:
			drain:
				for {
					select {
					case msg := <-msgs:
						if !yield(msg, nil) {
							return
						}
					default:
						break drain
					}
				}
				yield(nil, err)
				return
			case <-ctx.Done():
				yield(nil, ctx.Err())
				return
			}
		}
	}
}
