package realtime

import (
	"context"
	"sync"
)

// Subscription streams snapshots of one topic. The first snapshot is fetched
// immediately, then again after every change. A slow reader only ever sees
// the latest snapshot. C is closed when the subscription ends.
type Subscription[T any] struct {
	C <-chan T

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Subscribe starts a subscription on topic. It ends on Close, on ctx
// cancellation or on the first fetch error, which Err then returns.
func Subscribe[T any](ctx context.Context, hub *Hub, topic string, fetch func(context.Context) (T, error)) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan T, 1)
	s := &Subscription[T]{C: out, cancel: cancel, done: make(chan struct{})}

	changed, unwatch := hub.Watch(topic)
	go func() {
		defer close(s.done)
		defer close(out)
		defer unwatch()

		for {
			snap, err := fetch(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.setErr(err)
				}
				return
			}
			offer(out, snap)

			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
		}
	}()
	return s
}

// offer replaces any unread snapshot with v. Only the subscription goroutine
// sends on out, so the retry loop terminates.
func offer[T any](out chan T, v T) {
	for {
		select {
		case out <- v:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

func (s *Subscription[T]) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Err returns the fetch error that ended the subscription, if any.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the subscription has stopped.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Close stops the subscription and waits for it to finish.
func (s *Subscription[T]) Close() {
	s.cancel()
	<-s.done
}
