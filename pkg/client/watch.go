package client

import (
	"context"
	"sync"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// Watch delivers snapshots from a server stream. A slow reader only sees
// the latest snapshot. C is closed when the watch ends.
type Watch[T any] struct {
	C <-chan T

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Err returns the error that ended the watch, if any.
func (w *Watch[T]) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close stops the watch and waits for it to finish.
func (w *Watch[T]) Close() {
	w.cancel()
	<-w.done
}

func watch[Res, T any](parent context.Context, open func(context.Context) (*connect.ServerStreamForClient[Res], error), pick func(*Res) T) (*Watch[T], error) {
	ctx, cancel := context.WithCancel(parent)
	stream, err := open(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan T, 1)
	w := &Watch[T]{C: out, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		defer close(out)
		defer stream.Close()

		for stream.Receive() {
			latest(out, pick(stream.Msg()))
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			w.mu.Lock()
			w.err = err
			w.mu.Unlock()
		}
	}()
	return w, nil
}

// latest replaces any unread value in out with v.
func latest[T any](out chan T, v T) {
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

// WatchMonths streams month summaries until the watch or session is closed.
func (s *Session) WatchMonths() (*Watch[[]api.Month], error) {
	return watch(s.ctx,
		func(ctx context.Context) (*connect.ServerStreamForClient[api.WatchMonthsResponse], error) {
			return s.client.Requests.WatchMonths(ctx, connect.NewRequest(&api.WatchMonthsRequest{}))
		},
		func(r *api.WatchMonthsResponse) []api.Month { return r.Months },
	)
}

// WatchRequests streams the approved requests of a month.
func (s *Session) WatchRequests(monthKey string) (*Watch[[]api.Request], error) {
	return watch(s.ctx,
		func(ctx context.Context) (*connect.ServerStreamForClient[api.WatchRequestsResponse], error) {
			return s.client.Requests.WatchRequests(ctx, connect.NewRequest(&api.WatchRequestsRequest{MonthKey: monthKey}))
		},
		func(r *api.WatchRequestsResponse) []api.Request { return r.Requests },
	)
}

// WatchQueue streams the queued requests of a month.
func (s *Session) WatchQueue(monthKey string) (*Watch[[]api.QueueItem], error) {
	return watch(s.ctx,
		func(ctx context.Context) (*connect.ServerStreamForClient[api.WatchQueueResponse], error) {
			return s.client.Requests.WatchQueue(ctx, connect.NewRequest(&api.WatchQueueRequest{MonthKey: monthKey}))
		},
		func(r *api.WatchQueueResponse) []api.QueueItem { return r.Items },
	)
}
