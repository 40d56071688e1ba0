package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/internal/realtime"
	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// pump sends a snapshot of topic to the stream now and after every change,
// until the client goes away or a fetch fails.
func pump[T any](ctx context.Context, hub *realtime.Hub, topic string, fetch func(context.Context) (T, error), send func(T) error) error {
	sub := realtime.Subscribe(ctx, hub, topic, fetch)
	defer sub.Close()

	for snap := range sub.C {
		if err := send(snap); err != nil {
			return err
		}
	}
	if err := sub.Err(); err != nil {
		slog.Error("Subscription failed", "topic", topic, "error", err)
		return connectError(err)
	}
	return nil
}

// WatchMonths streams month summaries. The caller's role is checked once,
// when the stream opens.
func (s *RequestService) WatchMonths(ctx context.Context, req *connect.Request[api.WatchMonthsRequest], stream *connect.ServerStream[api.WatchMonthsResponse]) error {
	if _, err := caller(ctx, anyRole); err != nil {
		return err
	}
	if err := validateMsg(req.Msg); err != nil {
		return connectError(err)
	}

	return pump(ctx, s.hub, realtime.TopicMonths,
		func(ctx context.Context) ([]api.Month, error) {
			return s.months(ctx, req.Msg.Limit)
		},
		func(months []api.Month) error {
			return stream.Send(&api.WatchMonthsResponse{Months: months})
		},
	)
}

// WatchRequests streams the approved requests of a month.
func (s *RequestService) WatchRequests(ctx context.Context, req *connect.Request[api.WatchRequestsRequest], stream *connect.ServerStream[api.WatchRequestsResponse]) error {
	if _, err := caller(ctx, anyRole); err != nil {
		return err
	}
	if err := validateMsg(req.Msg); err != nil {
		return connectError(err)
	}

	return pump(ctx, s.hub, realtime.RequestsTopic(req.Msg.MonthKey),
		func(ctx context.Context) ([]api.Request, error) {
			requests, err := s.store.ListRequestsForMonth(ctx, req.Msg.MonthKey, req.Msg.Limit)
			if err != nil {
				return nil, err
			}
			return toAPIRequests(requests), nil
		},
		func(requests []api.Request) error {
			return stream.Send(&api.WatchRequestsResponse{Requests: requests})
		},
	)
}

// WatchQueue streams the queued requests of a month.
func (s *RequestService) WatchQueue(ctx context.Context, req *connect.Request[api.WatchQueueRequest], stream *connect.ServerStream[api.WatchQueueResponse]) error {
	if _, err := caller(ctx, anyRole); err != nil {
		return err
	}
	if err := validateMsg(req.Msg); err != nil {
		return connectError(err)
	}

	return pump(ctx, s.hub, realtime.QueueTopic(req.Msg.MonthKey),
		func(ctx context.Context) ([]api.QueueItem, error) {
			items, err := s.store.ListQueuedForMonth(ctx, req.Msg.MonthKey, req.Msg.Limit)
			if err != nil {
				return nil, err
			}
			return toAPIQueueItems(items), nil
		},
		func(items []api.QueueItem) error {
			return stream.Send(&api.WatchQueueResponse{Items: items})
		},
	)
}
