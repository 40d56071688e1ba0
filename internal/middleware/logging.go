package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/metrics"
)

// LoggingInterceptor logs every RPC call with its procedure, caller, code and
// duration, and records it in m when m is non-nil.
// It must run inside the auth interceptor to see the caller.
func LoggingInterceptor(m *metrics.Metrics) connect.Interceptor {
	return &loggingInterceptor{metrics: m}
}

type loggingInterceptor struct {
	metrics *metrics.Metrics
}

func (l *loggingInterceptor) observe(ctx context.Context, procedure string, start time.Time, err error) {
	elapsed := time.Since(start)
	duration := elapsed.Milliseconds()
	email := ""
	if p := auth.PrincipalFrom(ctx); p != nil {
		email = p.Email
	}

	code := "ok"
	if err != nil {
		code = connect.CodeOf(err).String()
		var connectErr *connect.Error
		if errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal {
			slog.Warn("RPC error",
				"procedure", procedure,
				"code", connectErr.Code(),
				"error", connectErr.Message(),
				"email", email,
				"duration_ms", duration,
			)
		} else {
			slog.Error("RPC error",
				"procedure", procedure,
				"error", err,
				"email", email,
				"duration_ms", duration,
			)
		}
	} else {
		slog.Info("RPC ok",
			"procedure", procedure,
			"email", email,
			"duration_ms", duration,
		)
	}
	l.metrics.ObserveRPC(procedure, code, elapsed)
}

func (l *loggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		l.observe(ctx, req.Spec().Procedure, start, err)
		return resp, err
	}
}

func (l *loggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (l *loggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		err := next(ctx, conn)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		l.observe(ctx, conn.Spec().Procedure, start, err)
		return err
	}
}
