package middleware

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/internal/auth"
)

// AuthError maps authentication failures to Connect errors.
func AuthError(err error) *connect.Error {
	switch {
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, auth.ErrAccessDenied), errors.Is(err, auth.ErrInsufficientRole):
		return connect.NewError(connect.CodePermissionDenied, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// AuthInterceptor authenticates every call except the public procedures and
// stores the resulting auth.Principal in the context.
type AuthInterceptor struct {
	authenticator *auth.Authenticator
	public        map[string]bool
}

// RequireAuth returns an interceptor that requires a bearer token resolving
// to an allow-listed identity. Procedures in public skip authentication.
func RequireAuth(authenticator *auth.Authenticator, public map[string]bool) *AuthInterceptor {
	return &AuthInterceptor{authenticator: authenticator, public: public}
}

func (i *AuthInterceptor) authenticate(ctx context.Context, procedure, header string) (context.Context, error) {
	if i.public[procedure] {
		return ctx, nil
	}
	principal, err := i.authenticator.Authenticate(ctx, header)
	if err != nil {
		return nil, AuthError(err)
	}
	return auth.WithPrincipal(ctx, principal), nil
}

func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		ctx, err := i.authenticate(ctx, req.Spec().Procedure, req.Header().Get("Authorization"))
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, err := i.authenticate(ctx, conn.Spec().Procedure, conn.RequestHeader().Get("Authorization"))
		if err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

// BearerToken returns a client interceptor that attaches token to every call.
func BearerToken(token func() string) connect.Interceptor {
	return &bearerInterceptor{token: token}
}

type bearerInterceptor struct {
	token func() string
}

func (b *bearerInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if t := b.token(); t != "" {
			req.Header().Set("Authorization", "Bearer "+t)
		}
		return next(ctx, req)
	}
}

func (b *bearerInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		if t := b.token(); t != "" {
			conn.RequestHeader().Set("Authorization", "Bearer "+t)
		}
		return conn
	}
}

func (b *bearerInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}

var (
	_ connect.Interceptor = (*AuthInterceptor)(nil)
	_ connect.Interceptor = (*bearerInterceptor)(nil)
)
