package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// SessionServiceHandler reports the caller's session and mints test tokens.
type SessionServiceHandler interface {
	GetSession(context.Context, *connect.Request[api.GetSessionRequest]) (*connect.Response[api.GetSessionResponse], error)
	MintTestToken(context.Context, *connect.Request[api.MintTestTokenRequest]) (*connect.Response[api.MintTestTokenResponse], error)
}

// NewSessionServiceHandler returns the mount path and handler of the service.
func NewSessionServiceHandler(svc SessionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + SessionServiceName + "/", route(map[string]http.Handler{
		SessionServiceGetSessionProcedure:    connect.NewUnaryHandler(SessionServiceGetSessionProcedure, svc.GetSession, opts...),
		SessionServiceMintTestTokenProcedure: connect.NewUnaryHandler(SessionServiceMintTestTokenProcedure, svc.MintTestToken, opts...),
	})
}

// SessionServiceClient is a client for SessionService.
type SessionServiceClient interface {
	GetSession(context.Context, *connect.Request[api.GetSessionRequest]) (*connect.Response[api.GetSessionResponse], error)
	MintTestToken(context.Context, *connect.Request[api.MintTestTokenRequest]) (*connect.Response[api.MintTestTokenResponse], error)
}

// NewSessionServiceClient creates a SessionService client for baseURL.
func NewSessionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SessionServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &sessionServiceClient{
		getSession:    connect.NewClient[api.GetSessionRequest, api.GetSessionResponse](httpClient, baseURL+SessionServiceGetSessionProcedure, opts...),
		mintTestToken: connect.NewClient[api.MintTestTokenRequest, api.MintTestTokenResponse](httpClient, baseURL+SessionServiceMintTestTokenProcedure, opts...),
	}
}

type sessionServiceClient struct {
	getSession    *connect.Client[api.GetSessionRequest, api.GetSessionResponse]
	mintTestToken *connect.Client[api.MintTestTokenRequest, api.MintTestTokenResponse]
}

func (c *sessionServiceClient) GetSession(ctx context.Context, req *connect.Request[api.GetSessionRequest]) (*connect.Response[api.GetSessionResponse], error) {
	return c.getSession.CallUnary(ctx, req)
}

func (c *sessionServiceClient) MintTestToken(ctx context.Context, req *connect.Request[api.MintTestTokenRequest]) (*connect.Response[api.MintTestTokenResponse], error) {
	return c.mintTestToken.CallUnary(ctx, req)
}
