// Package client is a Go client for the spolek-rodicu API.
//
// A Client holds the bearer token; Open validates it and returns a Session
// bound to the caller's identity:
//
//	c := client.New(http.DefaultClient, "https://spolek.example")
//	sess, err := c.Open(ctx, token)
//	if errors.Is(err, client.ErrAccessDenied) {
//		// not allow-listed; the token has been dropped
//	}
//	defer sess.Close()
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/internal/middleware"
	"github.com/satnyp/spolek-rodicu/pkg/api"
	"github.com/satnyp/spolek-rodicu/pkg/api/apiconnect"
)

var (
	// ErrAccessDenied is returned by Open when the token's email is not
	// allow-listed. The client drops the token, forcing a new sign-in.
	ErrAccessDenied = errors.New("access denied: not allowlisted")
	// ErrSignedOut is returned by Open when no token is available.
	ErrSignedOut = errors.New("signed out")
)

// Client talks to one server. It is safe for concurrent use.
type Client struct {
	Sessions  apiconnect.SessionServiceClient
	Allowlist apiconnect.AllowlistServiceClient
	Requests  apiconnect.RequestServiceClient
	Mail      apiconnect.MailServiceClient

	mu    sync.RWMutex
	token string
}

// New creates a client for baseURL. Extra options are applied to every
// service client.
func New(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	c := &Client{}
	opts = append([]connect.ClientOption{
		connect.WithInterceptors(middleware.BearerToken(c.Token)),
	}, opts...)

	c.Sessions = apiconnect.NewSessionServiceClient(httpClient, baseURL, opts...)
	c.Allowlist = apiconnect.NewAllowlistServiceClient(httpClient, baseURL, opts...)
	c.Requests = apiconnect.NewRequestServiceClient(httpClient, baseURL, opts...)
	c.Mail = apiconnect.NewMailServiceClient(httpClient, baseURL, opts...)
	return c
}

// Token returns the current bearer token, or "" when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// SignOut drops the bearer token.
func (c *Client) SignOut() {
	c.SetToken("")
}

// MintTestToken asks a server with test endpoints enabled for a token.
func (c *Client) MintTestToken(ctx context.Context, email string) (string, error) {
	resp, err := c.Sessions.MintTestToken(ctx, connect.NewRequest(&api.MintTestTokenRequest{Email: email}))
	if err != nil {
		return "", err
	}
	return resp.Msg.Token, nil
}

// Open signs in with token and validates it against the allow-list.
// An empty token reuses the current one.
func (c *Client) Open(ctx context.Context, token string) (*Session, error) {
	if token != "" {
		c.SetToken(token)
	}
	if c.Token() == "" {
		return nil, ErrSignedOut
	}

	resp, err := c.Sessions.GetSession(ctx, connect.NewRequest(&api.GetSessionRequest{}))
	if err != nil {
		switch connect.CodeOf(err) {
		case connect.CodePermissionDenied:
			c.SignOut()
			return nil, fmt.Errorf("%w: %v", ErrAccessDenied, err)
		case connect.CodeUnauthenticated:
			c.SignOut()
			return nil, fmt.Errorf("%w: %v", ErrSignedOut, err)
		}
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		client: c,
		info:   resp.Msg,
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}, nil
}
