package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// SessionService implements the Connect SessionService.
type SessionService struct {
	resolver      *auth.Resolver
	tokens        *auth.JWTManager
	testEndpoints bool
}

// NewSessionService creates a SessionService. testEndpoints enables
// MintTestToken.
func NewSessionService(resolver *auth.Resolver, tokens *auth.JWTManager, testEndpoints bool) *SessionService {
	return &SessionService{resolver: resolver, tokens: tokens, testEndpoints: testEndpoints}
}

// GetSession returns the caller's identity and current role.
func (s *SessionService) GetSession(ctx context.Context, req *connect.Request[api.GetSessionRequest]) (*connect.Response[api.GetSessionResponse], error) {
	p, err := caller(ctx, anyRole)
	if err != nil {
		return nil, err
	}

	resp := &api.GetSessionResponse{
		UID:       p.UID,
		Email:     p.Email,
		Role:      string(p.Role),
		Provider:  p.Provider,
		HardAdmin: s.resolver.IsHardAdmin(p.Email),
	}
	if p.Entry != nil {
		entry := toAPIAllowlistEntry(p.Entry)
		resp.Entry = &entry
	}
	return connect.NewResponse(resp), nil
}

// MintTestToken issues a session token for any email without federation.
// It exists for end-to-end tests and is refused unless test endpoints are on.
// Access is still decided by the allow-list on each call.
func (s *SessionService) MintTestToken(ctx context.Context, req *connect.Request[api.MintTestTokenRequest]) (*connect.Response[api.MintTestTokenResponse], error) {
	if !s.testEndpoints {
		return nil, connectError(ErrDisabled)
	}
	req.Msg.Email = strings.TrimSpace(req.Msg.Email)
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	email := models.NormalizeEmail(req.Msg.Email)
	role, _, err := s.resolver.Resolve(ctx, email)
	if err != nil {
		role = ""
	}
	token, err := s.tokens.Generate(auth.Identity{
		UID:      auth.ProviderTest + ":" + email,
		Email:    email,
		Role:     role,
		Provider: auth.ProviderTest,
	})
	if err != nil {
		return nil, connectError(err)
	}

	slog.Warn("Minted test token", "email", email)
	return connect.NewResponse(&api.MintTestTokenResponse{Token: token}), nil
}
