package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

// ErrInsufficientRole is returned when an allow-listed principal lacks the
// role an operation needs.
var ErrInsufficientRole = errors.New("insufficient role")

// Principal is the authenticated caller of an operation.
type Principal struct {
	UID      string
	Email    string
	Role     models.Role
	Provider string
	// Entry is the caller's allow-list entry; nil for the hard admin without one.
	Entry *models.AllowlistEntry
}

// Require returns ErrInsufficientRole unless allowed accepts the principal's role.
func (p *Principal) Require(allowed func(models.Role) bool) error {
	if p == nil || !allowed(p.Role) {
		return ErrInsufficientRole
	}
	return nil
}

// Authenticator turns a bearer header into a Principal.
type Authenticator struct {
	tokens   *JWTManager
	resolver *Resolver
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(tokens *JWTManager, resolver *Resolver) *Authenticator {
	return &Authenticator{tokens: tokens, resolver: resolver}
}

// Resolver returns the allow-list resolver used for role lookups.
func (a *Authenticator) Resolver() *Resolver {
	return a.resolver
}

// Authenticate validates the Authorization header value and resolves the
// caller's current role. The role comes from the allow-list on every call, so
// revoking an entry takes effect on the next request.
func (a *Authenticator) Authenticate(ctx context.Context, authorization string) (*Principal, error) {
	token, err := ParseBearer(authorization)
	if err != nil {
		return nil, err
	}

	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	role, entry, err := a.resolver.Resolve(ctx, claims.Email)
	if err != nil {
		return nil, err
	}

	return &Principal{
		UID:      claims.UID,
		Email:    models.NormalizeEmail(claims.Email),
		Role:     role,
		Provider: claims.Provider,
		Entry:    entry,
	}, nil
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>" value.
func ParseBearer(authorization string) (string, error) {
	if authorization == "" {
		return "", ErrMissingToken
	}
	parts := strings.Fields(authorization)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return parts[1], nil
}
