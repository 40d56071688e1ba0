package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Identity providers recorded in session tokens.
const (
	ProviderSeznam = "seznam"
	ProviderTest   = "test"
)

// JWTManager handles session token generation and validation.
// Tokens play the part of the hosted platform's custom tokens: the client
// presents them as bearer credentials on every call.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	issuer        string
}

// Claims represents the custom JWT claims for a session.
// Role is informational; authorization always re-reads the allow-list.
type Claims struct {
	UID      string      `json:"uid"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role,omitempty"`
	Provider string      `json:"provider"`
	jwt.RegisteredClaims
}

// Identity is what a session token asserts about its holder.
type Identity struct {
	UID      string
	Email    string
	Role     models.Role
	Provider string
}

// NewJWTManager creates a new JWT manager with the given secret and token duration.
// secretKey should be a strong random string (e.g., 32 bytes).
func NewJWTManager(secretKey, issuer string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		issuer:        issuer,
	}
}

// Generate creates a signed token for the given identity.
func (m *JWTManager) Generate(id Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		UID:      id.UID,
		Email:    id.Email,
		Role:     id.Role,
		Provider: id.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.UID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses and validates a token, returning the claims if valid.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		opts...,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UID == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing uid or email", ErrInvalidToken)
	}

	return claims, nil
}
