// Package seznam implements the Seznam OAuth2 authorization-code flow with PKCE
// and the HTTP endpoints that turn a Seznam login into a session token.
package seznam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

// Default Seznam endpoints.
const (
	DefaultAuthURL     = "https://login.szn.cz/api/v1/oauth/auth"
	DefaultTokenURL    = "https://login.szn.cz/api/v1/oauth/token"
	DefaultUserInfoURL = "https://login.szn.cz/api/v1/user"
)

var (
	// ErrUpstream wraps failures talking to Seznam.
	ErrUpstream = errors.New("seznam upstream error")
	// ErrNoEmail is returned when the profile carries no email address.
	ErrNoEmail = errors.New("seznam profile has no email")
)

// Config holds the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	// HTTPClient is used for token and profile requests. Defaults to a client
	// with a 15 second timeout.
	HTTPClient *http.Client
}

// Client talks to the Seznam OAuth endpoints.
type Client struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewClient creates a client, filling in default endpoints.
func NewClient(cfg Config) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = DefaultUserInfoURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
				// Seznam expects client_id and client_secret in the form body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  cfg.HTTPClient,
	}
}

// AuthCodeURL returns the authorization URL carrying the S256 code challenge
// derived from verifier.
func (c *Client) AuthCodeURL(state, verifier string) string {
	return c.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the authorization code for an access token.
func (c *Client) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", ErrUpstream, err)
	}
	return tok, nil
}

type profile struct {
	Email       string `json:"email"`
	AccountName string `json:"account_name"`
}

// FetchEmail reads the profile of the token's owner and returns the
// normalized email address.
func (c *Client) FetchEmail(ctx context.Context, tok *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: profile request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: profile status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var p profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&p); err != nil {
		return "", fmt.Errorf("%w: decode profile: %v", ErrUpstream, err)
	}

	email := models.NormalizeEmail(p.Email)
	if email == "" {
		return "", ErrNoEmail
	}
	return email, nil
}
