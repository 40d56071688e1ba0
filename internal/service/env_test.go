package service

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/mail"
	"github.com/satnyp/spolek-rodicu/internal/middleware"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/objectstore"
	"github.com/satnyp/spolek-rodicu/internal/realtime"
	"github.com/satnyp/spolek-rodicu/internal/storage/sqlite"
	"github.com/satnyp/spolek-rodicu/pkg/api/apiconnect"
)

const (
	adminEmail      = models.DefaultAdminEmail
	accountantEmail = "accountant@gvid.cz"
	requesterEmail  = "requester@gvid.cz"
	viewerEmail     = "viewer@gvid.cz"
	inactiveEmail   = "former@gvid.cz"
	strangerEmail   = "stranger@example.com"
	testMonth       = "2026-03"
)

// testNow is 5 March 2026 23:30 UTC, already 6 March in Prague.
var testNow = time.Date(2026, time.March, 5, 23, 30, 0, 0, time.UTC)

type envOptions struct {
	mailURL       string
	testEndpoints bool
}

type testEnv struct {
	t      *testing.T
	store  *sqlite.SQLiteStore
	tokens *auth.JWTManager
	hub    *realtime.Hub
	server *httptest.Server
}

// newTestEnv serves every service over httptest, backed by a temporary
// SQLite store seeded with one entry per role.
func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	objects, err := objectstore.NewLocal(t.TempDir(), "http://files.test/files")
	require.NoError(t, err)

	loc, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)

	tokens := auth.NewJWTManager("test-secret-key-of-sufficient-length", "spolek-test", time.Hour)
	resolver := auth.NewResolver(store, adminEmail)
	authenticator := auth.NewAuthenticator(tokens, resolver)
	hub := realtime.NewHub()

	requests := NewRequestService(RequestServiceConfig{
		Store:    store,
		Hub:      hub,
		Objects:  objects,
		Location: loc,
		Now:      func() time.Time { return testNow },
	})
	mailer := NewMailService(store, resolver, mail.NewRelay(opts.mailURL, "s3cret", 5*time.Second), nil)

	handlerOpts := []connect.HandlerOption{
		connect.WithInterceptors(middleware.RequireAuth(authenticator, apiconnect.PublicProcedures)),
	}
	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewSessionServiceHandler(NewSessionService(resolver, tokens, opts.testEndpoints), handlerOpts...))
	mux.Handle(apiconnect.NewAllowlistServiceHandler(NewAllowlistService(store, resolver), handlerOpts...))
	mux.Handle(apiconnect.NewRequestServiceHandler(requests, handlerOpts...))
	mux.Handle(apiconnect.NewMailServiceHandler(mailer, handlerOpts...))
	NewEndpoints(HTTPConfig{
		Authenticator: authenticator,
		Requests:      requests,
		Mail:          mailer,
		TestEndpoints: opts.testEndpoints,
	}).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	env := &testEnv{t: t, store: store, tokens: tokens, hub: hub, server: server}
	env.allow(accountantEmail, models.RoleAccountant, true)
	env.allow(requesterEmail, models.RoleRequester, true)
	env.allow(viewerEmail, models.RoleViewer, true)
	env.allow(inactiveEmail, models.RoleAccountant, false)
	return env
}

func (e *testEnv) allow(email string, role models.Role, active bool) {
	e.t.Helper()
	require.NoError(e.t, e.store.UpsertAllowlistEntry(e.t.Context(), &models.AllowlistEntry{
		EmailLower: email,
		Role:       role,
		Active:     active,
		CreatedBy:  adminEmail,
	}))
}

func (e *testEnv) token(email string) string {
	e.t.Helper()
	token, err := e.tokens.Generate(auth.Identity{
		UID:      auth.ProviderTest + ":" + email,
		Email:    email,
		Provider: auth.ProviderTest,
	})
	require.NoError(e.t, err)
	return token
}

// as returns client options carrying a bearer token for email; an empty
// email sends no token.
func (e *testEnv) as(email string) []connect.ClientOption {
	if email == "" {
		return nil
	}
	token := e.token(email)
	return []connect.ClientOption{
		connect.WithInterceptors(middleware.BearerToken(func() string { return token })),
	}
}

func (e *testEnv) sessionClient(email string) apiconnect.SessionServiceClient {
	return apiconnect.NewSessionServiceClient(e.server.Client(), e.server.URL, e.as(email)...)
}

func (e *testEnv) allowlistClient(email string) apiconnect.AllowlistServiceClient {
	return apiconnect.NewAllowlistServiceClient(e.server.Client(), e.server.URL, e.as(email)...)
}

func (e *testEnv) requestClient(email string) apiconnect.RequestServiceClient {
	return apiconnect.NewRequestServiceClient(e.server.Client(), e.server.URL, e.as(email)...)
}

func (e *testEnv) mailClient(email string) apiconnect.MailServiceClient {
	return apiconnect.NewMailServiceClient(e.server.Client(), e.server.URL, e.as(email)...)
}

func codeOf(err error) connect.Code {
	return connect.CodeOf(err)
}
