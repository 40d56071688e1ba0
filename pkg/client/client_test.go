package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/middleware"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/service"
	"github.com/satnyp/spolek-rodicu/internal/storage/sqlite"
	"github.com/satnyp/spolek-rodicu/pkg/api"
	"github.com/satnyp/spolek-rodicu/pkg/api/apiconnect"
)

const month = "2026-05"

type fixture struct {
	server *httptest.Server
	tokens *auth.JWTManager
	store  *sqlite.SQLiteStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens := auth.NewJWTManager("client-test-secret", "spolek-test", time.Hour)
	resolver := auth.NewResolver(store, models.DefaultAdminEmail)
	opts := []connect.HandlerOption{
		connect.WithInterceptors(middleware.RequireAuth(auth.NewAuthenticator(tokens, resolver), apiconnect.PublicProcedures)),
	}

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewSessionServiceHandler(service.NewSessionService(resolver, tokens, false), opts...))
	mux.Handle(apiconnect.NewRequestServiceHandler(service.NewRequestService(service.RequestServiceConfig{Store: store}), opts...))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	for email, role := range map[string]models.Role{
		"accountant@gvid.cz": models.RoleAccountant,
		"requester@gvid.cz":  models.RoleRequester,
	} {
		require.NoError(t, store.UpsertAllowlistEntry(context.Background(), &models.AllowlistEntry{
			EmailLower: email, Role: role, Active: true,
		}))
	}
	return &fixture{server: server, tokens: tokens, store: store}
}

func (f *fixture) open(t *testing.T, email string) (*Client, *Session) {
	t.Helper()
	token, err := f.tokens.Generate(auth.Identity{UID: "test:" + email, Email: email, Provider: auth.ProviderTest})
	require.NoError(t, err)

	c := New(f.server.Client(), f.server.URL)
	sess, err := c.Open(context.Background(), token)
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return c, sess
}

func TestOpen_AccessDeniedDropsToken(t *testing.T) {
	f := newFixture(t)
	token, err := f.tokens.Generate(auth.Identity{UID: "test:x", Email: "stranger@example.com", Provider: auth.ProviderTest})
	require.NoError(t, err)

	c := New(f.server.Client(), f.server.URL)
	_, err = c.Open(context.Background(), token)
	assert.True(t, errors.Is(err, ErrAccessDenied), "got %v", err)
	assert.Empty(t, c.Token())

	_, err = c.Open(context.Background(), "")
	assert.True(t, errors.Is(err, ErrSignedOut))
}

func TestOpen_InvalidToken(t *testing.T) {
	f := newFixture(t)
	c := New(f.server.Client(), f.server.URL)
	_, err := c.Open(context.Background(), "garbage")
	assert.True(t, errors.Is(err, ErrSignedOut), "got %v", err)
	assert.Empty(t, c.Token())
}

func TestSession_EditingLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, requester := f.open(t, "requester@gvid.cz")
	assert.Equal(t, api.RoleRequester, requester.Role())
	_, err := requester.UnlockEditing(time.Now())
	assert.ErrorIs(t, err, ErrReadOnly)

	item, err := requester.Submit(ctx, month, "Kniha", decimal.NewFromInt(250))
	require.NoError(t, err)

	_, accountant := f.open(t, "accountant@gvid.cz")
	approved, err := accountant.Approve(ctx, item.ID)
	require.NoError(t, err)

	err = accountant.SaveEditorData(ctx, approved.RequestID, map[string]string{"poznamka": "x"})
	assert.ErrorIs(t, err, ErrEditingLocked)

	now := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
	accountant.now = func() time.Time { return now }
	until, err := accountant.UnlockEditing(now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute), until)
	assert.True(t, accountant.EditingUnlocked(now.Add(9*time.Minute)))
	assert.False(t, accountant.EditingUnlocked(now.Add(10*time.Minute)))

	require.NoError(t, accountant.SaveEditorData(ctx, approved.RequestID, map[string]string{"poznamka": "x"}))
	require.NoError(t, accountant.SetState(ctx, approved.RequestID, api.StatePaid))

	paid, err := accountant.Requests(ctx, month, "PAID", "")
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "x", paid[0].EditorData["poznamka"])

	accountant.LockEditing()
	assert.ErrorIs(t, accountant.SetState(ctx, approved.RequestID, api.StateNew), ErrEditingLocked)
}

func TestSession_WatchQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, requester := f.open(t, "requester@gvid.cz")

	w, err := requester.WatchQueue(month)
	require.NoError(t, err)

	select {
	case items := <-w.C:
		assert.Empty(t, items)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial snapshot")
	}

	_, err = requester.Submit(ctx, month, "Pastelky", decimal.NewFromInt(89))
	require.NoError(t, err)

	select {
	case items := <-w.C:
		require.Len(t, items, 1)
		assert.Equal(t, "Pastelky", items[0].Description)
	case <-time.After(5 * time.Second):
		t.Fatal("no update")
	}

	requester.Close()
	select {
	case _, ok := <-w.C:
		for ok {
			_, ok = <-w.C
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch not closed by session")
	}
	assert.NoError(t, w.Err())
}

func TestAPIConstantsMatchServer(t *testing.T) {
	roles := map[string]models.Role{
		api.RoleViewer:     models.RoleViewer,
		api.RoleRequester:  models.RoleRequester,
		api.RoleAccountant: models.RoleAccountant,
		api.RoleAdmin:      models.RoleAdmin,
	}
	for wire, role := range roles {
		assert.Equal(t, string(role), wire)
		assert.Equal(t, role.CanEdit(), api.CanEdit(wire), wire)
	}
	assert.False(t, api.CanEdit(""))

	for _, state := range []string{api.StateNew, api.StatePaid, api.StateHasInvoices, api.StateHandedToAccountant} {
		assert.True(t, models.RequestState(state).Valid(), state)
	}
}
