package seznam_test

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/seznam"
	"github.com/satnyp/spolek-rodicu/internal/storage/sqlite"
)

// fakeSeznam records the token request form and serves a fixed profile.
type fakeSeznam struct {
	mu        sync.Mutex
	tokenForm url.Values
	email     string
	tokenCode int
}

func (f *fakeSeznam) set(email string, tokenCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if email != "" {
		f.email = email
	}
	f.tokenCode = tokenCode
}

func (f *fakeSeznam) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.tokenForm = r.PostForm
		code := f.tokenCode
		f.mu.Unlock()
		if code != 0 {
			http.Error(w, `{"error":"invalid_grant"}`, code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "at-123", "token_type": "bearer", "expires_in": 3600})
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		email := f.email
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"email": email})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	app    *httptest.Server
	store  *sqlite.SQLiteStore
	fake   *fakeSeznam
	tokens *auth.JWTManager

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "seznam.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, fake: &fakeSeznam{email: "Rodic@Seznam.cz"}, now: time.Now()}
	upstream := f.fake.server(t)

	client := seznam.NewClient(seznam.Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RedirectURI:  "https://spolek.example/seznamCallback",
		AuthURL:      upstream.URL + "/auth",
		TokenURL:     upstream.URL + "/token",
		UserInfoURL:  upstream.URL + "/user",
	})
	f.tokens = auth.NewJWTManager("test-secret-key-32-bytes-long!!!", "spolek-rodicu", time.Hour)

	mux := http.NewServeMux()
	seznam.NewHandler(seznam.HandlerConfig{
		Provider: client,
		States:   store,
		Audit:    store,
		Resolver: auth.NewResolver(store, "satny@gvid.cz"),
		Tokens:   f.tokens,
		Now:      f.clock,
	}).Register(mux)
	f.app = httptest.NewServer(mux)
	t.Cleanup(f.app.Close)
	return f
}

var noRedirect = &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

// start runs /seznamStart and returns the state cookie and the authorization URL.
func (f *fixture) start(t *testing.T) (*http.Cookie, *url.URL) {
	t.Helper()
	resp, err := noRedirect.Get(f.app.URL + "/seznamStart")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == seznam.StateCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "state cookie not set")
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	return cookie, loc
}

func (f *fixture) callback(t *testing.T, state, cookie string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.app.URL+"/seznamCallback?code=abc&state="+url.QueryEscape(state), nil)
	require.NoError(t, err)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: seznam.StateCookie, Value: cookie})
	}
	resp, err := noRedirect.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStart_RedirectCarriesPKCE(t *testing.T) {
	f := newFixture(t)
	cookie, loc := f.start(t)

	q := loc.Query()
	assert.Equal(t, "/auth", loc.Path)
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://spolek.example/seznamCallback", q.Get("redirect_uri"))
	assert.Equal(t, cookie.Value, q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	require.NoError(t, err)
	assert.Len(t, raw, 24)
}

func TestCallback_Success(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	require.NoError(t, f.store.UpsertAllowlistEntry(ctx, &models.AllowlistEntry{
		EmailLower: "rodic@seznam.cz", Role: models.RoleRequester, Active: true,
	}))

	cookie, loc := f.start(t)
	resp := f.callback(t, cookie.Value, cookie.Value)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The verifier sent to the token endpoint matches the challenge.
	f.fake.mu.Lock()
	form := f.fake.tokenForm
	f.fake.mu.Unlock()
	sum := sha256.Sum256([]byte(form.Get("code_verifier")))
	assert.Equal(t, loc.Query().Get("code_challenge"), base64.RawURLEncoding.EncodeToString(sum[:]))
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "abc", form.Get("code"))
	assert.Equal(t, "client-1", form.Get("client_id"))
	assert.Equal(t, "secret-1", form.Get("client_secret"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(body)
	assert.Contains(t, page, "postMessage")
	assert.Contains(t, page, "window.close()")

	start := strings.Index(page, `token: "`) + len(`token: "`)
	end := strings.Index(page[start:], `"`)
	require.Greater(t, end, 0)
	claims, err := f.tokens.Validate(page[start : start+end])
	require.NoError(t, err)
	assert.Equal(t, "seznam:rodic@seznam.cz", claims.UID)
	assert.Equal(t, auth.ProviderSeznam, claims.Provider)
	assert.Equal(t, models.RoleRequester, claims.Role)

	audit, err := f.store.ListAudit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, models.ActionLoginSeznam, audit[0].Action)
	assert.Equal(t, "rodic@seznam.cz", audit[0].ActorEmail)

	// The state cannot be replayed.
	replay := f.callback(t, cookie.Value, cookie.Value)
	assert.Equal(t, http.StatusBadRequest, replay.StatusCode)
}

func TestCallback_Failures(t *testing.T) {
	t.Run("state mismatch", func(t *testing.T) {
		f := newFixture(t)
		cookie, _ := f.start(t)
		resp := f.callback(t, cookie.Value, "other")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing cookie", func(t *testing.T) {
		f := newFixture(t)
		cookie, _ := f.start(t)
		resp := f.callback(t, cookie.Value, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("expired state", func(t *testing.T) {
		f := newFixture(t)
		cookie, _ := f.start(t)
		f.advance(11 * time.Minute)
		resp := f.callback(t, cookie.Value, cookie.Value)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("not allowlisted", func(t *testing.T) {
		f := newFixture(t)
		cookie, _ := f.start(t)
		resp := f.callback(t, cookie.Value, cookie.Value)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		audit, err := f.store.ListAudit(t.Context(), 10)
		require.NoError(t, err)
		assert.Empty(t, audit)
	})

	t.Run("hard admin needs no entry", func(t *testing.T) {
		f := newFixture(t)
		f.fake.set("satny@gvid.cz", 0)
		cookie, _ := f.start(t)
		resp := f.callback(t, cookie.Value, cookie.Value)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("token exchange fails", func(t *testing.T) {
		f := newFixture(t)
		f.fake.set("", http.StatusBadRequest)
		cookie, _ := f.start(t)
		resp := f.callback(t, cookie.Value, cookie.Value)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}
