package seznam

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/metrics"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
)

// StateCookie carries the state value between start and callback.
const StateCookie = "sr_state"

// DefaultStateTTL bounds how long a started login may take.
const DefaultStateTTL = 10 * time.Minute

const stateBytes = 24

// Provider is what the handler needs from the OAuth client.
type Provider interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
	FetchEmail(ctx context.Context, tok *oauth2.Token) (string, error)
}

// Handler serves GET /seznamStart and GET /seznamCallback.
type Handler struct {
	provider Provider
	states   storage.StateStore
	audit    storage.AuditStore
	resolver *auth.Resolver
	tokens   *auth.JWTManager
	metrics  *metrics.Metrics

	stateTTL time.Duration
	now      func() time.Time
}

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	Provider Provider
	States   storage.StateStore
	Audit    storage.AuditStore
	Resolver *auth.Resolver
	Tokens   *auth.JWTManager
	Metrics  *metrics.Metrics
	StateTTL time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewHandler creates the login endpoints.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		provider: cfg.Provider,
		states:   cfg.States,
		audit:    cfg.Audit,
		resolver: cfg.Resolver,
		tokens:   cfg.Tokens,
		metrics:  cfg.Metrics,
		stateTTL: cfg.StateTTL,
		now:      cfg.Now,
	}
	if h.stateTTL <= 0 {
		h.stateTTL = DefaultStateTTL
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /seznamStart", h.Start)
	mux.HandleFunc("GET /seznamCallback", h.Callback)
}

// Start persists a fresh PKCE verifier and redirects to Seznam.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		slog.Error("Failed to generate oauth state", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	verifier := oauth2.GenerateVerifier()
	now := h.now().UTC()

	err = h.states.PutOAuthState(r.Context(), &models.OAuthState{
		State:     state,
		Verifier:  verifier,
		CreatedAt: now,
		ExpiresAt: now.Add(h.stateTTL),
	})
	if err != nil {
		slog.Error("Failed to store oauth state", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(h.stateTTL / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.AuthCodeURL(state, verifier), http.StatusFound)
}

// Callback finishes the login: it checks the state, redeems the verifier,
// exchanges the code, checks the allow-list and hands a session token to the
// opener window.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(StateCookie)
	if state == "" || err != nil || cookie.Value != state {
		h.fail(w, http.StatusBadRequest, "Invalid state", metrics.ResultRejected)
		return
	}
	// The cookie is single use whatever happens next.
	clearStateCookie(w)

	pending, err := h.states.TakeOAuthState(ctx, state, h.now())
	if errors.Is(err, storage.ErrNotFound) {
		h.fail(w, http.StatusBadRequest, "Invalid state", metrics.ResultRejected)
		return
	}
	if err != nil {
		slog.Error("Failed to redeem oauth state", "error", err)
		h.fail(w, http.StatusInternalServerError, "Internal error", metrics.ResultError)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest, "Missing code", metrics.ResultRejected)
		return
	}

	tok, err := h.provider.Exchange(ctx, code, pending.Verifier)
	if err != nil {
		slog.Warn("Seznam token exchange failed", "error", err)
		h.fail(w, http.StatusBadGateway, "Token exchange failed", metrics.ResultError)
		return
	}
	email, err := h.provider.FetchEmail(ctx, tok)
	if errors.Is(err, ErrNoEmail) {
		h.fail(w, http.StatusForbidden, "Not allowlisted", metrics.ResultDenied)
		return
	}
	if err != nil {
		slog.Warn("Seznam profile fetch failed", "error", err)
		h.fail(w, http.StatusBadGateway, "Profile fetch failed", metrics.ResultError)
		return
	}

	role, _, err := h.resolver.Resolve(ctx, email)
	if errors.Is(err, auth.ErrAccessDenied) {
		slog.Info("Seznam login refused", "email", email)
		h.fail(w, http.StatusForbidden, "Not allowlisted", metrics.ResultDenied)
		return
	}
	if err != nil {
		slog.Error("Failed to resolve role", "email", email, "error", err)
		h.fail(w, http.StatusInternalServerError, "Internal error", metrics.ResultError)
		return
	}

	uid := "seznam:" + email
	token, err := h.tokens.Generate(auth.Identity{UID: uid, Email: email, Role: role, Provider: auth.ProviderSeznam})
	if err != nil {
		slog.Error("Failed to mint session token", "error", err)
		h.fail(w, http.StatusInternalServerError, "Internal error", metrics.ResultError)
		return
	}

	if err := h.audit.AppendAudit(ctx, &models.AuditEntry{
		TS:         h.now().UTC(),
		ActorUID:   uid,
		ActorEmail: email,
		Action:     models.ActionLoginSeznam,
		TargetType: models.TargetAuth,
	}); err != nil {
		slog.Error("Failed to audit login", "email", email, "error", err)
		h.fail(w, http.StatusInternalServerError, "Internal error", metrics.ResultError)
		return
	}

	h.metrics.OAuthLogin(metrics.ResultOK)
	slog.Info("Seznam login", "email", email, "role", role)

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := callbackPage.Execute(w, struct{ Token, Origin string }{token, origin}); err != nil {
		slog.Error("Failed to render callback page", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, status int, msg, result string) {
	h.metrics.OAuthLogin(result)
	http.Error(w, msg, status)
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func randomState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// html/template escapes both values for the script context.
var callbackPage = template.Must(template.New("callback").Parse(`<!doctype html>
<html><body><script>
window.opener && window.opener.postMessage({token: {{.Token}}}, {{.Origin}});
window.close();
</script></body></html>
`))
