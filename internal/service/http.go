package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// maxJSONBody bounds the bodies of the plain HTTP endpoints.
const maxJSONBody = 1 << 20

// HTTPConfig wires the plain HTTP endpoints.
type HTTPConfig struct {
	Authenticator *auth.Authenticator
	Requests      *RequestService
	Mail          *MailService

	// TestEndpoints enables GET /seedEmulatorData.
	TestEndpoints bool
}

// Endpoints serves the non-RPC HTTP surface used by webhooks, scripts and
// the login popup.
type Endpoints struct {
	auth          *auth.Authenticator
	requests      *RequestService
	mail          *MailService
	testEndpoints bool
}

// NewEndpoints creates the plain HTTP endpoints.
func NewEndpoints(cfg HTTPConfig) *Endpoints {
	return &Endpoints{
		auth:          cfg.Authenticator,
		requests:      cfg.Requests,
		mail:          cfg.Mail,
		testEndpoints: cfg.TestEndpoints,
	}
}

// Register mounts the endpoints on mux.
func (e *Endpoints) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sendMail", e.SendMail)
	mux.HandleFunc("POST /approveQueue", e.ApproveQueue)
	mux.HandleFunc("GET /seedEmulatorData", e.SeedEmulatorData)
}

// SendMail relays a JSON bulk-mail body to the webhook as received and
// answers with the webhook's status and body.
func (e *Endpoints) SendMail(w http.ResponseWriter, r *http.Request) {
	p, err := e.authenticate(r, canEdit)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}
	var msg api.SendBulkMailRequest
	if err := json.Unmarshal(body, &msg); err != nil {
		writeError(w, fmt.Errorf("%w: malformed JSON body", ErrInvalidInput))
		return
	}
	if err := validateMsg(&msg); err != nil {
		writeError(w, err)
		return
	}

	resp, err := e.mail.broadcast(r.Context(), p, msg.Recipients, json.RawMessage(body))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
}

// ApproveQueue approves the queue request named by {"queueId": ...}.
func (e *Endpoints) ApproveQueue(w http.ResponseWriter, r *http.Request) {
	p, err := e.authenticate(r, canEdit)
	if err != nil {
		writeError(w, err)
		return
	}

	var msg api.ApproveQueueRequestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&msg); err != nil {
		writeError(w, fmt.Errorf("%w: malformed JSON body", ErrInvalidInput))
		return
	}
	if err := validateMsg(&msg); err != nil {
		writeError(w, err)
		return
	}

	req, err := e.requests.approve(r.Context(), p, msg.QueueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ApproveQueueRequestResponse{
		RequestID: req.ID,
		VS:        req.VS,
		SeqNum:    req.SeqNum,
	})
}

// authenticate resolves the bearer of r and checks its role.
func (e *Endpoints) authenticate(r *http.Request, allowed func(models.Role) bool) (*auth.Principal, error) {
	p, err := e.auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	if err := p.Require(allowed); err != nil {
		return nil, err
	}
	return p, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("HTTP endpoint failed", "error", err)
		msg = "internal error"
	}
	if errors.Is(err, auth.ErrAccessDenied) {
		msg = "Not allowlisted"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}
