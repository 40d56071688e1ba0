// Package mail forwards bulk-mail requests to the external mail webhook.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SecretHeader carries the shared secret expected by the webhook.
const SecretHeader = "X-SR-SECRET"

// maxResponseBody bounds how much of the webhook reply is kept.
const maxResponseBody = 1 << 20

// ErrNotConfigured is returned when no webhook URL is set.
var ErrNotConfigured = errors.New("mail webhook not configured")

// Payload is the bulk-mail request as submitted by the client. It is
// forwarded to the webhook verbatim.
type Payload struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,required,email"`
	Subject    string   `json:"subject,omitempty"`
	Body       string   `json:"body,omitempty"`
	RequestIDs []string `json:"requestIds,omitempty"`
	MonthKey   string   `json:"monthKey,omitempty"`
}

// Response is the webhook's reply.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Relay posts payloads to the webhook. It does not retry.
type Relay struct {
	url    string
	secret string
	client *http.Client
}

// NewRelay creates a Relay. A zero timeout keeps the client's default.
func NewRelay(url, secret string, timeout time.Duration) *Relay {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &Relay{url: url, secret: secret, client: client}
}

// Configured reports whether a webhook URL is set.
func (r *Relay) Configured() bool {
	return r != nil && r.url != ""
}

// Forward POSTs payload as JSON. Transport failures return an error; any
// HTTP status, including non-2xx, is returned in Response.
func (r *Relay) Forward(ctx context.Context, payload any) (*Response, error) {
	if !r.Configured() {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, r.secret)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call mail webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response: %w", err)
	}
	return &Response{Status: resp.StatusCode, Body: respBody}, nil
}
