package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/mail"
	"github.com/satnyp/spolek-rodicu/internal/metrics"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// MailService relays bulk mail to the webhook after checking every recipient
// against the allow-list.
type MailService struct {
	audit    storage.AuditStore
	resolver *auth.Resolver
	relay    *mail.Relay
	metrics  *metrics.Metrics
}

// NewMailService creates a MailService. A nil or unconfigured relay makes
// every send fail with unavailable.
func NewMailService(audit storage.AuditStore, resolver *auth.Resolver, relay *mail.Relay, m *metrics.Metrics) *MailService {
	return &MailService{audit: audit, resolver: resolver, relay: relay, metrics: m}
}

// SendBulkMail forwards the message to the webhook. A non-2xx reply is
// reported as unavailable.
func (s *MailService) SendBulkMail(ctx context.Context, req *connect.Request[api.SendBulkMailRequest]) (*connect.Response[api.SendBulkMailResponse], error) {
	p, err := caller(ctx, canEdit)
	if err != nil {
		s.metrics.MailBroadcast(metrics.ResultDenied)
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	resp, err := s.broadcast(ctx, p, req.Msg.Recipients, req.Msg)
	if err != nil {
		return nil, connectError(err)
	}
	if !resp.OK() {
		return nil, connect.NewError(connect.CodeUnavailable,
			fmt.Errorf("%w: mail webhook returned %d: %s", ErrUpstream, resp.Status, resp.Body))
	}
	return connect.NewResponse(&api.SendBulkMailResponse{Status: resp.Status, Body: string(resp.Body)}), nil
}

// broadcast checks recipients, forwards payload and audits a 2xx reply.
// Any HTTP reply from the webhook is returned without error.
func (s *MailService) broadcast(ctx context.Context, p *auth.Principal, recipients []string, payload any) (*mail.Response, error) {
	if !s.relay.Configured() {
		s.metrics.MailBroadcast(metrics.ResultError)
		return nil, mail.ErrNotConfigured
	}
	if err := s.checkRecipients(ctx, recipients); err != nil {
		s.metrics.MailBroadcast(metrics.ResultDenied)
		return nil, err
	}

	slog.Info("Forwarding bulk mail", "recipients", len(recipients), "email", p.Email)

	resp, err := s.relay.Forward(ctx, payload)
	if err != nil {
		s.metrics.MailBroadcast(metrics.ResultError)
		slog.Error("Mail webhook call failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !resp.OK() {
		s.metrics.MailBroadcast(metrics.ResultRejected)
		slog.Warn("Mail webhook rejected broadcast", "status", resp.Status)
		return resp, nil
	}

	s.metrics.MailBroadcast(metrics.ResultOK)
	recordAudit(ctx, s.audit, p, models.ActionSendMail, models.TargetMail, "", map[string]any{
		"recipientsCount": len(recipients),
	})
	return resp, nil
}

// checkRecipients requires every address to be allow-listed and active, or
// the built-in admin. The first failure rejects the whole broadcast.
func (s *MailService) checkRecipients(ctx context.Context, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("%w: recipients: is required", ErrInvalidInput)
	}
	for _, addr := range recipients {
		_, _, err := s.resolver.Resolve(ctx, addr)
		if errors.Is(err, auth.ErrAccessDenied) {
			return fmt.Errorf("%w: recipient %q is not allow-listed", ErrInvalidInput, addr)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
