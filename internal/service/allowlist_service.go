package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
	"github.com/satnyp/spolek-rodicu/pkg/api"
)

// AllowlistService implements the Connect AllowlistService. Every operation
// requires the admin role.
type AllowlistService struct {
	store    storage.Store
	resolver *auth.Resolver
}

// NewAllowlistService creates an AllowlistService.
func NewAllowlistService(store storage.Store, resolver *auth.Resolver) *AllowlistService {
	return &AllowlistService{store: store, resolver: resolver}
}

func adminOnly(r models.Role) bool { return r.CanManageAllowlist() }

// ListAllowlist returns all entries.
func (s *AllowlistService) ListAllowlist(ctx context.Context, req *connect.Request[api.ListAllowlistRequest]) (*connect.Response[api.ListAllowlistResponse], error) {
	if _, err := caller(ctx, adminOnly); err != nil {
		return nil, err
	}

	entries, err := s.store.ListAllowlist(ctx)
	if err != nil {
		slog.Error("ListAllowlist failed", "error", err)
		return nil, connectError(err)
	}

	out := make([]api.AllowlistEntry, len(entries))
	for i, e := range entries {
		out[i] = toAPIAllowlistEntry(e)
	}
	return connect.NewResponse(&api.ListAllowlistResponse{Entries: out}), nil
}

// UpsertAllowlist creates or updates an entry keyed by the lowercased email.
func (s *AllowlistService) UpsertAllowlist(ctx context.Context, req *connect.Request[api.UpsertAllowlistRequest]) (*connect.Response[api.UpsertAllowlistResponse], error) {
	p, err := caller(ctx, adminOnly)
	if err != nil {
		return nil, err
	}
	req.Msg.Email = strings.TrimSpace(req.Msg.Email)
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	active := true
	if req.Msg.Active != nil {
		active = *req.Msg.Active
	}
	now := time.Now().UTC()
	entry := &models.AllowlistEntry{
		EmailLower: models.NormalizeEmail(req.Msg.Email),
		Role:       models.Role(req.Msg.Role),
		Active:     active,
		Label:      req.Msg.Label,
		CreatedBy:  p.Email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.UpsertAllowlistEntry(ctx, entry); err != nil {
		slog.Error("UpsertAllowlist failed", "email", entry.EmailLower, "error", err)
		return nil, connectError(err)
	}

	saved, err := s.store.GetAllowlistEntry(ctx, entry.EmailLower)
	if err != nil {
		return nil, connectError(err)
	}

	recordAudit(ctx, s.store, p, models.ActionUpsertAllowlist, models.TargetAllowlist, entry.EmailLower, map[string]any{
		"role":   string(entry.Role),
		"active": entry.Active,
	})
	slog.Info("Allow-list entry saved", "email", entry.EmailLower, "role", entry.Role, "active", entry.Active)

	return connect.NewResponse(&api.UpsertAllowlistResponse{Entry: toAPIAllowlistEntry(saved)}), nil
}

// DeleteAllowlist removes an entry. The built-in admin cannot be removed.
func (s *AllowlistService) DeleteAllowlist(ctx context.Context, req *connect.Request[api.DeleteAllowlistRequest]) (*connect.Response[api.DeleteAllowlistResponse], error) {
	p, err := caller(ctx, adminOnly)
	if err != nil {
		return nil, err
	}
	req.Msg.Email = strings.TrimSpace(req.Msg.Email)
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	email := models.NormalizeEmail(req.Msg.Email)
	if s.resolver.IsHardAdmin(email) {
		return nil, connectError(storage.ErrProtectedEntry)
	}
	if err := s.store.DeleteAllowlistEntry(ctx, email); err != nil {
		slog.Error("DeleteAllowlist failed", "email", email, "error", err)
		return nil, connectError(err)
	}

	recordAudit(ctx, s.store, p, models.ActionDeleteAllowlist, models.TargetAllowlist, email, nil)
	slog.Info("Allow-list entry deleted", "email", email)

	return connect.NewResponse(&api.DeleteAllowlistResponse{}), nil
}

// ListAudit returns the newest audit entries.
func (s *AllowlistService) ListAudit(ctx context.Context, req *connect.Request[api.ListAuditRequest]) (*connect.Response[api.ListAuditResponse], error) {
	if _, err := caller(ctx, adminOnly); err != nil {
		return nil, err
	}
	if err := validateMsg(req.Msg); err != nil {
		return nil, connectError(err)
	}

	entries, err := s.store.ListAudit(ctx, req.Msg.Limit)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ListAuditResponse{Entries: toAPIAudit(entries)}), nil
}
