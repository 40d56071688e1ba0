// Package service implements the Connect services and the plain HTTP
// endpoints of the membership-fee tracker.
package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/satnyp/spolek-rodicu/internal/auth"
	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
)

// anyRole admits every allow-listed caller.
func anyRole(r models.Role) bool { return r.Valid() }

// caller returns the authenticated principal, checking its role.
func caller(ctx context.Context, allowed func(models.Role) bool) (*auth.Principal, error) {
	p := auth.PrincipalFrom(ctx)
	if p == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	if err := p.Require(allowed); err != nil {
		return nil, connect.NewError(connect.CodePermissionDenied, err)
	}
	return p, nil
}

func actorOf(p *auth.Principal) storage.Actor {
	return storage.Actor{UID: p.UID, Email: p.Email}
}

// recordAudit appends an audit entry for a write that has already committed.
// Failures are logged rather than returned.
func recordAudit(ctx context.Context, store storage.AuditStore, p *auth.Principal, action, targetType, targetID string, diff map[string]any) {
	entry := &models.AuditEntry{
		TS:         time.Now().UTC(),
		ActorUID:   p.UID,
		ActorEmail: p.Email,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Diff:       diff,
	}
	if err := store.AppendAudit(ctx, entry); err != nil {
		slog.Error("Failed to append audit entry",
			"action", action,
			"target_id", targetID,
			"error", err,
		)
	}
}
