package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
)

// ErrAccessDenied is returned for identities that are neither allow-listed
// (active) nor the hard-coded admin.
var ErrAccessDenied = errors.New("access denied: not allowlisted")

// Resolver maps an email to a role using the allow-list.
type Resolver struct {
	store     storage.AllowlistStore
	hardAdmin string
}

// NewResolver creates a resolver. hardAdmin is always treated as admin.
func NewResolver(store storage.AllowlistStore, hardAdmin string) *Resolver {
	if hardAdmin == "" {
		hardAdmin = models.DefaultAdminEmail
	}
	return &Resolver{store: store, hardAdmin: models.NormalizeEmail(hardAdmin)}
}

// HardAdmin returns the normalized built-in admin email.
func (r *Resolver) HardAdmin() string {
	return r.hardAdmin
}

// IsHardAdmin reports whether email is the built-in admin.
func (r *Resolver) IsHardAdmin(email string) bool {
	return models.NormalizeEmail(email) == r.hardAdmin
}

// Resolve returns the role of email and its allow-list entry (nil for a hard
// admin without an entry).
func (r *Resolver) Resolve(ctx context.Context, email string) (models.Role, *models.AllowlistEntry, error) {
	key := models.NormalizeEmail(email)
	if key == "" {
		return "", nil, ErrAccessDenied
	}

	entry, err := r.store.GetAllowlistEntry(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", nil, fmt.Errorf("failed to read allow-list: %w", err)
	}
	if errors.Is(err, storage.ErrNotFound) {
		entry = nil
	}

	if key == r.hardAdmin {
		return models.RoleAdmin, entry, nil
	}
	if entry == nil || !entry.Active || !entry.Role.Valid() {
		return "", nil, ErrAccessDenied
	}
	return entry.Role, entry, nil
}
