package models

import (
	"strings"
	"time"
)

// DefaultAdminEmail is the built-in administrator. It is always treated as admin,
// whether or not an allow-list entry exists, and its entry cannot be deleted.
const DefaultAdminEmail = "satny@gvid.cz"

// AllowlistEntry grants a person access to the application.
type AllowlistEntry struct {
	// EmailLower is the lowercased email and the entry key.
	EmailLower string `json:"emailLower"`

	Role   Role   `json:"role"`
	Active bool   `json:"active"`
	Label  string `json:"label,omitempty"`

	// CreatedBy is the email of the admin who created the entry.
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeEmail trims and lowercases an address for allow-list lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
