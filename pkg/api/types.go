// Package api defines the wire messages of the Connect services. Messages are
// plain Go structs carried as JSON by Codec.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roles carried in AllowlistEntry.Role and GetSessionResponse.Role.
const (
	RoleViewer     = "viewer"
	RoleRequester  = "requester"
	RoleAccountant = "accountant"
	RoleAdmin      = "admin"
)

// Request workflow states.
const (
	StateNew                = "NEW"
	StatePaid               = "PAID"
	StateHasInvoices        = "HAS_INVOICES"
	StateHandedToAccountant = "HANDED_TO_ACCOUNTANT"
)

// CanEdit reports whether role may approve, edit and mail.
func CanEdit(role string) bool {
	return role == RoleAccountant || role == RoleAdmin
}

// AllowlistEntry is an allow-list row as seen by clients.
type AllowlistEntry struct {
	EmailLower string    `json:"emailLower"`
	Role       string    `json:"role"`
	Active     bool      `json:"active"`
	Label      string    `json:"label,omitempty"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Month is a month summary.
type Month struct {
	MonthKey  string           `json:"monthKey"`
	Label     string           `json:"label"`
	Counts    map[string]int64 `json:"counts"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Attachment is a stored file linked to a request.
type Attachment struct {
	StoragePath     string    `json:"storagePath"`
	Filename        string    `json:"filename"`
	Mime            string    `json:"mime"`
	SizeBytes       int64     `json:"sizeBytes"`
	Kind            string    `json:"kind"`
	DownloadURL     string    `json:"downloadURL,omitempty"`
	UploadedByEmail string    `json:"uploadedByEmail,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// Request is an approved, numbered request.
type Request struct {
	ID             string            `json:"id"`
	MonthKey       string            `json:"monthKey"`
	Description    string            `json:"description"`
	AmountCzk      decimal.Decimal   `json:"amountCzk"`
	State          string            `json:"state"`
	VS             string            `json:"vs"`
	SeqYear        int               `json:"seqYear"`
	SeqNum         int64             `json:"seqNum"`
	EditorData     map[string]string `json:"editorData,omitempty"`
	Attachments    []Attachment      `json:"attachments,omitempty"`
	CreatedByEmail string            `json:"createdByEmail,omitempty"`
	UpdatedByEmail string            `json:"updatedByEmail,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// QueueItem is a request awaiting review.
type QueueItem struct {
	ID              string          `json:"id"`
	MonthKey        string          `json:"monthKey"`
	Description     string          `json:"description"`
	AmountCzk       decimal.Decimal `json:"amountCzk"`
	Status          string          `json:"status"`
	CreatedByEmail  string          `json:"createdByEmail,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	ReviewedByEmail string          `json:"reviewedByEmail,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewedAt,omitempty"`
}

// AuditEntry is one audit record.
type AuditEntry struct {
	ID         string         `json:"id"`
	TS         time.Time      `json:"ts"`
	ActorUID   string         `json:"actorUid,omitempty"`
	ActorEmail string         `json:"actorEmail,omitempty"`
	Action     string         `json:"action"`
	TargetType string         `json:"targetType"`
	TargetID   string         `json:"targetId,omitempty"`
	Diff       map[string]any `json:"diff,omitempty"`
}
