package models

import "time"

// Audit actions.
const (
	ActionLoginSeznam      = "LOGIN_SEZNAM"
	ActionApproveQueue     = "APPROVE_QUEUE"
	ActionRejectQueue      = "REJECT_QUEUE"
	ActionUpdateEditor     = "UPDATE_EDITOR"
	ActionUpdateState      = "UPDATE_STATE"
	ActionUploadAttachment = "UPLOAD_ATTACHMENT"
	ActionSendMail         = "SEND_MAIL"
	ActionUpsertAllowlist  = "UPSERT_ALLOWLIST"
	ActionDeleteAllowlist  = "DELETE_ALLOWLIST"
)

// Audit target types.
const (
	TargetAuth      = "auth"
	TargetQueue     = "queue"
	TargetRequest   = "request"
	TargetMail      = "mail"
	TargetAllowlist = "allowlist"
)

// AuditEntry is an append-only record of a privileged action.
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

// OAuthState is a pending PKCE authorization, keyed by the random state value.
// It is consumed exactly once by the callback.
type OAuthState struct {
	State     string
	Verifier  string
	CreatedAt time.Time
	ExpiresAt time.Time
}
