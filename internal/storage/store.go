// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyReviewed is returned when approving or rejecting a queue
	// request that is no longer QUEUED.
	ErrAlreadyReviewed = errors.New("queue request already reviewed")
	// ErrProtectedEntry is returned when deleting the built-in admin entry.
	ErrProtectedEntry = errors.New("allow-list entry is protected")
)

// Default listing limits.
const (
	DefaultMonthsLimit   = 24
	DefaultRequestsLimit = 200
	DefaultQueueLimit    = 20
)

// ApprovalInput identifies a queue request to promote and who promotes it.
type ApprovalInput struct {
	QueueID    string
	ActorUID   string
	ActorEmail string
	// Now fixes the approval time; it determines the counter year and the
	// variable symbol date.
	Now time.Time
}

// Actor identifies who performs a write.
type Actor struct {
	UID   string
	Email string
}

// AllowlistStore reads and writes the access-control table.
type AllowlistStore interface {
	// GetAllowlistEntry returns the entry keyed by the lowercased email,
	// or ErrNotFound.
	GetAllowlistEntry(ctx context.Context, emailLower string) (*models.AllowlistEntry, error)
	ListAllowlist(ctx context.Context) ([]*models.AllowlistEntry, error)
	// UpsertAllowlistEntry creates or replaces an entry. CreatedAt and
	// CreatedBy of an existing entry are preserved.
	UpsertAllowlistEntry(ctx context.Context, entry *models.AllowlistEntry) error
	DeleteAllowlistEntry(ctx context.Context, emailLower string) error
}

// RequestStore reads and writes months, approved requests and queue requests.
type RequestStore interface {
	ListMonths(ctx context.Context, limit int) ([]*models.MonthSummary, error)
	GetMonth(ctx context.Context, monthKey string) (*models.MonthSummary, error)

	GetRequest(ctx context.Context, id string) (*models.Request, error)
	ListRequestsForMonth(ctx context.Context, monthKey string, limit int) ([]*models.Request, error)
	UpdateRequestState(ctx context.Context, id string, state models.RequestState, actor Actor) error
	SaveEditorData(ctx context.Context, id string, data map[string]string, actor Actor) error
	AppendAttachment(ctx context.Context, id string, attachment models.Attachment, actor Actor) error

	// CreateQueueRequest persists a new QUEUED request. ID and CreatedAt are
	// populated by the store when empty.
	CreateQueueRequest(ctx context.Context, q *models.QueueRequest) error
	GetQueueRequest(ctx context.Context, id string) (*models.QueueRequest, error)
	ListQueuedForMonth(ctx context.Context, monthKey string, limit int) ([]*models.QueueRequest, error)
	RejectQueueRequest(ctx context.Context, id string, actor Actor, now time.Time) error

	// ApproveQueueRequest atomically reads the queue request, allocates the
	// next sequence number of the year, creates the NEW request, marks the
	// queue request APPROVED, bumps the month counters and appends an audit
	// entry. Either all of it commits or nothing does.
	ApproveQueueRequest(ctx context.Context, in ApprovalInput) (*models.Request, error)
}

// AuditStore appends and lists audit entries.
type AuditStore interface {
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]*models.AuditEntry, error)
}

// StateStore keeps pending OAuth PKCE verifiers.
type StateStore interface {
	PutOAuthState(ctx context.Context, state *models.OAuthState) error
	// TakeOAuthState returns and deletes the state in one step, so a state
	// can be redeemed at most once. Missing or expired states yield ErrNotFound.
	TakeOAuthState(ctx context.Context, state string, now time.Time) (*models.OAuthState, error)
	PurgeExpiredOAuthStates(ctx context.Context, now time.Time) (int64, error)
}

// Store defines the full persistence surface.
// This abstraction allows swapping storage backends (SQLite, Firestore)
// without changing the service layer.
type Store interface {
	AllowlistStore
	RequestStore
	AuditStore
	StateStore

	// Close releases any resources held by the store.
	Close() error
}
