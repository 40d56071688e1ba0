package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
)

const queueColumns = `id, month_key, description, amount_czk, status, created_by_uid, created_by_email,
	created_at, reviewed_by_email, reviewed_at`

// CreateQueueRequest persists a new queue request in QUEUED status.
func (s *SQLiteStore) CreateQueueRequest(ctx context.Context, q *models.QueueRequest) error {
	// Generate IDs if not set
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	q.CreatedAt = nowIfZero(q.CreatedAt)
	q.Status = models.QueueQueued

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queue_requests (id, month_key, description, amount_czk, status,
			created_by_uid, created_by_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.ID, q.MonthKey, q.Description, q.AmountCzk.String(), string(q.Status),
		q.CreatedByUID, q.CreatedByEmail, toUnix(q.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert queue request: %w", err)
	}
	return nil
}

// GetQueueRequest retrieves a queue request by ID.
func (s *SQLiteStore) GetQueueRequest(ctx context.Context, id string) (*models.QueueRequest, error) {
	return getQueueRequest(ctx, s.db, id)
}

func getQueueRequest(ctx context.Context, q queryer, id string) (*models.QueueRequest, error) {
	item, err := scanQueueRequest(q.QueryRowContext(ctx, "SELECT "+queueColumns+" FROM queue_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue request %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue request: %w", err)
	}
	return item, nil
}

// ListQueuedForMonth returns the month's still-QUEUED requests, newest first.
func (s *SQLiteStore) ListQueuedForMonth(ctx context.Context, monthKey string, limit int) ([]*models.QueueRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+queueColumns+" FROM queue_requests WHERE month_key = ? AND status = ? ORDER BY created_at DESC LIMIT ?",
		monthKey, string(models.QueueQueued), clampLimit(limit, storage.DefaultQueueLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue requests: %w", err)
	}
	defer rows.Close()

	var items []*models.QueueRequest
	for rows.Next() {
		item, err := scanQueueRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue request: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue requests: %w", err)
	}
	return items, nil
}

// RejectQueueRequest marks a QUEUED request REJECTED and records the rejection.
func (s *SQLiteStore) RejectQueueRequest(ctx context.Context, id string, actor storage.Actor, now time.Time) error {
	now = nowIfZero(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := getQueueRequest(ctx, tx, id)
	if err != nil {
		return err
	}
	if item.Status != models.QueueQueued {
		return fmt.Errorf("queue request %s is %s: %w", id, item.Status, storage.ErrAlreadyReviewed)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE queue_requests SET status = ?, reviewed_by_email = ?, reviewed_at = ? WHERE id = ?",
		string(models.QueueRejected), actor.Email, toUnix(now), id,
	); err != nil {
		return fmt.Errorf("failed to reject queue request: %w", err)
	}

	if err := insertAudit(ctx, tx, &models.AuditEntry{
		TS:         now,
		ActorUID:   actor.UID,
		ActorEmail: actor.Email,
		Action:     models.ActionRejectQueue,
		TargetType: models.TargetQueue,
		TargetID:   id,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanQueueRequest(row rowScanner) (*models.QueueRequest, error) {
	var (
		q          models.QueueRequest
		amount     string
		status     string
		createdAt  int64
		reviewedAt sql.NullInt64
	)
	err := row.Scan(&q.ID, &q.MonthKey, &q.Description, &amount, &status,
		&q.CreatedByUID, &q.CreatedByEmail, &createdAt, &q.ReviewedByEmail, &reviewedAt)
	if err != nil {
		return nil, err
	}
	if q.AmountCzk, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	q.Status = models.QueueStatus(status)
	q.CreatedAt = fromUnix(createdAt)
	if reviewedAt.Valid {
		t := fromUnix(reviewedAt.Int64)
		q.ReviewedAt = &t
	}
	return &q, nil
}
