package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
	"github.com/satnyp/spolek-rodicu/internal/voucher"
)

// ApproveQueueRequest promotes a queue request to a numbered request in a
// single transaction. The transaction takes the write lock up front
// (_txlock=immediate), so two approvals can never read the same counter value.
func (s *SQLiteStore) ApproveQueueRequest(ctx context.Context, in storage.ApprovalInput) (*models.Request, error) {
	// The variable symbol and counter year follow the caller's calendar day;
	// stored timestamps are UTC.
	local := in.Now
	if local.IsZero() {
		local = time.Now()
	}
	now := local.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// (a) read the queue item
	q, err := getQueueRequest(ctx, tx, in.QueueID)
	if err != nil {
		return nil, err
	}
	if q.Status != models.QueueQueued {
		return nil, fmt.Errorf("queue request %s is %s: %w", in.QueueID, q.Status, storage.ErrAlreadyReviewed)
	}

	// (b) allocate the next sequence number of the year
	year := local.Year()
	var seq int64
	err = tx.QueryRowContext(ctx, "SELECT next_seq FROM counters WHERE year = ?", year).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		seq = 1
	} else if err != nil {
		return nil, fmt.Errorf("failed to read counter: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO counters (year, next_seq) VALUES (?, ?)
		ON CONFLICT(year) DO UPDATE SET next_seq = excluded.next_seq
	`, year, seq+1); err != nil {
		return nil, fmt.Errorf("failed to advance counter: %w", err)
	}

	// (c) + (d) create the numbered request
	req := &models.Request{
		ID:             uuid.New().String(),
		MonthKey:       q.MonthKey,
		Description:    q.Description,
		AmountCzk:      q.AmountCzk,
		State:          models.StateNew,
		VS:             voucher.VariableSymbol(local, seq),
		SeqYear:        year,
		SeqNum:         seq,
		EditorData:     map[string]string{},
		CreatedByUID:   q.CreatedByUID,
		CreatedByEmail: q.CreatedByEmail,
		UpdatedByUID:   in.ActorUID,
		UpdatedByEmail: in.ActorEmail,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO requests ("+requestColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		req.ID, req.MonthKey, req.Description, req.AmountCzk.String(), string(req.State), req.VS,
		req.SeqYear, req.SeqNum, "{}",
		req.CreatedByUID, req.CreatedByEmail, req.UpdatedByUID, req.UpdatedByEmail,
		toUnix(req.CreatedAt), toUnix(req.UpdatedAt),
	); err != nil {
		return nil, fmt.Errorf("failed to insert request: %w", err)
	}

	// (e) mark the queue item approved
	if _, err := tx.ExecContext(ctx,
		"UPDATE queue_requests SET status = ?, reviewed_by_email = ?, reviewed_at = ? WHERE id = ?",
		string(models.QueueApproved), in.ActorEmail, toUnix(now), in.QueueID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark queue request approved: %w", err)
	}

	// (f) upsert the month summary
	if err := bumpMonth(ctx, tx, q.MonthKey, now.UnixNano(), models.CountTotal, string(models.StateNew)); err != nil {
		return nil, err
	}

	// (g) audit
	if err := insertAudit(ctx, tx, &models.AuditEntry{
		TS:         now,
		ActorUID:   in.ActorUID,
		ActorEmail: in.ActorEmail,
		Action:     models.ActionApproveQueue,
		TargetType: models.TargetQueue,
		TargetID:   in.QueueID,
		Diff:       map[string]any{"requestId": req.ID, "vs": req.VS},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return req, nil
}

func bumpMonth(ctx context.Context, tx execer, monthKey string, updatedAt int64, buckets ...string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO months (month_key, label, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(month_key) DO UPDATE SET updated_at = excluded.updated_at
	`, monthKey, voucher.MonthLabel(monthKey), updatedAt); err != nil {
		return fmt.Errorf("failed to upsert month: %w", err)
	}
	for _, bucket := range buckets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO month_counts (month_key, bucket, count) VALUES (?, ?, 1)
			ON CONFLICT(month_key, bucket) DO UPDATE SET count = count + 1
		`, monthKey, bucket); err != nil {
			return fmt.Errorf("failed to increment month count %s: %w", bucket, err)
		}
	}
	return nil
}

func insertAudit(ctx context.Context, x execer, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.TS = nowIfZero(entry.TS)

	var diff sql.NullString
	if len(entry.Diff) > 0 {
		encoded, err := json.Marshal(entry.Diff)
		if err != nil {
			return fmt.Errorf("failed to encode audit diff: %w", err)
		}
		diff = sql.NullString{String: string(encoded), Valid: true}
	}

	_, err := x.ExecContext(ctx, `
		INSERT INTO audit (id, ts, actor_uid, actor_email, action, target_type, target_id, diff)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, toUnix(entry.TS), entry.ActorUID, entry.ActorEmail,
		entry.Action, entry.TargetType, entry.TargetID, diff,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}
