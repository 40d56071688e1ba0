package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
)

const requestColumns = `id, month_key, description, amount_czk, state, vs, seq_year, seq_num, editor_data,
	created_by_uid, created_by_email, updated_by_uid, updated_by_email, created_at, updated_at`

// ListMonths returns month summaries, newest month first.
func (s *SQLiteStore) ListMonths(ctx context.Context, limit int) ([]*models.MonthSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT month_key, label, updated_at FROM months ORDER BY month_key DESC LIMIT ?",
		clampLimit(limit, storage.DefaultMonthsLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list months: %w", err)
	}

	var months []*models.MonthSummary
	for rows.Next() {
		var (
			m         models.MonthSummary
			updatedAt int64
		)
		if err := rows.Scan(&m.MonthKey, &m.Label, &updatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan month: %w", err)
		}
		m.UpdatedAt = fromUnix(updatedAt)
		months = append(months, &m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating months: %w", err)
	}

	for _, m := range months {
		if m.Counts, err = s.monthCounts(ctx, s.db, m.MonthKey); err != nil {
			return nil, err
		}
	}
	return months, nil
}

// GetMonth returns one month summary.
func (s *SQLiteStore) GetMonth(ctx context.Context, monthKey string) (*models.MonthSummary, error) {
	var (
		m         models.MonthSummary
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT month_key, label, updated_at FROM months WHERE month_key = ?", monthKey,
	).Scan(&m.MonthKey, &m.Label, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("month %s: %w", monthKey, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get month: %w", err)
	}
	m.UpdatedAt = fromUnix(updatedAt)
	if m.Counts, err = s.monthCounts(ctx, s.db, monthKey); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStore) monthCounts(ctx context.Context, q queryer, monthKey string) (map[string]int64, error) {
	rows, err := q.QueryContext(ctx, "SELECT bucket, count FROM month_counts WHERE month_key = ?", monthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get month counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			bucket string
			count  int64
		)
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("failed to scan month count: %w", err)
		}
		counts[bucket] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating month counts: %w", err)
	}
	return counts, nil
}

// GetRequest retrieves an approved request with its attachments.
func (s *SQLiteStore) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	req, err := scanRequest(s.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	if req.Attachments, err = s.attachments(ctx, id); err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequestsForMonth returns the month's requests, newest first.
func (s *SQLiteStore) ListRequestsForMonth(ctx context.Context, monthKey string, limit int) ([]*models.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE month_key = ? ORDER BY created_at DESC, seq_num DESC LIMIT ?",
		monthKey, clampLimit(limit, storage.DefaultRequestsLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	var requests []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	for _, req := range requests {
		if req.Attachments, err = s.attachments(ctx, req.ID); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// UpdateRequestState sets the workflow state of a request.
func (s *SQLiteStore) UpdateRequestState(ctx context.Context, id string, state models.RequestState, actor storage.Actor) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE requests SET state = ?, updated_by_uid = ?, updated_by_email = ?, updated_at = ? WHERE id = ?",
		string(state), actor.UID, actor.Email, toUnix(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update request state: %w", err)
	}
	return requireAffected(res, "request", id)
}

// SaveEditorData replaces the free-form editor fields of a request.
func (s *SQLiteStore) SaveEditorData(ctx context.Context, id string, data map[string]string, actor storage.Actor) error {
	if data == nil {
		data = map[string]string{}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode editor data: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE requests SET editor_data = ?, updated_by_uid = ?, updated_by_email = ?, updated_at = ? WHERE id = ?",
		string(encoded), actor.UID, actor.Email, toUnix(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to save editor data: %w", err)
	}
	return requireAffected(res, "request", id)
}

// AppendAttachment adds an attachment at the end of the request's list.
func (s *SQLiteStore) AppendAttachment(ctx context.Context, id string, a models.Attachment, actor storage.Actor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE requests SET updated_by_uid = ?, updated_by_email = ?, updated_at = ? WHERE id = ?",
		actor.UID, actor.Email, toUnix(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch request: %w", err)
	}
	if err := requireAffected(res, "request", id); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attachments (request_id, position, storage_path, filename, mime, size_bytes,
			uploaded_by_uid, uploaded_by_email, uploaded_at, kind, download_url)
		VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM attachments WHERE request_id = ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, id, a.StoragePath, a.Filename, a.Mime, a.SizeBytes,
		a.UploadedByUID, a.UploadedByEmail, toUnix(nowIfZero(a.UploadedAt)), a.Kind, a.DownloadURL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) attachments(ctx context.Context, requestID string) ([]models.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT storage_path, filename, mime, size_bytes, uploaded_by_uid, uploaded_by_email,
			uploaded_at, kind, download_url
		FROM attachments
		WHERE request_id = ?
		ORDER BY position
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attachments: %w", err)
	}
	defer rows.Close()

	var out []models.Attachment
	for rows.Next() {
		var (
			a          models.Attachment
			uploadedAt int64
		)
		if err := rows.Scan(&a.StoragePath, &a.Filename, &a.Mime, &a.SizeBytes, &a.UploadedByUID,
			&a.UploadedByEmail, &uploadedAt, &a.Kind, &a.DownloadURL); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		a.UploadedAt = fromUnix(uploadedAt)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}
	return out, nil
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		req                  models.Request
		amount               string
		state                string
		editorData           string
		createdAt, updatedAt int64
	)
	err := row.Scan(&req.ID, &req.MonthKey, &req.Description, &amount, &state, &req.VS,
		&req.SeqYear, &req.SeqNum, &editorData,
		&req.CreatedByUID, &req.CreatedByEmail, &req.UpdatedByUID, &req.UpdatedByEmail,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if req.AmountCzk, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if editorData != "" {
		if err := json.Unmarshal([]byte(editorData), &req.EditorData); err != nil {
			return nil, fmt.Errorf("invalid editor data: %w", err)
		}
	}
	req.State = models.RequestState(state)
	req.CreatedAt = fromUnix(createdAt)
	req.UpdatedAt = fromUnix(updatedAt)
	return &req, nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
