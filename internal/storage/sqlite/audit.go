package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

// AppendAudit appends an audit entry. Entries are never updated or deleted.
func (s *SQLiteStore) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	return insertAudit(ctx, s.db, entry)
}

// ListAudit returns the newest audit entries first.
func (s *SQLiteStore) ListAudit(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, actor_uid, actor_email, action, target_type, target_id, diff
		FROM audit
		ORDER BY ts DESC
		LIMIT ?
	`, clampLimit(limit, 100))
	if err != nil {
		return nil, fmt.Errorf("failed to list audit: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var (
			e    models.AuditEntry
			ts   int64
			diff sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.ActorUID, &e.ActorEmail, &e.Action, &e.TargetType, &e.TargetID, &diff); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.TS = fromUnix(ts)
		if diff.Valid {
			if err := json.Unmarshal([]byte(diff.String), &e.Diff); err != nil {
				return nil, fmt.Errorf("invalid audit diff: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit: %w", err)
	}
	return entries, nil
}
