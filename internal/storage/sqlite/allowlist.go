package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
)

// GetAllowlistEntry retrieves an entry by lowercased email.
func (s *SQLiteStore) GetAllowlistEntry(ctx context.Context, emailLower string) (*models.AllowlistEntry, error) {
	query := `
		SELECT email_lower, role, active, label, created_by, created_at, updated_at
		FROM allowlist
		WHERE email_lower = ?
	`

	entry, err := scanAllowlistEntry(s.db.QueryRowContext(ctx, query, emailLower))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("allow-list entry %s: %w", emailLower, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allow-list entry: %w", err)
	}
	return entry, nil
}

// ListAllowlist returns all entries ordered by email.
func (s *SQLiteStore) ListAllowlist(ctx context.Context) ([]*models.AllowlistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email_lower, role, active, label, created_by, created_at, updated_at
		FROM allowlist
		ORDER BY email_lower
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list allow-list: %w", err)
	}
	defer rows.Close()

	var entries []*models.AllowlistEntry
	for rows.Next() {
		entry, err := scanAllowlistEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allow-list entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allow-list: %w", err)
	}
	return entries, nil
}

// UpsertAllowlistEntry inserts or updates an entry, keeping the original
// creation metadata of an existing row.
func (s *SQLiteStore) UpsertAllowlistEntry(ctx context.Context, entry *models.AllowlistEntry) error {
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allowlist (email_lower, role, active, label, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email_lower) DO UPDATE SET
			role = excluded.role,
			active = excluded.active,
			label = excluded.label,
			updated_at = excluded.updated_at
	`,
		entry.EmailLower, string(entry.Role), entry.Active, entry.Label,
		entry.CreatedBy, toUnix(entry.CreatedAt), toUnix(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert allow-list entry: %w", err)
	}
	return nil
}

// DeleteAllowlistEntry removes an entry. Deleting a missing entry is not an error.
func (s *SQLiteStore) DeleteAllowlistEntry(ctx context.Context, emailLower string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM allowlist WHERE email_lower = ?", emailLower); err != nil {
		return fmt.Errorf("failed to delete allow-list entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAllowlistEntry(row rowScanner) (*models.AllowlistEntry, error) {
	var (
		entry                models.AllowlistEntry
		role                 string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&entry.EmailLower, &role, &entry.Active, &entry.Label, &entry.CreatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	entry.Role = models.Role(role)
	entry.CreatedAt = fromUnix(createdAt)
	entry.UpdatedAt = fromUnix(updatedAt)
	return &entry, nil
}
