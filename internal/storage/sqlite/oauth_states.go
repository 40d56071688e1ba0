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

// PutOAuthState stores a pending PKCE verifier.
func (s *SQLiteStore) PutOAuthState(ctx context.Context, st *models.OAuthState) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO oauth_states (state, verifier, created_at, expires_at) VALUES (?, ?, ?, ?)",
		st.State, st.Verifier, toUnix(nowIfZero(st.CreatedAt)), toUnix(st.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

// TakeOAuthState deletes the state and returns it if it had not expired.
func (s *SQLiteStore) TakeOAuthState(ctx context.Context, state string, now time.Time) (*models.OAuthState, error) {
	var (
		st                   models.OAuthState
		createdAt, expiresAt int64
	)
	// DELETE ... RETURNING makes read and removal a single statement.
	err := s.db.QueryRowContext(ctx,
		"DELETE FROM oauth_states WHERE state = ? RETURNING state, verifier, created_at, expires_at", state,
	).Scan(&st.State, &st.Verifier, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("oauth state: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take oauth state: %w", err)
	}
	st.CreatedAt = fromUnix(createdAt)
	st.ExpiresAt = fromUnix(expiresAt)
	if !now.Before(st.ExpiresAt) {
		return nil, fmt.Errorf("oauth state expired: %w", storage.ErrNotFound)
	}
	return &st, nil
}

// PurgeExpiredOAuthStates deletes states that expired before now.
func (s *SQLiteStore) PurgeExpiredOAuthStates(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM oauth_states WHERE expires_at <= ?", toUnix(now))
	if err != nil {
		return 0, fmt.Errorf("failed to purge oauth states: %w", err)
	}
	return res.RowsAffected()
}
