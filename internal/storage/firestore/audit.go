package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
)

// AppendAudit writes a new audit document.
func (s *Store) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.TS.IsZero() {
		entry.TS = time.Now().UTC()
	}
	if _, err := s.client.Collection(colAudit).Doc(entry.ID).Create(ctx, encodeAudit(entry)); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns the newest audit entries first.
func (s *Store) ListAudit(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	iter := s.client.Collection(colAudit).
		OrderBy("ts", firestore.Desc).
		Limit(clampLimit(limit, 100)).
		Documents(ctx)
	entries, err := collect(iter, decodeAudit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit: %w", err)
	}
	return entries, nil
}

// PutOAuthState stores a pending PKCE verifier under oauthStates/{state}.
func (s *Store) PutOAuthState(ctx context.Context, st *models.OAuthState) error {
	createdAt := st.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.client.Collection(colOAuthStates).Doc(st.State).Create(ctx, oauthStateDoc{
		Verifier:  st.Verifier,
		CreatedAt: createdAt,
		ExpiresAt: st.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

// TakeOAuthState reads and deletes the state in one transaction.
func (s *Store) TakeOAuthState(ctx context.Context, state string, now time.Time) (*models.OAuthState, error) {
	ref := s.client.Collection(colOAuthStates).Doc(state)

	var taken *models.OAuthState
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		taken = nil
		snap, err := tx.Get(ref)
		if err != nil {
			return notFound(err, "oauth state", state, "read oauth state")
		}
		var d oauthStateDoc
		if err := snap.DataTo(&d); err != nil {
			return fmt.Errorf("failed to decode oauth state: %w", err)
		}
		taken = &models.OAuthState{
			State:     state,
			Verifier:  d.Verifier,
			CreatedAt: d.CreatedAt,
			ExpiresAt: d.ExpiresAt,
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return nil, err
	}
	if !now.Before(taken.ExpiresAt) {
		return nil, fmt.Errorf("oauth state expired: %w", storage.ErrNotFound)
	}
	return taken, nil
}

// PurgeExpiredOAuthStates deletes states whose expiry is not after now.
func (s *Store) PurgeExpiredOAuthStates(ctx context.Context, now time.Time) (int64, error) {
	iter := s.client.Collection(colOAuthStates).Where("expiresAt", "<=", now).Documents(ctx)
	refs, err := collect(iter, func(snap *firestore.DocumentSnapshot) (*firestore.DocumentRef, error) {
		return snap.Ref, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query expired oauth states: %w", err)
	}
	if len(refs) == 0 {
		return 0, nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("failed to enqueue oauth state delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var deleted int64
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return deleted, fmt.Errorf("failed to delete oauth state: %w", err)
		}
		deleted++
	}
	return deleted, nil
}
