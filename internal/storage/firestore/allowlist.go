package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

// GetAllowlistEntry reads allowlist/{emailLower}.
func (s *Store) GetAllowlistEntry(ctx context.Context, emailLower string) (*models.AllowlistEntry, error) {
	snap, err := s.client.Collection(colAllowlist).Doc(emailLower).Get(ctx)
	if err != nil {
		return nil, notFound(err, "allow-list entry", emailLower, "get allow-list entry")
	}
	return decodeAllowlist(snap)
}

// ListAllowlist returns all entries ordered by document ID (the email).
func (s *Store) ListAllowlist(ctx context.Context) ([]*models.AllowlistEntry, error) {
	iter := s.client.Collection(colAllowlist).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	entries, err := collect(iter, decodeAllowlist)
	if err != nil {
		return nil, fmt.Errorf("failed to list allow-list: %w", err)
	}
	return entries, nil
}

// UpsertAllowlistEntry creates the entry or updates role, active flag and label
// of an existing one.
func (s *Store) UpsertAllowlistEntry(ctx context.Context, entry *models.AllowlistEntry) error {
	now := time.Now().UTC()
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}
	ref := s.client.Collection(colAllowlist).Doc(entry.EmailLower)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && !isNotFound(err) {
			return err
		}
		if snap != nil && snap.Exists() {
			existing, err := decodeAllowlist(snap)
			if err != nil {
				return err
			}
			entry.CreatedAt = existing.CreatedAt
			entry.CreatedBy = existing.CreatedBy
			return tx.Update(ref, []firestore.Update{
				{Path: "role", Value: string(entry.Role)},
				{Path: "active", Value: entry.Active},
				{Path: "label", Value: entry.Label},
				{Path: "updatedAt", Value: entry.UpdatedAt},
			})
		}

		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		return tx.Create(ref, allowlistDoc{
			Role:      string(entry.Role),
			Active:    entry.Active,
			Label:     entry.Label,
			CreatedBy: entry.CreatedBy,
			CreatedAt: entry.CreatedAt,
			UpdatedAt: entry.UpdatedAt,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to upsert allow-list entry: %w", err)
	}
	return nil
}

// DeleteAllowlistEntry removes allowlist/{emailLower}. Deleting a missing
// document succeeds.
func (s *Store) DeleteAllowlistEntry(ctx context.Context, emailLower string) error {
	if _, err := s.client.Collection(colAllowlist).Doc(emailLower).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete allow-list entry: %w", err)
	}
	return nil
}
