// Package firestore provides a Cloud Firestore implementation of the storage.Store interface.
// Collection layout matches the hosted application so both can share a project.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/satnyp/spolek-rodicu/internal/storage"
)

// Collection names.
const (
	colAllowlist   = "allowlist"
	colMonths      = "months"
	colRequests    = "requests"
	colQueue       = "queueRequests"
	colCounters    = "counters"
	colAudit       = "audit"
	colOAuthStates = "oauthStates"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on top of a Firestore client.
type Store struct {
	client *firestore.Client
}

// New connects to the given project. When FIRESTORE_EMULATOR_HOST is set the
// client talks to the emulator without credentials.
func New(ctx context.Context, projectID string, opts ...option.ClientOption) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// notFound turns a gRPC NotFound into storage.ErrNotFound and wraps anything else.
func notFound(err error, kind, id, op string) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// collect drains a document iterator, decoding each snapshot with decode.
func collect[T any](iter *firestore.DocumentIterator, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		item, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
