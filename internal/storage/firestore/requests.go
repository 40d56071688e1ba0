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

// ListMonths returns month summaries, newest month first.
func (s *Store) ListMonths(ctx context.Context, limit int) ([]*models.MonthSummary, error) {
	iter := s.client.Collection(colMonths).
		OrderBy("monthKey", firestore.Desc).
		Limit(clampLimit(limit, storage.DefaultMonthsLimit)).
		Documents(ctx)
	months, err := collect(iter, decodeMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to list months: %w", err)
	}
	return months, nil
}

// GetMonth reads months/{monthKey}.
func (s *Store) GetMonth(ctx context.Context, monthKey string) (*models.MonthSummary, error) {
	snap, err := s.client.Collection(colMonths).Doc(monthKey).Get(ctx)
	if err != nil {
		return nil, notFound(err, "month", monthKey, "get month")
	}
	return decodeMonth(snap)
}

// GetRequest reads requests/{id}.
func (s *Store) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	snap, err := s.client.Collection(colRequests).Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(err, "request", id, "get request")
	}
	return decodeRequest(snap)
}

// ListRequestsForMonth returns the month's requests, newest first.
func (s *Store) ListRequestsForMonth(ctx context.Context, monthKey string, limit int) ([]*models.Request, error) {
	iter := s.client.Collection(colRequests).
		Where("monthKey", "==", monthKey).
		OrderBy("createdAt", firestore.Desc).
		Limit(clampLimit(limit, storage.DefaultRequestsLimit)).
		Documents(ctx)
	requests, err := collect(iter, decodeRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

func (s *Store) updateRequest(ctx context.Context, id string, actor storage.Actor, updates ...firestore.Update) error {
	updates = append(updates,
		firestore.Update{Path: "updatedByUid", Value: actor.UID},
		firestore.Update{Path: "updatedByEmail", Value: actor.Email},
		firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp},
	)
	// Update fails with NotFound when the document does not exist.
	if _, err := s.client.Collection(colRequests).Doc(id).Update(ctx, updates); err != nil {
		return notFound(err, "request", id, "update request")
	}
	return nil
}

// UpdateRequestState sets the workflow state of a request.
func (s *Store) UpdateRequestState(ctx context.Context, id string, state models.RequestState, actor storage.Actor) error {
	return s.updateRequest(ctx, id, actor, firestore.Update{Path: "state", Value: string(state)})
}

// SaveEditorData replaces the editorData map.
func (s *Store) SaveEditorData(ctx context.Context, id string, data map[string]string, actor storage.Actor) error {
	if data == nil {
		data = map[string]string{}
	}
	return s.updateRequest(ctx, id, actor, firestore.Update{Path: "editorData", Value: data})
}

// AppendAttachment adds an attachment with arrayUnion.
func (s *Store) AppendAttachment(ctx context.Context, id string, a models.Attachment, actor storage.Actor) error {
	return s.updateRequest(ctx, id, actor, firestore.Update{
		Path:  "attachments",
		Value: firestore.ArrayUnion(encodeAttachment(a)),
	})
}

// CreateQueueRequest writes a new queueRequests document in QUEUED status.
func (s *Store) CreateQueueRequest(ctx context.Context, q *models.QueueRequest) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	q.Status = models.QueueQueued

	_, err := s.client.Collection(colQueue).Doc(q.ID).Create(ctx, queueDoc{
		MonthKey:       q.MonthKey,
		Description:    q.Description,
		AmountCzk:      q.AmountCzk.String(),
		Status:         string(q.Status),
		CreatedByUID:   q.CreatedByUID,
		CreatedByEmail: q.CreatedByEmail,
		CreatedAt:      q.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create queue request: %w", err)
	}
	return nil
}

// GetQueueRequest reads queueRequests/{id}.
func (s *Store) GetQueueRequest(ctx context.Context, id string) (*models.QueueRequest, error) {
	snap, err := s.client.Collection(colQueue).Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(err, "queue request", id, "get queue request")
	}
	return decodeQueue(snap)
}

// ListQueuedForMonth returns the month's QUEUED items, newest first.
func (s *Store) ListQueuedForMonth(ctx context.Context, monthKey string, limit int) ([]*models.QueueRequest, error) {
	iter := s.client.Collection(colQueue).
		Where("monthKey", "==", monthKey).
		Where("status", "==", string(models.QueueQueued)).
		OrderBy("createdAt", firestore.Desc).
		Limit(clampLimit(limit, storage.DefaultQueueLimit)).
		Documents(ctx)
	items, err := collect(iter, decodeQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	return items, nil
}
