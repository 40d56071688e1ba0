package firestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/satnyp/spolek-rodicu/internal/models"
	"github.com/satnyp/spolek-rodicu/internal/storage"
	"github.com/satnyp/spolek-rodicu/internal/voucher"
)

// ApproveQueueRequest runs the approval in a Firestore transaction. All reads
// happen before the first write; Firestore retries the function on contention,
// so the counter value is never handed out twice.
func (s *Store) ApproveQueueRequest(ctx context.Context, in storage.ApprovalInput) (*models.Request, error) {
	// The variable symbol and counter year follow the caller's calendar day;
	// stored timestamps are UTC.
	local := in.Now
	if local.IsZero() {
		local = time.Now()
	}
	now := local.UTC()
	year := local.Year()

	queueRef := s.client.Collection(colQueue).Doc(in.QueueID)
	counterRef := s.client.Collection(colCounters).Doc(strconv.Itoa(year))

	var created *models.Request
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = nil

		// (a) read the queue item
		qSnap, err := tx.Get(queueRef)
		if err != nil {
			return notFound(err, "queue request", in.QueueID, "read queue request")
		}
		q, err := decodeQueue(qSnap)
		if err != nil {
			return err
		}
		if q.Status != models.QueueQueued {
			return fmt.Errorf("queue request %s is %s: %w", in.QueueID, q.Status, storage.ErrAlreadyReviewed)
		}

		// (b) read the counter; a missing counter starts at 1
		seq := int64(1)
		cSnap, err := tx.Get(counterRef)
		switch {
		case err == nil:
			var c counterDoc
			if err := cSnap.DataTo(&c); err != nil {
				return fmt.Errorf("failed to decode counter: %w", err)
			}
			if c.NextSeq > 0 {
				seq = c.NextSeq
			}
		case !isNotFound(err):
			return fmt.Errorf("failed to read counter: %w", err)
		}

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

		// (c) advance the counter
		if err := tx.Set(counterRef, counterDoc{Year: year, NextSeq: seq + 1}); err != nil {
			return err
		}
		// (d) create the numbered request
		if err := tx.Create(s.client.Collection(colRequests).Doc(req.ID), encodeRequest(req)); err != nil {
			return err
		}
		// (e) mark the queue item approved
		if err := tx.Update(queueRef, []firestore.Update{
			{Path: "status", Value: string(models.QueueApproved)},
			{Path: "reviewedByEmail", Value: in.ActorEmail},
			{Path: "reviewedAt", Value: now},
		}); err != nil {
			return err
		}
		// (f) upsert the month summary
		if err := tx.Set(s.client.Collection(colMonths).Doc(q.MonthKey), map[string]any{
			"monthKey":  q.MonthKey,
			"label":     voucher.MonthLabel(q.MonthKey),
			"updatedAt": firestore.ServerTimestamp,
			"counts": map[string]any{
				models.CountTotal:       firestore.Increment(1),
				string(models.StateNew): firestore.Increment(1),
			},
		}, firestore.MergeAll); err != nil {
			return err
		}
		// (g) audit
		audit := &models.AuditEntry{
			TS:         now,
			ActorUID:   in.ActorUID,
			ActorEmail: in.ActorEmail,
			Action:     models.ActionApproveQueue,
			TargetType: models.TargetQueue,
			TargetID:   in.QueueID,
			Diff:       map[string]any{"requestId": req.ID, "vs": req.VS},
		}
		if err := tx.Create(s.client.Collection(colAudit).Doc(uuid.New().String()), encodeAudit(audit)); err != nil {
			return err
		}

		created = req
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrAlreadyReviewed) {
			return nil, err
		}
		return nil, fmt.Errorf("approval transaction failed: %w", err)
	}
	return created, nil
}

// RejectQueueRequest marks a QUEUED item REJECTED and records an audit entry.
func (s *Store) RejectQueueRequest(ctx context.Context, id string, actor storage.Actor, now time.Time) error {
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	queueRef := s.client.Collection(colQueue).Doc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(queueRef)
		if err != nil {
			return notFound(err, "queue request", id, "read queue request")
		}
		q, err := decodeQueue(snap)
		if err != nil {
			return err
		}
		if q.Status != models.QueueQueued {
			return fmt.Errorf("queue request %s is %s: %w", id, q.Status, storage.ErrAlreadyReviewed)
		}

		if err := tx.Update(queueRef, []firestore.Update{
			{Path: "status", Value: string(models.QueueRejected)},
			{Path: "reviewedByEmail", Value: actor.Email},
			{Path: "reviewedAt", Value: now},
		}); err != nil {
			return err
		}
		return tx.Create(s.client.Collection(colAudit).Doc(uuid.New().String()), encodeAudit(&models.AuditEntry{
			TS:         now,
			ActorUID:   actor.UID,
			ActorEmail: actor.Email,
			Action:     models.ActionRejectQueue,
			TargetType: models.TargetQueue,
			TargetID:   id,
		}))
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrAlreadyReviewed) {
			return err
		}
		return fmt.Errorf("reject transaction failed: %w", err)
	}
	return nil
}
