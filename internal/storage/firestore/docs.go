package firestore

import (
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

// Document shapes. Amounts are stored as decimal strings so no precision is
// lost to float64.

type allowlistDoc struct {
	Role      string    `firestore:"role"`
	Active    bool      `firestore:"active"`
	Label     string    `firestore:"label,omitempty"`
	CreatedBy string    `firestore:"createdBy,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type monthDoc struct {
	MonthKey  string           `firestore:"monthKey"`
	Label     string           `firestore:"label"`
	Counts    map[string]int64 `firestore:"counts"`
	UpdatedAt time.Time        `firestore:"updatedAt"`
}

type attachmentDoc struct {
	StoragePath     string    `firestore:"storagePath"`
	Filename        string    `firestore:"filename"`
	Mime            string    `firestore:"mime"`
	SizeBytes       int64     `firestore:"sizeBytes"`
	UploadedByUID   string    `firestore:"uploadedByUid"`
	UploadedByEmail string    `firestore:"uploadedByEmail"`
	UploadedAt      time.Time `firestore:"uploadedAt"`
	Kind            string    `firestore:"kind"`
	DownloadURL     string    `firestore:"downloadURL"`
}

type requestDoc struct {
	MonthKey       string            `firestore:"monthKey"`
	Description    string            `firestore:"description"`
	AmountCzk      string            `firestore:"amountCzk"`
	State          string            `firestore:"state"`
	VS             string            `firestore:"vs"`
	SeqYear        int               `firestore:"seqYear"`
	SeqNum         int64             `firestore:"seqNum"`
	EditorData     map[string]string `firestore:"editorData"`
	Attachments    []attachmentDoc   `firestore:"attachments"`
	CreatedByUID   string            `firestore:"createdByUid"`
	CreatedByEmail string            `firestore:"createdByEmail"`
	UpdatedByUID   string            `firestore:"updatedByUid"`
	UpdatedByEmail string            `firestore:"updatedByEmail"`
	CreatedAt      time.Time         `firestore:"createdAt"`
	UpdatedAt      time.Time         `firestore:"updatedAt"`
}

type queueDoc struct {
	MonthKey        string     `firestore:"monthKey"`
	Description     string     `firestore:"description"`
	AmountCzk       string     `firestore:"amountCzk"`
	Status          string     `firestore:"status"`
	CreatedByUID    string     `firestore:"createdByUid"`
	CreatedByEmail  string     `firestore:"createdByEmail"`
	CreatedAt       time.Time  `firestore:"createdAt"`
	ReviewedByEmail string     `firestore:"reviewedByEmail,omitempty"`
	ReviewedAt      *time.Time `firestore:"reviewedAt,omitempty"`
}

type counterDoc struct {
	Year    int   `firestore:"year"`
	NextSeq int64 `firestore:"nextSeq"`
}

type auditDoc struct {
	TS         time.Time      `firestore:"ts"`
	ActorUID   string         `firestore:"actorUid"`
	ActorEmail string         `firestore:"actorEmail"`
	Action     string         `firestore:"action"`
	TargetType string         `firestore:"targetType"`
	TargetID   string         `firestore:"targetId"`
	Diff       map[string]any `firestore:"diff,omitempty"`
}

type oauthStateDoc struct {
	Verifier  string    `firestore:"verifier"`
	CreatedAt time.Time `firestore:"createdAt"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

func decodeAllowlist(snap *firestore.DocumentSnapshot) (*models.AllowlistEntry, error) {
	var d allowlistDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode allow-list entry %s: %w", snap.Ref.ID, err)
	}
	return &models.AllowlistEntry{
		EmailLower: snap.Ref.ID,
		Role:       models.Role(d.Role),
		Active:     d.Active,
		Label:      d.Label,
		CreatedBy:  d.CreatedBy,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

func decodeMonth(snap *firestore.DocumentSnapshot) (*models.MonthSummary, error) {
	var d monthDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode month %s: %w", snap.Ref.ID, err)
	}
	if d.Counts == nil {
		d.Counts = map[string]int64{}
	}
	return &models.MonthSummary{
		MonthKey:  snap.Ref.ID,
		Label:     d.Label,
		Counts:    d.Counts,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func encodeRequest(r *models.Request) requestDoc {
	d := requestDoc{
		MonthKey:       r.MonthKey,
		Description:    r.Description,
		AmountCzk:      r.AmountCzk.String(),
		State:          string(r.State),
		VS:             r.VS,
		SeqYear:        r.SeqYear,
		SeqNum:         r.SeqNum,
		EditorData:     r.EditorData,
		Attachments:    []attachmentDoc{},
		CreatedByUID:   r.CreatedByUID,
		CreatedByEmail: r.CreatedByEmail,
		UpdatedByUID:   r.UpdatedByUID,
		UpdatedByEmail: r.UpdatedByEmail,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if d.EditorData == nil {
		d.EditorData = map[string]string{}
	}
	for _, a := range r.Attachments {
		d.Attachments = append(d.Attachments, encodeAttachment(a))
	}
	return d
}

func encodeAttachment(a models.Attachment) attachmentDoc {
	return attachmentDoc{
		StoragePath:     a.StoragePath,
		Filename:        a.Filename,
		Mime:            a.Mime,
		SizeBytes:       a.SizeBytes,
		UploadedByUID:   a.UploadedByUID,
		UploadedByEmail: a.UploadedByEmail,
		UploadedAt:      a.UploadedAt,
		Kind:            a.Kind,
		DownloadURL:     a.DownloadURL,
	}
}

func decodeRequest(snap *firestore.DocumentSnapshot) (*models.Request, error) {
	var d requestDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode request %s: %w", snap.Ref.ID, err)
	}
	amount, err := decimal.NewFromString(d.AmountCzk)
	if err != nil {
		return nil, fmt.Errorf("invalid amount on request %s: %w", snap.Ref.ID, err)
	}
	r := &models.Request{
		ID:             snap.Ref.ID,
		MonthKey:       d.MonthKey,
		Description:    d.Description,
		AmountCzk:      amount,
		State:          models.RequestState(d.State),
		VS:             d.VS,
		SeqYear:        d.SeqYear,
		SeqNum:         d.SeqNum,
		EditorData:     d.EditorData,
		CreatedByUID:   d.CreatedByUID,
		CreatedByEmail: d.CreatedByEmail,
		UpdatedByUID:   d.UpdatedByUID,
		UpdatedByEmail: d.UpdatedByEmail,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	for _, a := range d.Attachments {
		r.Attachments = append(r.Attachments, models.Attachment{
			StoragePath:     a.StoragePath,
			Filename:        a.Filename,
			Mime:            a.Mime,
			SizeBytes:       a.SizeBytes,
			UploadedByUID:   a.UploadedByUID,
			UploadedByEmail: a.UploadedByEmail,
			UploadedAt:      a.UploadedAt,
			Kind:            a.Kind,
			DownloadURL:     a.DownloadURL,
		})
	}
	return r, nil
}

func decodeQueue(snap *firestore.DocumentSnapshot) (*models.QueueRequest, error) {
	var d queueDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode queue request %s: %w", snap.Ref.ID, err)
	}
	amount, err := decimal.NewFromString(d.AmountCzk)
	if err != nil {
		return nil, fmt.Errorf("invalid amount on queue request %s: %w", snap.Ref.ID, err)
	}
	return &models.QueueRequest{
		ID:              snap.Ref.ID,
		MonthKey:        d.MonthKey,
		Description:     d.Description,
		AmountCzk:       amount,
		Status:          models.QueueStatus(d.Status),
		CreatedByUID:    d.CreatedByUID,
		CreatedByEmail:  d.CreatedByEmail,
		CreatedAt:       d.CreatedAt,
		ReviewedByEmail: d.ReviewedByEmail,
		ReviewedAt:      d.ReviewedAt,
	}, nil
}

func decodeAudit(snap *firestore.DocumentSnapshot) (*models.AuditEntry, error) {
	var d auditDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode audit entry %s: %w", snap.Ref.ID, err)
	}
	return &models.AuditEntry{
		ID:         snap.Ref.ID,
		TS:         d.TS,
		ActorUID:   d.ActorUID,
		ActorEmail: d.ActorEmail,
		Action:     d.Action,
		TargetType: d.TargetType,
		TargetID:   d.TargetID,
		Diff:       d.Diff,
	}, nil
}

func encodeAudit(e *models.AuditEntry) auditDoc {
	return auditDoc{
		TS:         e.TS,
		ActorUID:   e.ActorUID,
		ActorEmail: e.ActorEmail,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Diff:       e.Diff,
	}
}
