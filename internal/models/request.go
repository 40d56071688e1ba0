package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request is an approved expense request. It is only ever created by approving
// a QueueRequest and carries the year sequence assigned at that moment.
type Request struct {
	ID          string          `json:"id"`
	MonthKey    string          `json:"monthKey"`
	Description string          `json:"description"`
	AmountCzk   decimal.Decimal `json:"amountCzk"`
	State       RequestState    `json:"state"`

	// VS is the variable symbol: DDMMYYYY followed by SeqNum.
	VS      string `json:"vs"`
	SeqYear int    `json:"seqYear"`
	SeqNum  int64  `json:"seqNum"`

	// EditorData is free-form text keyed by form field name. No schema.
	EditorData  map[string]string `json:"editorData,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`

	CreatedByUID   string    `json:"createdByUid,omitempty"`
	CreatedByEmail string    `json:"createdByEmail,omitempty"`
	UpdatedByUID   string    `json:"updatedByUid,omitempty"`
	UpdatedByEmail string    `json:"updatedByEmail,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Attachment kinds.
const (
	AttachmentInvoice = "invoice"
	AttachmentOther   = "other"
)

// Attachment is a file stored in object storage and linked to a request.
type Attachment struct {
	StoragePath     string    `json:"storagePath"`
	Filename        string    `json:"filename"`
	Mime            string    `json:"mime"`
	SizeBytes       int64     `json:"sizeBytes"`
	UploadedByUID   string    `json:"uploadedByUid,omitempty"`
	UploadedByEmail string    `json:"uploadedByEmail,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
	Kind            string    `json:"kind"`
	DownloadURL     string    `json:"downloadURL,omitempty"`
}
