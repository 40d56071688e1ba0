package api

import "github.com/shopspring/decimal"

type ListMonthsRequest struct {
	Limit int `json:"limit,omitempty" validate:"min=0,max=120"`
}

type ListMonthsResponse struct {
	Months []Month `json:"months"`
}

type ListRequestsRequest struct {
	MonthKey string `json:"monthKey" validate:"required,monthkey"`

	// State filters by workflow state; empty or ALL matches everything.
	State string `json:"state,omitempty" validate:"omitempty,oneof=ALL NEW PAID HAS_INVOICES HANDED_TO_ACCOUNTANT"`

	// Description filters by case-insensitive substring.
	Description string `json:"description,omitempty"`
	Limit       int    `json:"limit,omitempty" validate:"min=0,max=1000"`
}

type ListRequestsResponse struct {
	Requests []Request `json:"requests"`
}

type ListQueueRequest struct {
	MonthKey string `json:"monthKey" validate:"required,monthkey"`
	Limit    int    `json:"limit,omitempty" validate:"min=0,max=200"`
}

type ListQueueResponse struct {
	Items []QueueItem `json:"items"`
}

type GetRequestRequest struct {
	ID string `json:"id" validate:"required"`
}

type GetRequestResponse struct {
	Request Request `json:"request"`
}

type CreateQueueRequestRequest struct {
	MonthKey    string          `json:"monthKey" validate:"required,monthkey"`
	Description string          `json:"description" validate:"required,notblank,max=500"`
	AmountCzk   decimal.Decimal `json:"amountCzk" validate:"gt=0"`
}

type CreateQueueRequestResponse struct {
	Item QueueItem `json:"item"`
}

type ApproveQueueRequestRequest struct {
	QueueID string `json:"queueId" validate:"required"`
}

type ApproveQueueRequestResponse struct {
	RequestID string `json:"requestId"`
	VS        string `json:"vs"`
	SeqNum    int64  `json:"seqNum"`
}

type RejectQueueRequestRequest struct {
	QueueID string `json:"queueId" validate:"required"`
}

type RejectQueueRequestResponse struct{}

type UpdateRequestStateRequest struct {
	ID    string `json:"id" validate:"required"`
	State string `json:"state" validate:"required,oneof=NEW PAID HAS_INVOICES HANDED_TO_ACCOUNTANT"`
}

type UpdateRequestStateResponse struct{}

type SaveEditorDataRequest struct {
	ID         string            `json:"id" validate:"required"`
	EditorData map[string]string `json:"editorData"`
}

type SaveEditorDataResponse struct{}

type UploadAttachmentRequest struct {
	RequestID   string `json:"requestId" validate:"required"`
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required"`
	Kind        string `json:"kind,omitempty" validate:"omitempty,oneof=invoice other"`

	// Data is base64 encoded on the wire.
	Data []byte `json:"data" validate:"required,min=1"`
}

type UploadAttachmentResponse struct {
	Attachment    Attachment `json:"attachment"`
	OriginalBytes int64      `json:"originalBytes"`

	// Warning is set when an image stayed above the size target.
	Warning string `json:"warning,omitempty"`
}

type ExportRequestPDFRequest struct {
	ID string `json:"id" validate:"required"`
}

type ExportRequestPDFResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

type WatchMonthsRequest struct {
	Limit int `json:"limit,omitempty" validate:"min=0,max=120"`
}

type WatchMonthsResponse struct {
	Months []Month `json:"months"`
}

type WatchRequestsRequest struct {
	MonthKey string `json:"monthKey" validate:"required,monthkey"`
	Limit    int    `json:"limit,omitempty" validate:"min=0,max=1000"`
}

type WatchRequestsResponse struct {
	Requests []Request `json:"requests"`
}

type WatchQueueRequest struct {
	MonthKey string `json:"monthKey" validate:"required,monthkey"`
	Limit    int    `json:"limit,omitempty" validate:"min=0,max=200"`
}

type WatchQueueResponse struct {
	Items []QueueItem `json:"items"`
}

type SendBulkMailRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,dive,required"`
	Subject    string   `json:"subject,omitempty"`
	Body       string   `json:"body,omitempty"`
	RequestIDs []string `json:"requestIds,omitempty"`
	MonthKey   string   `json:"monthKey,omitempty"`
}

type SendBulkMailResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body,omitempty"`
}
