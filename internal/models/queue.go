package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QueueRequest is a pending expense request submitted by a requester.
// It becomes terminal once approved or rejected.
type QueueRequest struct {
	ID          string          `json:"id"`
	MonthKey    string          `json:"monthKey"`
	Description string          `json:"description"`
	AmountCzk   decimal.Decimal `json:"amountCzk"`
	Status      QueueStatus     `json:"status"`

	CreatedByUID   string    `json:"createdByUid,omitempty"`
	CreatedByEmail string    `json:"createdByEmail,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`

	ReviewedByEmail string     `json:"reviewedByEmail,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
}
