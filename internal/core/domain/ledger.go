package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the settlement state of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment is an append-only record created as a side effect of an accept
// transition. Amount policy: batch quantity times the configured unit rate.
// Settlement happens out of band; records are immutable once COMPLETED.
type Payment struct {
	ID        uuid.UUID     `json:"id"`
	BatchID   uuid.UUID     `json:"batch_id"`
	Amount    int64         `json:"amount"`
	Status    PaymentStatus `json:"status"`
	PayerRole Role          `json:"payer_role"`
	PayeeRole Role          `json:"payee_role"`
	CreatedAt time.Time     `json:"created_at"`
}

// Shipment is the durable proof that a consumer took delivery of a batch.
// At most one exists per (batch, consumer) pair; it entitles that consumer
// to review the batch.
type Shipment struct {
	ID         uuid.UUID `json:"id"`
	BatchID    uuid.UUID `json:"batch_id"`
	ConsumerID uuid.UUID `json:"consumer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Review is a consumer's rating of a delivered batch. Requires a Shipment
// for the same (batch, consumer) pair; at most one per pair.
type Review struct {
	ID         uuid.UUID `json:"id"`
	BatchID    uuid.UUID `json:"batch_id"`
	ConsumerID uuid.UUID `json:"consumer_id"`
	Rating     int       `json:"rating"` // 1..5
	Title      string    `json:"title"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}
