package domain

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus represents the lifecycle state of a batch.
type BatchStatus string

const (
	BatchStatusRegistered BatchStatus = "REGISTERED"
	BatchStatusInTransit  BatchStatus = "IN_TRANSIT"
	BatchStatusDelivered  BatchStatus = "DELIVERED"
	BatchStatusRejected   BatchStatus = "REJECTED"
	BatchStatusConsumed   BatchStatus = "CONSUMED"
)

// IsTerminal returns true if no further transitions are accepted from s.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusRejected || s == BatchStatusConsumed
}

// BatchAction is a role-gated operation on a batch's lifecycle.
type BatchAction string

const (
	BatchActionRegister BatchAction = "register"
	BatchActionAccept   BatchAction = "accept"
	BatchActionReject   BatchAction = "reject"
	BatchActionConsume  BatchAction = "consume"
)

// Transition is one edge of the lifecycle state machine.
type Transition struct {
	From BatchStatus
	To   BatchStatus
	Role Role
}

// transitions is the single role-gated transition table. Every mutating
// batch operation consults it exactly once.
var transitions = map[BatchAction][]Transition{
	BatchActionAccept: {
		{From: BatchStatusRegistered, To: BatchStatusInTransit, Role: RoleIntermediary},
		{From: BatchStatusInTransit, To: BatchStatusDelivered, Role: RoleConsumer},
	},
	BatchActionReject: {
		{From: BatchStatusRegistered, To: BatchStatusRejected, Role: RoleIntermediary},
		{From: BatchStatusInTransit, To: BatchStatusRejected, Role: RoleConsumer},
	},
	BatchActionConsume: {
		{From: BatchStatusDelivered, To: BatchStatusConsumed, Role: RoleConsumer},
	},
}

// TransitionFor returns the transition edge for (action, role).
// ok is false when the role has no edge for the action at all, which callers
// report as a role mismatch. A returned edge whose From does not match the
// batch's current status means the batch has already moved on.
func TransitionFor(action BatchAction, role Role) (Transition, bool) {
	for _, tr := range transitions[action] {
		if tr.Role == role {
			return tr, true
		}
	}
	return Transition{}, false
}

// Batch represents a physical goods batch handed down the supply chain.
// Batches are never deleted; status history is appended as BatchEvents.
type Batch struct {
	ID             uuid.UUID   `json:"id"`
	ProducerID     uuid.UUID   `json:"producer_id"`
	CropType       string      `json:"crop_type"`
	Quantity       int64       `json:"quantity"` // In kilograms
	HarvestDate    time.Time   `json:"harvest_date"`
	Location       string      `json:"location"`
	Description    *string     `json:"description,omitempty"`
	ImageRef       *string     `json:"image_ref,omitempty"`
	FarmerName     string      `json:"farmer_name"`
	FarmerPhoneEnc string      `json:"-"` // AES-256 encrypted, never expose raw
	Status         BatchStatus `json:"status"`
	CustodianID    *uuid.UUID  `json:"custodian_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// BatchEvent is one appended entry of a batch's status history.
type BatchEvent struct {
	ID         uuid.UUID   `json:"id"`
	BatchID    uuid.UUID   `json:"batch_id"`
	FromStatus BatchStatus `json:"from_status"`
	ToStatus   BatchStatus `json:"to_status"`
	Action     BatchAction `json:"action"`
	ActorID    *uuid.UUID  `json:"actor_id,omitempty"`
	ActorRole  Role        `json:"actor_role"`
	CreatedAt  time.Time   `json:"created_at"`
}
