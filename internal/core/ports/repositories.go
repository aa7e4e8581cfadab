package ports

import (
	"context"

	"tracebloom/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdentityRepository defines persistence operations for identities.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetByWallet(ctx context.Context, walletAddress string) (*domain.Identity, error)
	// BindWallet attaches a wallet address to an identity. The address is
	// immutable once set; callers check for conflicts before binding.
	BindWallet(ctx context.Context, id uuid.UUID, walletAddress string) error
}

// BatchRepository defines persistence operations for batches.
// Methods accepting pgx.Tx run inside the transition's transaction.
type BatchRepository interface {
	Create(ctx context.Context, tx pgx.Tx, batch *domain.Batch) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Batch, error)
	// UpdateStatus is a compare-and-swap: the write succeeds only if the
	// batch is still at status from. Returns false when zero rows matched,
	// meaning a concurrent transition won.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.BatchStatus, custodianID *uuid.UUID) (bool, error)
	List(ctx context.Context, params BatchListParams) ([]domain.Batch, error)
}

// BatchListParams holds filters for listing batches. Nil fields are ignored.
type BatchListParams struct {
	Status      *domain.BatchStatus
	ProducerID  *uuid.UUID
	CustodianID *uuid.UUID
}

// BatchEventRepository defines persistence for batch status history.
type BatchEventRepository interface {
	Create(ctx context.Context, tx pgx.Tx, event *domain.BatchEvent) error
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.BatchEvent, error)
}

// PaymentRepository defines persistence for payment records.
type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.Payment, error)
	// ListByRole returns payments where the role is payer or payee.
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Payment, error)
}

// ShipmentRepository defines persistence for shipment records.
type ShipmentRepository interface {
	// Create fails with apperror.ErrDuplicateShipment when a shipment
	// already exists for the (batch, consumer) pair.
	Create(ctx context.Context, tx pgx.Tx, shipment *domain.Shipment) error
	Exists(ctx context.Context, batchID, consumerID uuid.UUID) (bool, error)
	ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]domain.Shipment, error)
}

// ReviewRepository defines persistence for review records.
type ReviewRepository interface {
	// Create fails with apperror.ErrDuplicateReview when a review already
	// exists for the (batch, consumer) pair.
	Create(ctx context.Context, review *domain.Review) error
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.Review, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
