package integration

import (
	"context"
	"fmt"
	"sync"

	"tracebloom/internal/core/domain"
	"tracebloom/internal/core/ports"
	"tracebloom/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Identity Repo ---

type inMemoryIdentityRepo struct {
	mu         sync.RWMutex
	identities map[uuid.UUID]*domain.Identity
}

func newInMemoryIdentityRepo() *inMemoryIdentityRepo {
	return &inMemoryIdentityRepo{identities: make(map[uuid.UUID]*domain.Identity)}
}

func (r *inMemoryIdentityRepo) Create(ctx context.Context, identity *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.identities {
		if existing.Email == identity.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *identity
	r.identities[identity.ID] = &cp
	return nil
}

func (r *inMemoryIdentityRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[id]
	if !ok {
		return nil, nil
	}
	cp := *identity
	return &cp, nil
}

func (r *inMemoryIdentityRepo) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, identity := range r.identities {
		if identity.Email == email {
			cp := *identity
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryIdentityRepo) GetByWallet(ctx context.Context, walletAddress string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, identity := range r.identities {
		if identity.WalletAddress != nil && *identity.WalletAddress == walletAddress {
			cp := *identity
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryIdentityRepo) BindWallet(ctx context.Context, id uuid.UUID, walletAddress string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[id]
	if !ok {
		return fmt.Errorf("identity not found")
	}
	identity.WalletAddress = &walletAddress
	return nil
}

// --- In-Memory Batch Repo ---

type inMemoryBatchRepo struct {
	mu      sync.RWMutex
	batches map[uuid.UUID]*domain.Batch
}

func newInMemoryBatchRepo() *inMemoryBatchRepo {
	return &inMemoryBatchRepo{batches: make(map[uuid.UUID]*domain.Batch)}
}

func (r *inMemoryBatchRepo) Create(ctx context.Context, tx pgx.Tx, batch *domain.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *batch
	r.batches[batch.ID] = &cp
	return nil
}

func (r *inMemoryBatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	batch, ok := r.batches[id]
	if !ok {
		return nil, nil
	}
	cp := *batch
	return &cp, nil
}

// UpdateStatus mirrors the SQL compare-and-swap: the write only lands if the
// batch is still at the expected source status.
func (r *inMemoryBatchRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.BatchStatus, custodianID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok || batch.Status != from {
		return false, nil
	}
	batch.Status = to
	batch.CustodianID = custodianID
	return true, nil
}

func (r *inMemoryBatchRepo) List(ctx context.Context, params ports.BatchListParams) ([]domain.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Batch, 0)
	for _, batch := range r.batches {
		if params.Status != nil && batch.Status != *params.Status {
			continue
		}
		if params.ProducerID != nil && batch.ProducerID != *params.ProducerID {
			continue
		}
		if params.CustodianID != nil && (batch.CustodianID == nil || *batch.CustodianID != *params.CustodianID) {
			continue
		}
		result = append(result, *batch)
	}
	return result, nil
}

// --- In-Memory Batch Event Repo ---

type inMemoryEventRepo struct {
	mu     sync.RWMutex
	events []domain.BatchEvent
}

func newInMemoryEventRepo() *inMemoryEventRepo {
	return &inMemoryEventRepo{}
}

func (r *inMemoryEventRepo) Create(ctx context.Context, tx pgx.Tx, event *domain.BatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *inMemoryEventRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.BatchEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.BatchEvent, 0)
	for _, event := range r.events {
		if event.BatchID == batchID {
			result = append(result, event)
		}
	}
	return result, nil
}

// --- In-Memory Payment Repo ---

type inMemoryPaymentRepo struct {
	mu       sync.RWMutex
	payments []domain.Payment
}

func newInMemoryPaymentRepo() *inMemoryPaymentRepo {
	return &inMemoryPaymentRepo{}
}

func (r *inMemoryPaymentRepo) Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, *payment)
	return nil
}

func (r *inMemoryPaymentRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Payment, 0)
	for _, payment := range r.payments {
		if payment.BatchID == batchID {
			result = append(result, payment)
		}
	}
	return result, nil
}

func (r *inMemoryPaymentRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Payment, 0)
	for _, payment := range r.payments {
		if payment.PayerRole == role || payment.PayeeRole == role {
			result = append(result, payment)
		}
	}
	return result, nil
}

// --- In-Memory Shipment Repo ---

type inMemoryShipmentRepo struct {
	mu        sync.RWMutex
	shipments []domain.Shipment
}

func newInMemoryShipmentRepo() *inMemoryShipmentRepo {
	return &inMemoryShipmentRepo{}
}

func (r *inMemoryShipmentRepo) Create(ctx context.Context, tx pgx.Tx, shipment *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.shipments {
		if existing.BatchID == shipment.BatchID && existing.ConsumerID == shipment.ConsumerID {
			return apperror.ErrDuplicateShipment()
		}
	}
	r.shipments = append(r.shipments, *shipment)
	return nil
}

func (r *inMemoryShipmentRepo) Exists(ctx context.Context, batchID, consumerID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, shipment := range r.shipments {
		if shipment.BatchID == batchID && shipment.ConsumerID == consumerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryShipmentRepo) ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]domain.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Shipment, 0)
	for _, shipment := range r.shipments {
		if shipment.ConsumerID == consumerID {
			result = append(result, shipment)
		}
	}
	return result, nil
}

// --- In-Memory Review Repo ---

type inMemoryReviewRepo struct {
	mu      sync.RWMutex
	reviews []domain.Review
}

func newInMemoryReviewRepo() *inMemoryReviewRepo {
	return &inMemoryReviewRepo{}
}

func (r *inMemoryReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.BatchID == review.BatchID && existing.ConsumerID == review.ConsumerID {
			return apperror.ErrDuplicateReview()
		}
	}
	r.reviews = append(r.reviews, *review)
	return nil
}

func (r *inMemoryReviewRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Review, 0)
	for _, review := range r.reviews {
		if review.BatchID == batchID {
			result = append(result, review)
		}
	}
	return result, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
