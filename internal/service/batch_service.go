package service

import (
	"context"
	"fmt"
	"time"

	"tracebloom/internal/core/domain"
	"tracebloom/internal/core/ports"
	"tracebloom/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BatchServiceImpl implements ports.BatchService: the lifecycle state
// machine with role-gated, compare-and-swap transitions. Payment, shipment,
// and event records created by a transition share its DB transaction, so a
// failed transition leaves no partial state.
type BatchServiceImpl struct {
	batchRepo    ports.BatchRepository
	eventRepo    ports.BatchEventRepository
	paymentRepo  ports.PaymentRepository
	shipmentRepo ports.ShipmentRepository
	encSvc       ports.EncryptionService
	transactor   ports.DBTransactor
	unitRate     int64
	log          zerolog.Logger
}

// NewBatchService creates a new BatchServiceImpl.
func NewBatchService(
	batchRepo ports.BatchRepository,
	eventRepo ports.BatchEventRepository,
	paymentRepo ports.PaymentRepository,
	shipmentRepo ports.ShipmentRepository,
	encSvc ports.EncryptionService,
	transactor ports.DBTransactor,
	unitRate int64,
	log zerolog.Logger,
) *BatchServiceImpl {
	return &BatchServiceImpl{
		batchRepo:    batchRepo,
		eventRepo:    eventRepo,
		paymentRepo:  paymentRepo,
		shipmentRepo: shipmentRepo,
		encSvc:       encSvc,
		transactor:   transactor,
		unitRate:     unitRate,
		log:          log,
	}
}

// Register creates a new batch at REGISTERED with the producer as custodian.
func (s *BatchServiceImpl) Register(ctx context.Context, req ports.RegisterBatchRequest) (*domain.Batch, error) {
	if req.Quantity <= 0 {
		return nil, apperror.Validation("quantity must be positive")
	}
	if req.CropType == "" || req.Location == "" || req.FarmerName == "" {
		return nil, apperror.Validation("crop_type, location and farmer_name are required")
	}

	phoneEnc, err := s.encSvc.Encrypt(req.FarmerPhone)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt farmer phone: %w", err))
	}

	now := time.Now().UTC()
	producerID := req.ProducerID
	batch := &domain.Batch{
		ID:             uuid.New(),
		ProducerID:     producerID,
		CropType:       req.CropType,
		Quantity:       req.Quantity,
		HarvestDate:    req.HarvestDate,
		Location:       req.Location,
		Description:    req.Description,
		ImageRef:       req.ImageRef,
		FarmerName:     req.FarmerName,
		FarmerPhoneEnc: phoneEnc,
		Status:         domain.BatchStatusRegistered,
		CustodianID:    &producerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.batchRepo.Create(ctx, dbTx, batch); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create batch: %w", err))
	}

	event := &domain.BatchEvent{
		ID:         uuid.New(),
		BatchID:    batch.ID,
		FromStatus: domain.BatchStatusRegistered,
		ToStatus:   domain.BatchStatusRegistered,
		Action:     domain.BatchActionRegister,
		ActorID:    &producerID,
		ActorRole:  domain.RoleProducer,
		CreatedAt:  now,
	}
	if err := s.eventRepo.Create(ctx, dbTx, event); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create event: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("batch_id", batch.ID.String()).
		Str("producer_id", producerID.String()).
		Int64("quantity", batch.Quantity).
		Msg("batch registered")

	return batch, nil
}

// Accept advances a batch along its accept edge for the actor's role.
func (s *BatchServiceImpl) Accept(ctx context.Context, batchID, actorID uuid.UUID, actorRole domain.Role) (*domain.Batch, error) {
	return s.transition(ctx, batchID, actorID, actorRole, domain.BatchActionAccept)
}

// Reject moves a batch to the terminal REJECTED state and clears custody.
func (s *BatchServiceImpl) Reject(ctx context.Context, batchID, actorID uuid.UUID, actorRole domain.Role) (*domain.Batch, error) {
	return s.transition(ctx, batchID, actorID, actorRole, domain.BatchActionReject)
}

// Consume marks a delivered batch as consumed by its current custodian.
func (s *BatchServiceImpl) Consume(ctx context.Context, batchID, actorID uuid.UUID, actorRole domain.Role) (*domain.Batch, error) {
	return s.transition(ctx, batchID, actorID, actorRole, domain.BatchActionConsume)
}

// transition is the single path every lifecycle mutation goes through.
// Guard order: unknown batch, then role without an edge, then wrong source
// status. The status write is a compare-and-swap; a concurrent loser gets
// AlreadyTransitioned, never a silent overwrite.
func (s *BatchServiceImpl) transition(ctx context.Context, batchID, actorID uuid.UUID, actorRole domain.Role, action domain.BatchAction) (*domain.Batch, error) {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find batch: %w", err))
	}
	if batch == nil {
		return nil, apperror.ErrBatchNotFound()
	}

	tr, ok := domain.TransitionFor(action, actorRole)
	if !ok {
		return nil, apperror.ErrRoleMismatch()
	}
	if batch.Status != tr.From {
		return nil, apperror.ErrAlreadyTransitioned()
	}

	// Consumption is restricted to the identity that took delivery.
	if action == domain.BatchActionConsume {
		if batch.CustodianID == nil || *batch.CustodianID != actorID {
			return nil, apperror.ErrRoleMismatch()
		}
	}

	var custodianID *uuid.UUID
	if tr.To != domain.BatchStatusRejected {
		custodianID = &actorID
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	swapped, err := s.batchRepo.UpdateStatus(ctx, dbTx, batchID, tr.From, tr.To, custodianID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update status: %w", err))
	}
	if !swapped {
		return nil, apperror.ErrAlreadyTransitioned()
	}

	now := time.Now().UTC()
	event := &domain.BatchEvent{
		ID:         uuid.New(),
		BatchID:    batchID,
		FromStatus: tr.From,
		ToStatus:   tr.To,
		Action:     action,
		ActorID:    &actorID,
		ActorRole:  actorRole,
		CreatedAt:  now,
	}
	if err := s.eventRepo.Create(ctx, dbTx, event); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create event: %w", err))
	}

	if action == domain.BatchActionAccept {
		if tr.To == domain.BatchStatusDelivered {
			shipment := &domain.Shipment{
				ID:         uuid.New(),
				BatchID:    batchID,
				ConsumerID: actorID,
				CreatedAt:  now,
			}
			if err := s.shipmentRepo.Create(ctx, dbTx, shipment); err != nil {
				return nil, err
			}
		}

		payment := &domain.Payment{
			ID:        uuid.New(),
			BatchID:   batchID,
			Amount:    batch.Quantity * s.unitRate,
			Status:    domain.PaymentStatusPending,
			PayerRole: payerRoleFor(tr.To),
			PayeeRole: actorRole,
			CreatedAt: now,
		}
		if err := s.paymentRepo.Create(ctx, dbTx, payment); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create payment: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	batch.Status = tr.To
	batch.CustodianID = custodianID
	batch.UpdatedAt = now

	s.log.Info().
		Str("batch_id", batchID.String()).
		Str("action", string(action)).
		Str("from", string(tr.From)).
		Str("to", string(tr.To)).
		Str("actor_role", string(actorRole)).
		Msg("batch transitioned")

	return batch, nil
}

// payerRoleFor returns the paying role for the PENDING payment created by
// an accept into the given status: the producer pays for the move into
// transit, the intermediary pays for delivery.
func payerRoleFor(to domain.BatchStatus) domain.Role {
	if to == domain.BatchStatusInTransit {
		return domain.RoleProducer
	}
	return domain.RoleIntermediary
}

// GetByID returns a batch by id.
func (s *BatchServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	batch, err := s.batchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find batch: %w", err))
	}
	if batch == nil {
		return nil, apperror.ErrBatchNotFound()
	}
	return batch, nil
}

// ListEvents returns the appended status history of a batch.
func (s *BatchServiceImpl) ListEvents(ctx context.Context, batchID uuid.UUID) ([]domain.BatchEvent, error) {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find batch: %w", err))
	}
	if batch == nil {
		return nil, apperror.ErrBatchNotFound()
	}

	events, err := s.eventRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list events: %w", err))
	}
	return events, nil
}

// ListForRole returns the batches visible to the caller. The actionable
// queue only shows batches awaiting that role's decision: REGISTERED for
// intermediaries, IN_TRANSIT for consumers. Producers always see their own.
func (s *BatchServiceImpl) ListForRole(ctx context.Context, identityID uuid.UUID, role domain.Role, actionable bool) ([]domain.Batch, error) {
	var params ports.BatchListParams

	switch {
	case role == domain.RoleProducer:
		params.ProducerID = &identityID
	case actionable && role == domain.RoleIntermediary:
		status := domain.BatchStatusRegistered
		params.Status = &status
	case actionable && role == domain.RoleConsumer:
		status := domain.BatchStatusInTransit
		params.Status = &status
	default:
		params.CustodianID = &identityID
	}

	batches, err := s.batchRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list batches: %w", err))
	}
	return batches, nil
}
