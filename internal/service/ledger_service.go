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

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	batchRepo    ports.BatchRepository
	paymentRepo  ports.PaymentRepository
	shipmentRepo ports.ShipmentRepository
	reviewRepo   ports.ReviewRepository
	log          zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	batchRepo ports.BatchRepository,
	paymentRepo ports.PaymentRepository,
	shipmentRepo ports.ShipmentRepository,
	reviewRepo ports.ReviewRepository,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		batchRepo:    batchRepo,
		paymentRepo:  paymentRepo,
		shipmentRepo: shipmentRepo,
		reviewRepo:   reviewRepo,
		log:          log,
	}
}

// SubmitReview records a consumer's review of a batch. The shipment record
// created at delivery is the entitlement check; the unique (batch, consumer)
// constraint on reviews is the idempotency guard.
func (s *LedgerServiceImpl) SubmitReview(ctx context.Context, req ports.SubmitReviewRequest) (*domain.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperror.ErrInvalidRating()
	}

	batch, err := s.batchRepo.GetByID(ctx, req.BatchID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find batch: %w", err))
	}
	if batch == nil {
		return nil, apperror.ErrBatchNotFound()
	}

	entitled, err := s.shipmentRepo.Exists(ctx, req.BatchID, req.ConsumerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check shipment: %w", err))
	}
	if !entitled {
		return nil, apperror.ErrNotEntitled()
	}

	review := &domain.Review{
		ID:         uuid.New(),
		BatchID:    req.BatchID,
		ConsumerID: req.ConsumerID,
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("batch_id", req.BatchID.String()).
		Str("consumer_id", req.ConsumerID.String()).
		Int("rating", req.Rating).
		Msg("review submitted")

	return review, nil
}

// ListReviews returns the reviews of a batch.
func (s *LedgerServiceImpl) ListReviews(ctx context.Context, batchID uuid.UUID) ([]domain.Review, error) {
	reviews, err := s.reviewRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list reviews: %w", err))
	}
	return reviews, nil
}

// ListPayments returns payments where the role is payer or payee.
func (s *LedgerServiceImpl) ListPayments(ctx context.Context, role domain.Role) ([]domain.Payment, error) {
	payments, err := s.paymentRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list payments: %w", err))
	}
	return payments, nil
}

// ListShipments returns the shipments delivered to a consumer.
func (s *LedgerServiceImpl) ListShipments(ctx context.Context, consumerID uuid.UUID) ([]domain.Shipment, error) {
	shipments, err := s.shipmentRepo.ListByConsumer(ctx, consumerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list shipments: %w", err))
	}
	return shipments, nil
}
