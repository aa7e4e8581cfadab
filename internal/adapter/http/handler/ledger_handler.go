package handler

import (
	"time"

	"tracebloom/internal/adapter/http/dto"
	"tracebloom/internal/adapter/http/middleware"
	"tracebloom/internal/core/domain"
	"tracebloom/internal/core/ports"
	"tracebloom/pkg/apperror"
	"tracebloom/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles payment, shipment and review endpoints.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// SubmitReview handles POST /api/v1/reviews.
func (h *LedgerHandler) SubmitReview(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	batchID, err := uuid.Parse(req.BatchID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid batch_id"))
		return
	}

	consumerID, ok := middleware.IdentityID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	review, err := h.ledgerSvc.SubmitReview(c.Request.Context(), ports.SubmitReviewRequest{
		BatchID:    batchID,
		ConsumerID: consumerID,
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, reviewToDTO(review))
}

// ListReviews handles GET /api/v1/reviews?batch_id=. Public endpoint.
func (h *LedgerHandler) ListReviews(c *gin.Context) {
	batchID, err := uuid.Parse(c.Query("batch_id"))
	if err != nil {
		response.Error(c, apperror.Validation("batch_id query parameter is required"))
		return
	}

	reviews, err := h.ledgerSvc.ListReviews(c.Request.Context(), batchID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		items = append(items, reviewToDTO(&reviews[i]))
	}
	response.OK(c, items)
}

// ListPayments handles GET /api/v1/payments. Returns payments where the
// caller's role is payer or payee.
func (h *LedgerHandler) ListPayments(c *gin.Context) {
	role, ok := middleware.Role(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	payments, err := h.ledgerSvc.ListPayments(c.Request.Context(), role)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, dto.PaymentResponse{
			ID:        p.ID.String(),
			BatchID:   p.BatchID.String(),
			Amount:    p.Amount,
			Status:    string(p.Status),
			PayerRole: string(p.PayerRole),
			PayeeRole: string(p.PayeeRole),
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		})
	}
	response.OK(c, items)
}

// ListShipments handles GET /api/v1/shipments. Consumer only.
func (h *LedgerHandler) ListShipments(c *gin.Context) {
	consumerID, ok := middleware.IdentityID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	shipments, err := h.ledgerSvc.ListShipments(c.Request.Context(), consumerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ShipmentResponse, 0, len(shipments))
	for _, s := range shipments {
		items = append(items, dto.ShipmentResponse{
			ID:         s.ID.String(),
			BatchID:    s.BatchID.String(),
			ConsumerID: s.ConsumerID.String(),
			CreatedAt:  s.CreatedAt.Format(time.RFC3339),
		})
	}
	response.OK(c, items)
}

func reviewToDTO(r *domain.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID:         r.ID.String(),
		BatchID:    r.BatchID.String(),
		ConsumerID: r.ConsumerID.String(),
		Rating:     r.Rating,
		Title:      r.Title,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
}
