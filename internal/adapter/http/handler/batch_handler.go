package handler

import (
	"context"
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

const harvestDateLayout = "2006-01-02"

// BatchHandler handles batch lifecycle endpoints.
type BatchHandler struct {
	batchSvc ports.BatchService
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batchSvc ports.BatchService) *BatchHandler {
	return &BatchHandler{batchSvc: batchSvc}
}

// Register handles POST /api/v1/batches.
func (h *BatchHandler) Register(c *gin.Context) {
	var req dto.RegisterBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	harvestDate, err := time.Parse(harvestDateLayout, req.HarvestDate)
	if err != nil {
		response.Error(c, apperror.Validation("harvest_date must be YYYY-MM-DD"))
		return
	}

	producerID, ok := middleware.IdentityID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	batch, err := h.batchSvc.Register(c.Request.Context(), ports.RegisterBatchRequest{
		ProducerID:  producerID,
		CropType:    req.CropType,
		Quantity:    req.Quantity,
		HarvestDate: harvestDate,
		Location:    req.Location,
		Description: req.Description,
		ImageRef:    req.ImageRef,
		FarmerName:  req.FarmerName,
		FarmerPhone: req.FarmerPhone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, batchToDTO(batch))
}

// List handles GET /api/v1/batches. With ?available=true it returns only the
// caller's actionable queue.
func (h *BatchHandler) List(c *gin.Context) {
	identityID, ok := middleware.IdentityID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	role, ok := middleware.Role(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	actionable := c.Query("available") == "true"

	batches, err := h.batchSvc.ListForRole(c.Request.Context(), identityID, role, actionable)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.BatchResponse, 0, len(batches))
	for i := range batches {
		items = append(items, batchToDTO(&batches[i]))
	}
	response.OK(c, items)
}

// GetByID handles GET /api/v1/batches/:id. Public tracking endpoint.
func (h *BatchHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid batch id"))
		return
	}

	batch, err := h.batchSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, batchToDTO(batch))
}

// ListEvents handles GET /api/v1/batches/:id/events. Public tracking endpoint.
func (h *BatchHandler) ListEvents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid batch id"))
		return
	}

	events, err := h.batchSvc.ListEvents(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.BatchEventResponse, 0, len(events))
	for i := range events {
		items = append(items, eventToDTO(&events[i]))
	}
	response.OK(c, items)
}

// Accept handles POST /api/v1/batches/:id/accept.
func (h *BatchHandler) Accept(c *gin.Context) {
	h.transition(c, h.batchSvc.Accept)
}

// Reject handles POST /api/v1/batches/:id/reject.
func (h *BatchHandler) Reject(c *gin.Context) {
	h.transition(c, h.batchSvc.Reject)
}

// Consume handles POST /api/v1/batches/:id/consume.
func (h *BatchHandler) Consume(c *gin.Context) {
	h.transition(c, h.batchSvc.Consume)
}

func (h *BatchHandler) transition(c *gin.Context, op func(ctx context.Context, batchID, actorID uuid.UUID, actorRole domain.Role) (*domain.Batch, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid batch id"))
		return
	}

	actorID, ok := middleware.IdentityID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	role, ok := middleware.Role(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	batch, err := op(c.Request.Context(), id, actorID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, batchToDTO(batch))
}

func batchToDTO(b *domain.Batch) dto.BatchResponse {
	resp := dto.BatchResponse{
		ID:          b.ID.String(),
		ProducerID:  b.ProducerID.String(),
		CropType:    b.CropType,
		Quantity:    b.Quantity,
		HarvestDate: b.HarvestDate.Format(harvestDateLayout),
		Location:    b.Location,
		Description: b.Description,
		ImageRef:    b.ImageRef,
		FarmerName:  b.FarmerName,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
	if b.CustodianID != nil {
		custodian := b.CustodianID.String()
		resp.CustodianID = &custodian
	}
	return resp
}

func eventToDTO(e *domain.BatchEvent) dto.BatchEventResponse {
	resp := dto.BatchEventResponse{
		ID:         e.ID.String(),
		BatchID:    e.BatchID.String(),
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		Action:     string(e.Action),
		ActorRole:  string(e.ActorRole),
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
	if e.ActorID != nil {
		actor := e.ActorID.String()
		resp.ActorID = &actor
	}
	return resp
}
