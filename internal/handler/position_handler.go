package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/pkg/response"
)

type positionService interface {
	List(ctx context.Context, principal models.Principal, templateID string) ([]models.PositionRequirement, error)
	Add(ctx context.Context, principal models.Principal, templateID string, req dto.PositionRequest) (*models.PositionRequirement, error)
	AddBatch(ctx context.Context, principal models.Principal, templateID string, req dto.BatchPositionRequest) (*dto.BatchPositionResult, error)
	UpdateQuantity(ctx context.Context, principal models.Principal, templateID, positionID string, req dto.QuantityRequest) (*models.PositionRequirement, error)
	Remove(ctx context.Context, principal models.Principal, templateID, positionID string) error
	Reorder(ctx context.Context, principal models.Principal, templateID string, req dto.ReorderRequest) ([]models.PositionRequirement, error)
	Move(ctx context.Context, principal models.Principal, templateID, positionID string, req dto.MoveRequest) ([]models.PositionRequirement, error)
}

// PositionHandler exposes template staffing endpoints.
type PositionHandler struct {
	positions positionService
}

// NewPositionHandler constructs the handler.
func NewPositionHandler(positions positionService) *PositionHandler {
	return &PositionHandler{positions: positions}
}

// List godoc
// @Summary List position requirements of a template
// @Tags Positions
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /event-templates/{id}/positions [get]
func (h *PositionHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	positions, err := h.positions.List(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, positions, nil)
}

// Add godoc
// @Summary Add a position requirement
// @Tags Positions
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.PositionRequest true "Position"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /event-templates/{id}/positions [post]
func (h *PositionHandler) Add(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "position"))
		return
	}
	position, err := h.positions.Add(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, position)
}

// AddBatch godoc
// @Summary Add several position requirements, skipping duplicates
// @Tags Positions
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.BatchPositionRequest true "Pairs"
// @Success 201 {object} response.Envelope
// @Router /event-templates/{id}/positions/batch [post]
func (h *PositionHandler) AddBatch(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.BatchPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "position batch"))
		return
	}
	result, err := h.positions.AddBatch(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateQuantity godoc
// @Summary Set or adjust the quantity needed
// @Tags Positions
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param positionId path string true "Position ID"
// @Param payload body dto.QuantityRequest true "Quantity or delta"
// @Success 200 {object} response.Envelope
// @Router /event-templates/{id}/positions/{positionId}/quantity [patch]
func (h *PositionHandler) UpdateQuantity(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "quantity"))
		return
	}
	position, err := h.positions.UpdateQuantity(c.Request.Context(), principal, c.Param("id"), c.Param("positionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, position, nil)
}

// Remove godoc
// @Summary Remove a position requirement
// @Tags Positions
// @Param id path string true "Template ID"
// @Param positionId path string true "Position ID"
// @Success 204
// @Router /event-templates/{id}/positions/{positionId} [delete]
func (h *PositionHandler) Remove(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	if err := h.positions.Remove(c.Request.Context(), principal, c.Param("id"), c.Param("positionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reorder godoc
// @Summary Reorder position requirements
// @Tags Positions
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.ReorderRequest true "Every position id in the new order"
// @Success 200 {object} response.Envelope
// @Router /event-templates/{id}/positions/order [put]
func (h *PositionHandler) Reorder(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "reorder"))
		return
	}
	positions, err := h.positions.Reorder(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, positions, nil)
}

// Move godoc
// @Summary Move a position requirement one step
// @Tags Positions
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param positionId path string true "Position ID"
// @Param payload body dto.MoveRequest true "Direction"
// @Success 200 {object} response.Envelope
// @Router /event-templates/{id}/positions/{positionId}/move [post]
func (h *PositionHandler) Move(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "move"))
		return
	}
	positions, err := h.positions.Move(c.Request.Context(), principal, c.Param("id"), c.Param("positionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, positions, nil)
}
