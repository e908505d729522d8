package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/pkg/response"
)

type agendaService interface {
	List(ctx context.Context, principal models.Principal, templateID string) ([]models.AgendaItem, error)
	Add(ctx context.Context, principal models.Principal, templateID string, req dto.AgendaItemRequest) (*models.AgendaItem, error)
	Update(ctx context.Context, principal models.Principal, templateID, itemID string, req dto.AgendaItemRequest) (*models.AgendaItem, error)
	Remove(ctx context.Context, principal models.Principal, templateID, itemID string) error
	Reorder(ctx context.Context, principal models.Principal, templateID string, req dto.ReorderRequest) ([]models.AgendaItem, error)
	Move(ctx context.Context, principal models.Principal, templateID, itemID string, req dto.MoveRequest) ([]models.AgendaItem, error)
}

// AgendaHandler exposes template agenda endpoints.
type AgendaHandler struct {
	agenda agendaService
}

// NewAgendaHandler constructs the handler.
func NewAgendaHandler(agenda agendaService) *AgendaHandler {
	return &AgendaHandler{agenda: agenda}
}

// List godoc
// @Summary List the agenda of a template
// @Tags Agenda
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /event-templates/{id}/agenda [get]
func (h *AgendaHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	items, err := h.agenda.List(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Add godoc
// @Summary Append an agenda item
// @Tags Agenda
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.AgendaItemRequest true "Agenda item"
// @Success 201 {object} response.Envelope
// @Router /event-templates/{id}/agenda [post]
func (h *AgendaHandler) Add(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.AgendaItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "agenda item"))
		return
	}
	item, err := h.agenda.Add(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Edit an agenda item
// @Tags Agenda
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param itemId path string true "Agenda item ID"
// @Param payload body dto.AgendaItemRequest true "Agenda item"
// @Success 200 {object} response.Envelope
// @Router /event-templates/{id}/agenda/{itemId} [put]
func (h *AgendaHandler) Update(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.AgendaItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "agenda item"))
		return
	}
	item, err := h.agenda.Update(c.Request.Context(), principal, c.Param("id"), c.Param("itemId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Remove godoc
// @Summary Remove an agenda item
// @Tags Agenda
// @Param id path string true "Template ID"
// @Param itemId path string true "Agenda item ID"
// @Success 204
// @Router /event-templates/{id}/agenda/{itemId} [delete]
func (h *AgendaHandler) Remove(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	if err := h.agenda.Remove(c.Request.Context(), principal, c.Param("id"), c.Param("itemId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reorder godoc
// @Summary Reorder the agenda
// @Tags Agenda
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.ReorderRequest true "Every item id in the new order"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /event-templates/{id}/agenda/order [put]
func (h *AgendaHandler) Reorder(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "reorder"))
		return
	}
	items, err := h.agenda.Reorder(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Move godoc
// @Summary Move an agenda item one step
// @Tags Agenda
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param itemId path string true "Agenda item ID"
// @Param payload body dto.MoveRequest true "Direction"
// @Success 200 {object} response.Envelope
// @Router /event-templates/{id}/agenda/{itemId}/move [post]
func (h *AgendaHandler) Move(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "move"))
		return
	}
	items, err := h.agenda.Move(c.Request.Context(), principal, c.Param("id"), c.Param("itemId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
