package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/middleware"
	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/pkg/response"
)

type templateService interface {
	List(ctx context.Context, principal models.Principal, query dto.TemplateListQuery) ([]models.EventTemplate, *models.Pagination, error)
	Get(ctx context.Context, principal models.Principal, id string) (*dto.TemplateDetail, bool, error)
	Create(ctx context.Context, principal models.Principal, req dto.TemplateHeaderRequest) (*dto.TemplateDetail, error)
	Update(ctx context.Context, principal models.Principal, id string, req dto.TemplateHeaderRequest) (*dto.TemplateDetail, error)
	Delete(ctx context.Context, principal models.Principal, id string) error
}

type templateDuplicator interface {
	Duplicate(ctx context.Context, principal models.Principal, id string) (*dto.TemplateDetail, string, error)
}

// TemplateHandler exposes event template endpoints.
type TemplateHandler struct {
	templates  templateService
	duplicator templateDuplicator
}

// NewTemplateHandler constructs the handler.
func NewTemplateHandler(templates templateService, duplicator templateDuplicator) *TemplateHandler {
	return &TemplateHandler{templates: templates, duplicator: duplicator}
}

// List godoc
// @Summary List event templates
// @Tags EventTemplates
// @Produce json
// @Param eventType query string false "Event type"
// @Param campusId query string false "Campus ID"
// @Param search query string false "Name search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /event-templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	query := dto.TemplateListQuery{
		EventType: pickQuery(c, "eventType", "event_type"),
		CampusID:  pickQuery(c, "campusId", "campus_id"),
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", "page"),
		PageSize:  queryInt(c, "pageSize", "page_size"),
	}
	templates, pagination, err := h.templates.List(c.Request.Context(), principal, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, pagination)
}

// Get godoc
// @Summary Get an event template with its agenda and positions
// @Tags EventTemplates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /event-templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	detail, hit, err := h.templates.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, detail, nil, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Create an event template
// @Tags EventTemplates
// @Accept json
// @Produce json
// @Param payload body dto.TemplateHeaderRequest true "Template header"
// @Success 201 {object} response.Envelope
// @Router /event-templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.TemplateHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "event template"))
		return
	}
	detail, err := h.templates.Create(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Update an event template header
// @Tags EventTemplates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.TemplateHeaderRequest true "Template header"
// @Success 200 {object} response.Envelope
// @Router /event-templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.TemplateHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "event template"))
		return
	}
	detail, err := h.templates.Update(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete an event template
// @Tags EventTemplates
// @Param id path string true "Template ID"
// @Success 204
// @Router /event-templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	if err := h.templates.Delete(c.Request.Context(), principal, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Duplicate godoc
// @Summary Duplicate an event template with its agenda and positions
// @Tags EventTemplates
// @Produce json
// @Param id path string true "Template ID"
// @Success 201 {object} response.Envelope
// @Router /event-templates/{id}/duplicate [post]
func (h *TemplateHandler) Duplicate(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	detail, message, err := h.duplicator.Duplicate(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, detail, nil, map[string]interface{}{"message": message})
}
