package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/response"
)

type instantiationService interface {
	Instantiate(ctx context.Context, principal models.Principal, templateID string, req dto.InstantiateRequest) (*dto.InstantiationResult, error)
}

// InstantiationHandler turns templates into dated events.
type InstantiationHandler struct {
	instantiation instantiationService
}

// NewInstantiationHandler constructs the handler.
func NewInstantiationHandler(instantiation instantiationService) *InstantiationHandler {
	return &InstantiationHandler{instantiation: instantiation}
}

// Instantiate godoc
// @Summary Create one event per requested date from a template
// @Description Dates are processed in ascending order and the run stops at the first failure. Earlier events stay committed.
// @Tags Instantiation
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.InstantiateRequest true "Dates"
// @Success 201 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /event-templates/{id}/instantiate [post]
func (h *InstantiationHandler) Instantiate(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.InstantiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "instantiation"))
		return
	}
	result, err := h.instantiation.Instantiate(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	switch result.Status {
	case dto.InstantiationAllCreated:
		response.JSON(c, http.StatusCreated, result, nil)
	case dto.InstantiationPartiallyCreated:
		response.DataWithError(c, appErrors.ErrPartialInstantiation.Status, result, appErrors.Clone(appErrors.ErrPartialInstantiation, result.Message))
	default:
		failure := result.Error
		if failure == nil {
			failure = appErrors.Clone(appErrors.ErrInternal, result.Message)
		}
		response.DataWithError(c, failure.Status, result, failure)
	}
}
