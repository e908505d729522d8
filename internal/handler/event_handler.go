package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/pkg/icalfeed"
	"github.com/noah-isme/church-ops-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, principal models.Principal, query dto.EventListQuery) ([]models.Event, *models.Pagination, error)
	Get(ctx context.Context, principal models.Principal, id string) (*dto.EventDetail, error)
	Feed(ctx context.Context, principal models.Principal) (string, error)
	RunSheet(ctx context.Context, principal models.Principal, id, format string) (*dto.RunSheet, error)
}

// EventHandler exposes read access to instantiated events.
type EventHandler struct {
	events eventService
}

// NewEventHandler constructs the handler.
func NewEventHandler(events eventService) *EventHandler {
	return &EventHandler{events: events}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD, inclusive)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	query := dto.EventListQuery{
		From:     pickQuery(c, "from", "start_date"),
		To:       pickQuery(c, "to", "end_date"),
		Page:     queryInt(c, "page", "page"),
		PageSize: queryInt(c, "pageSize", "page_size"),
	}
	events, pagination, err := h.events.List(c.Request.Context(), principal, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get an event with its agenda and positions
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	detail, err := h.events.Get(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Feed godoc
// @Summary iCalendar feed of upcoming events
// @Tags Events
// @Produce text/calendar
// @Success 200 {string} string
// @Router /events/feed.ics [get]
func (h *EventHandler) Feed(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	feed, err := h.events.Feed(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, icalfeed.ContentType, []byte(feed))
}

// RunSheet godoc
// @Summary Download the run sheet of an event
// @Tags Events
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Event ID"
// @Param format query string false "pdf or csv"
// @Success 200 {file} file
// @Router /events/{id}/run-sheet [get]
func (h *EventHandler) RunSheet(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	sheet, err := h.events.RunSheet(c.Request.Context(), principal, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, sheet.ContentType, sheet.Filename, sheet.Content)
}
