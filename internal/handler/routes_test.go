package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
)

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	role, ok := models.ParseMemberRole(token)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: "user-" + token, ChurchID: "church-1", Role: role}, nil
}

func (tokenStub) Resolve(claims *models.JWTClaims) models.Principal {
	return models.Principal{ID: claims.UserID, ChurchID: claims.ChurchID, Role: claims.Role, Rank: models.DefaultRank(claims.Role)}
}

type auditRecorder struct {
	actions []string
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

type agendaServiceStub struct{}

func (agendaServiceStub) List(ctx context.Context, principal models.Principal, templateID string) ([]models.AgendaItem, error) {
	return []models.AgendaItem{}, nil
}

func (agendaServiceStub) Add(ctx context.Context, principal models.Principal, templateID string, req dto.AgendaItemRequest) (*models.AgendaItem, error) {
	return &models.AgendaItem{ID: "item-1", TemplateID: templateID, Title: req.Title}, nil
}

func (agendaServiceStub) Update(ctx context.Context, principal models.Principal, templateID, itemID string, req dto.AgendaItemRequest) (*models.AgendaItem, error) {
	return &models.AgendaItem{ID: itemID, TemplateID: templateID, Title: req.Title}, nil
}

func (agendaServiceStub) Remove(ctx context.Context, principal models.Principal, templateID, itemID string) error {
	return nil
}

func (agendaServiceStub) Reorder(ctx context.Context, principal models.Principal, templateID string, req dto.ReorderRequest) ([]models.AgendaItem, error) {
	return []models.AgendaItem{}, nil
}

func (agendaServiceStub) Move(ctx context.Context, principal models.Principal, templateID, itemID string, req dto.MoveRequest) ([]models.AgendaItem, error) {
	return []models.AgendaItem{}, nil
}

func buildRouter(audit *auditRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	Routes{
		Verifier:      tokenStub{},
		Audit:         audit,
		Rank:          models.DefaultRank,
		Templates:     NewTemplateHandler(&templateServiceStub{}, duplicatorStub{}),
		Agenda:        NewAgendaHandler(agendaServiceStub{}),
		Positions:     NewPositionHandler(&positionServiceStub{}),
		Instantiation: NewInstantiationHandler(instantiationServiceStub{result: &dto.InstantiationResult{Status: dto.InstantiationAllCreated}}),
		Events:        NewEventHandler(&eventServiceStub{}),
	}.Register(router.Group("/api/v1"))
	return router
}

func perform(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	c, _ := newTestContext(method, path, body)
	req := c.Request
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoutesRequireToken(t *testing.T) {
	router := buildRouter(&auditRecorder{})

	resp := perform(router, http.MethodGet, "/api/v1/event-templates", "", "")

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRoutesRejectUnknownRole(t *testing.T) {
	router := buildRouter(&auditRecorder{})

	resp := perform(router, http.MethodGet, "/api/v1/events", "guest", "")

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRoutesDispatchStaticSegmentsBeforeParams(t *testing.T) {
	router := buildRouter(&auditRecorder{})

	feed := perform(router, http.MethodGet, "/api/v1/events/feed.ics", "member", "")
	require.Equal(t, http.StatusOK, feed.Code)
	assert.Contains(t, feed.Body.String(), "BEGIN:VCALENDAR")

	event := perform(router, http.MethodGet, "/api/v1/events/evt-1", "member", "")
	require.Equal(t, http.StatusOK, event.Code)
	assert.Contains(t, event.Body.String(), `"id":"evt-1"`)

	order := perform(router, http.MethodPut, "/api/v1/event-templates/tpl-1/agenda/order", "leader", `{"ids":[]}`)
	require.Equal(t, http.StatusOK, order.Code)
}

func TestRoutesAuditSuccessfulMutationsOnly(t *testing.T) {
	audit := &auditRecorder{}
	router := buildRouter(audit)

	ok := perform(router, http.MethodPost, "/api/v1/event-templates/tpl-1/instantiate", "leader", `{"dates":["2025-06-01"]}`)
	require.Equal(t, http.StatusCreated, ok.Code)

	bad := perform(router, http.MethodPost, "/api/v1/event-templates", "leader", `{"name":`)
	require.Equal(t, http.StatusBadRequest, bad.Code)

	read := perform(router, http.MethodGet, "/api/v1/event-templates/tpl-1", "leader", "")
	require.Equal(t, http.StatusOK, read.Code)

	assert.Equal(t, []string{"TEMPLATE_INSTANTIATE"}, audit.actions)
}
