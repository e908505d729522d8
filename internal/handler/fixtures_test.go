package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/middleware"
	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
)

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func asLeader(c *gin.Context) {
	c.Set(middleware.ContextPrincipalKey, models.Principal{
		ID:       "user-1",
		ChurchID: "church-1",
		Role:     models.RoleLeader,
		Rank:     models.DefaultRank(models.RoleLeader),
	})
}

type templateServiceStub struct {
	query   dto.TemplateListQuery
	created dto.TemplateHeaderRequest
	deleted string
	err     error
}

func (s *templateServiceStub) List(ctx context.Context, principal models.Principal, query dto.TemplateListQuery) ([]models.EventTemplate, *models.Pagination, error) {
	s.query = query
	if s.err != nil {
		return nil, nil, s.err
	}
	return []models.EventTemplate{{ID: "tpl-1", Name: "Sunday Service"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (s *templateServiceStub) Get(ctx context.Context, principal models.Principal, id string) (*dto.TemplateDetail, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return &dto.TemplateDetail{EventTemplate: models.EventTemplate{ID: id, Name: "Sunday Service"}}, true, nil
}

func (s *templateServiceStub) Create(ctx context.Context, principal models.Principal, req dto.TemplateHeaderRequest) (*dto.TemplateDetail, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.TemplateDetail{EventTemplate: models.EventTemplate{ID: "tpl-new", Name: req.Name}}, nil
}

func (s *templateServiceStub) Update(ctx context.Context, principal models.Principal, id string, req dto.TemplateHeaderRequest) (*dto.TemplateDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.TemplateDetail{EventTemplate: models.EventTemplate{ID: id, Name: req.Name}}, nil
}

func (s *templateServiceStub) Delete(ctx context.Context, principal models.Principal, id string) error {
	s.deleted = id
	return s.err
}

type duplicatorStub struct {
	err error
}

func (d duplicatorStub) Duplicate(ctx context.Context, principal models.Principal, id string) (*dto.TemplateDetail, string, error) {
	if d.err != nil {
		return nil, "", appErrors.Clone(appErrors.FromError(d.err), "Could not duplicate template")
	}
	return &dto.TemplateDetail{EventTemplate: models.EventTemplate{ID: "tpl-copy", Name: "Sunday Service - copy"}}, "Template duplicated", nil
}

type positionServiceStub struct {
	quantity dto.QuantityRequest
	err      error
}

func (s *positionServiceStub) List(ctx context.Context, principal models.Principal, templateID string) ([]models.PositionRequirement, error) {
	return []models.PositionRequirement{{ID: "pos-1", TemplateID: templateID, Title: "Drums", QuantityNeeded: 1}}, s.err
}

func (s *positionServiceStub) Add(ctx context.Context, principal models.Principal, templateID string, req dto.PositionRequest) (*models.PositionRequirement, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.PositionRequirement{ID: "pos-2", TemplateID: templateID, MinistryID: req.MinistryID, QuantityNeeded: 1}, nil
}

func (s *positionServiceStub) AddBatch(ctx context.Context, principal models.Principal, templateID string, req dto.BatchPositionRequest) (*dto.BatchPositionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.BatchPositionResult{
		Added:   []models.PositionRequirement{{ID: "pos-3", MinistryID: req.Pairs[0].MinistryID}},
		Skipped: []dto.SkippedPosition{{MinistryID: "worship", Reason: dto.SkipReasonAlreadyAdded}},
	}, nil
}

func (s *positionServiceStub) UpdateQuantity(ctx context.Context, principal models.Principal, templateID, positionID string, req dto.QuantityRequest) (*models.PositionRequirement, error) {
	s.quantity = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.PositionRequirement{ID: positionID, QuantityNeeded: 3}, nil
}

func (s *positionServiceStub) Remove(ctx context.Context, principal models.Principal, templateID, positionID string) error {
	return s.err
}

func (s *positionServiceStub) Reorder(ctx context.Context, principal models.Principal, templateID string, req dto.ReorderRequest) ([]models.PositionRequirement, error) {
	return nil, s.err
}

func (s *positionServiceStub) Move(ctx context.Context, principal models.Principal, templateID, positionID string, req dto.MoveRequest) ([]models.PositionRequirement, error) {
	return nil, s.err
}

type instantiationServiceStub struct {
	result *dto.InstantiationResult
	err    error
}

func (s instantiationServiceStub) Instantiate(ctx context.Context, principal models.Principal, templateID string, req dto.InstantiateRequest) (*dto.InstantiationResult, error) {
	return s.result, s.err
}

type eventServiceStub struct {
	query  dto.EventListQuery
	format string
	err    error
}

func (s *eventServiceStub) List(ctx context.Context, principal models.Principal, query dto.EventListQuery) ([]models.Event, *models.Pagination, error) {
	s.query = query
	return []models.Event{{ID: "evt-1"}}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, s.err
}

func (s *eventServiceStub) Get(ctx context.Context, principal models.Principal, id string) (*dto.EventDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.EventDetail{Event: models.Event{ID: id}}, nil
}

func (s *eventServiceStub) Feed(ctx context.Context, principal models.Principal) (string, error) {
	return "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", s.err
}

func (s *eventServiceStub) RunSheet(ctx context.Context, principal models.Principal, id, format string) (*dto.RunSheet, error) {
	s.format = format
	if s.err != nil {
		return nil, s.err
	}
	return &dto.RunSheet{Filename: "run-sheet-2025-06-01.csv", ContentType: "text/csv", Content: []byte("Agenda\n")}, nil
}
