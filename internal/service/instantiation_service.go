package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

// DateLayout is the calendar date format accepted by instantiation and event filters.
const DateLayout = "2006-01-02"

// DefaultMaxInstantiationDates caps the dates accepted in one request.
const DefaultMaxInstantiationDates = 52

type eventWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error
	CreateAgenda(ctx context.Context, exec sqlx.ExtContext, items []models.EventAgendaItem) error
	CreatePositions(ctx context.Context, exec sqlx.ExtContext, positions []models.EventPosition) error
}

// InstantiationConfig controls date handling.
type InstantiationConfig struct {
	Location *time.Location
	MaxDates int
	Now      func() time.Time
}

// InstantiationService creates dated events from a template.
type InstantiationService struct {
	snapshots *TemplateSnapshotter
	events    eventWriter
	tx        txProvider
	access    TemplateAccess
	metrics   *MetricsService
	validator *validator.Validate
	cfg       InstantiationConfig
	logger    *zap.Logger
}

// NewInstantiationService constructs the service.
func NewInstantiationService(snapshots *TemplateSnapshotter, events eventWriter, tx txProvider, access TemplateAccess, metrics *MetricsService, validate *validator.Validate, cfg InstantiationConfig, logger *zap.Logger) *InstantiationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxDates <= 0 {
		cfg.MaxDates = DefaultMaxInstantiationDates
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &InstantiationService{
		snapshots: snapshots,
		events:    events,
		tx:        tx,
		access:    access,
		metrics:   metrics,
		validator: validate,
		cfg:       cfg,
		logger:    logger,
	}
}

// Instantiate creates one event per requested date, oldest first. The run stops at
// the first failure; events already created stay and later dates are skipped.
func (s *InstantiationService) Instantiate(ctx context.Context, principal models.Principal, templateID string, req dto.InstantiateRequest) (*dto.InstantiationResult, error) {
	if err := s.access.requireWrite(principal); err != nil {
		return nil, err
	}
	if body := strings.TrimSpace(req.TemplateID); body != "" && body != templateID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "templateId does not match the requested template")
	}
	dates, err := s.parseDates(req)
	if err != nil {
		return nil, err
	}

	snapshot, _, err := s.snapshots.Load(ctx, principal.ChurchID, templateID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTemplateNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event template")
	}
	if !s.access.canRead(principal, &snapshot.Template) {
		return nil, appErrors.ErrTemplateNotFound
	}

	result := &dto.InstantiationResult{
		TemplateID:      templateID,
		CreatedEventIDs: []string{},
		Requested:       len(dates),
		Outcomes:        make([]dto.DateOutcome, 0, len(dates)),
	}

	// A client disconnect must not abort the run between dates.
	runCtx := context.WithoutCancel(ctx)
	for i, date := range dates {
		label := date.Format(DateLayout)
		if result.Error != nil {
			result.Outcomes = append(result.Outcomes, dto.DateOutcome{Date: label, Status: dto.DateSkipped})
			continue
		}

		eventID, err := s.createOne(runCtx, snapshot, date, principal.ID)
		if err != nil {
			appErr := appErrors.FromError(err)
			index := i
			result.FailedAt = &label
			result.FailedIndex = &index
			result.Error = appErr
			result.Outcomes = append(result.Outcomes, dto.DateOutcome{Date: label, Status: dto.DateFailed, Error: appErr})
			s.logger.Warn("event instantiation failed",
				zap.String("template_id", templateID),
				zap.String("date", label),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		result.CreatedEventIDs = append(result.CreatedEventIDs, eventID)
		result.Outcomes = append(result.Outcomes, dto.DateOutcome{Date: label, Status: dto.DateCreated, EventID: eventID})
	}

	result.Created = len(result.CreatedEventIDs)
	switch {
	case result.Error == nil:
		result.Status = dto.InstantiationAllCreated
	case result.Created > 0:
		result.Status = dto.InstantiationPartiallyCreated
	default:
		result.Status = dto.InstantiationNoneCreated
	}
	result.Message = fmt.Sprintf("%d of %d created", result.Created, result.Requested)
	s.metrics.RecordInstantiation(string(result.Status), result.Created)

	s.logger.Info("template instantiated",
		zap.String("template_id", templateID),
		zap.String("status", string(result.Status)),
		zap.Int("created", result.Created),
		zap.Int("requested", result.Requested),
	)
	return result, nil
}

func (s *InstantiationService) createOne(ctx context.Context, snapshot *models.TemplateSnapshot, date time.Time, createdBy string) (string, error) {
	bundle, err := ProjectEvent(snapshot, date, s.cfg.Location, createdBy)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "template default start time is invalid")
	}
	err = withinTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.events.Create(ctx, tx, &bundle.Event); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
		}
		for i := range bundle.Agenda {
			bundle.Agenda[i].EventID = bundle.Event.ID
		}
		for i := range bundle.Positions {
			bundle.Positions[i].EventID = bundle.Event.ID
		}
		if err := s.events.CreateAgenda(ctx, tx, bundle.Agenda); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event agenda")
		}
		if err := s.events.CreatePositions(ctx, tx, bundle.Positions); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event positions")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return bundle.Event.ID, nil
}

// parseDates validates the requested dates and returns them deduplicated and ascending.
func (s *InstantiationService) parseDates(req dto.InstantiateRequest) ([]time.Time, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "at least one date is required")
	}
	if len(req.Dates) > s.cfg.MaxDates {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d dates can be instantiated at once", s.cfg.MaxDates))
	}

	now := s.cfg.Now().In(s.cfg.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)

	seen := make(map[string]struct{}, len(req.Dates))
	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		raw = strings.TrimSpace(raw)
		date, err := time.ParseInLocation(DateLayout, raw, s.cfg.Location)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
		}
		if date.Before(today) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date %s is in the past", raw))
		}
		key := date.Format(DateLayout)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// ProjectEvent turns a template snapshot into the event graph for one calendar date.
// The event starts at the template's default time on date in loc.
func ProjectEvent(snapshot *models.TemplateSnapshot, date time.Time, loc *time.Location, createdBy string) (*models.EventBundle, error) {
	if loc == nil {
		loc = time.UTC
	}
	tpl := snapshot.Template
	hour, minute, err := models.ParseClock(tpl.DefaultStartTime)
	if err != nil {
		return nil, err
	}
	year, month, day := date.Date()
	startsAt := time.Date(year, month, day, hour, minute, 0, 0, loc)
	endsAt := startsAt.Add(time.Duration(tpl.DefaultDurationMinutes) * time.Minute)

	sourceID := tpl.ID
	event := models.Event{
		ChurchID:            tpl.ChurchID,
		SourceTemplateID:    &sourceID,
		Name:                tpl.Name,
		Description:         tpl.Description,
		EventType:           tpl.EventType,
		LocationID:          tpl.LocationID,
		ResponsiblePersonID: tpl.ResponsiblePersonID,
		CampusID:            tpl.CampusID,
		Visibility:          tpl.Visibility,
		Status:              models.EventStatusPublished,
		StartsAt:            startsAt,
		EndsAt:              endsAt,
		InvitedUserIDs:      append([]string{}, tpl.InvitedUserIDs...),
		CreatedBy:           createdBy,
	}

	agenda := append([]models.AgendaItem(nil), snapshot.Agenda...)
	ordering.SortItems(agenda, models.AgendaItem.OrderEntry)
	items := make([]models.EventAgendaItem, 0, len(agenda))
	for i, item := range agenda {
		items = append(items, models.EventAgendaItem{
			Title:             item.Title,
			Description:       item.Description,
			DurationSeconds:   item.DurationSeconds,
			IsSongPlaceholder: item.IsSongPlaceholder,
			MinistryID:        item.MinistryID,
			SortOrder:         i,
		})
	}

	requirements := append([]models.PositionRequirement(nil), snapshot.Positions...)
	ordering.SortItems(requirements, models.PositionRequirement.OrderEntry)
	positions := make([]models.EventPosition, 0, len(requirements))
	for i, requirement := range requirements {
		positions = append(positions, models.EventPosition{
			MinistryID:     requirement.MinistryID,
			RoleID:         requirement.RoleID,
			Title:          requirement.Title,
			QuantityNeeded: requirement.QuantityNeeded,
			QuantityFilled: 0,
			Notes:          requirement.Notes,
			SortOrder:      i,
		})
	}

	return &models.EventBundle{Event: event, Agenda: items, Positions: positions}, nil
}
