package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/markdown"
	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

const copySuffix = " - copy"

// TemplateService manages event template headers and whole-template operations.
type TemplateService struct {
	templates templateStore
	agenda    agendaStore
	positions positionStore
	snapshots *TemplateSnapshotter
	tx        txProvider
	access    TemplateAccess
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTemplateService constructs the service.
func NewTemplateService(
	templates templateStore,
	agenda agendaStore,
	positions positionStore,
	snapshots *TemplateSnapshotter,
	tx txProvider,
	access TemplateAccess,
	validate *validator.Validate,
	logger *zap.Logger,
) *TemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerTemplateValidations(validate)
	return &TemplateService{
		templates: templates,
		agenda:    agenda,
		positions: positions,
		snapshots: snapshots,
		tx:        tx,
		access:    access,
		validator: validate,
		logger:    logger,
	}
}

// List returns the templates the caller can read.
func (s *TemplateService) List(ctx context.Context, principal models.Principal, query dto.TemplateListQuery) ([]models.EventTemplate, *models.Pagination, error) {
	filter := models.TemplateFilter{
		ChurchID:  principal.ChurchID,
		Search:    query.Search,
		Levels:    s.access.Policy.ReadableLevels(principal),
		Page:      query.Page,
		PageSize:  query.PageSize,
		InviteeID: principal.ID,
	}
	if s.access.Policy.SeesAllHidden(principal) {
		filter.InviteeID = ""
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	if raw := strings.TrimSpace(query.EventType); raw != "" {
		eventType := models.EventType(strings.ToLower(raw))
		if !eventType.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown event type")
		}
		filter.EventType = &eventType
	}
	if campus := strings.TrimSpace(query.CampusID); campus != "" {
		filter.CampusID = &campus
	}

	templates, total, err := s.templates.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list event templates")
	}
	readable := make([]models.EventTemplate, 0, len(templates))
	for i := range templates {
		if s.access.canRead(principal, &templates[i]) {
			readable = append(readable, templates[i])
		}
	}
	return readable, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a template with its agenda and positions. The boolean reports a cache hit.
func (s *TemplateService) Get(ctx context.Context, principal models.Principal, id string) (*dto.TemplateDetail, bool, error) {
	snapshot, hit, err := s.snapshots.Load(ctx, principal.ChurchID, id, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.ErrTemplateNotFound
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event template")
	}
	if !s.access.canRead(principal, &snapshot.Template) {
		return nil, false, appErrors.ErrTemplateNotFound
	}
	detail := s.detail(snapshot.Template, snapshot.Agenda, snapshot.Positions)
	s.renderDescriptions(detail)
	return detail, hit, nil
}

// Create stores a new template header.
func (s *TemplateService) Create(ctx context.Context, principal models.Principal, req dto.TemplateHeaderRequest) (*dto.TemplateDetail, error) {
	if err := s.access.requireWrite(principal); err != nil {
		return nil, err
	}
	tpl := &models.EventTemplate{ChurchID: principal.ChurchID, CreatedBy: principal.ID}
	if err := s.applyHeader(tpl, req); err != nil {
		return nil, err
	}

	if err := withinTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.templates.Create(ctx, tx, tpl); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event template")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.warnIncomplete(tpl)
	return s.detail(*tpl, nil, nil), nil
}

// Update rewrites a template header. Agenda and positions are untouched.
func (s *TemplateService) Update(ctx context.Context, principal models.Principal, id string, req dto.TemplateHeaderRequest) (*dto.TemplateDetail, error) {
	if err := s.access.requireWrite(principal); err != nil {
		return nil, err
	}
	candidate := &models.EventTemplate{}
	if err := s.applyHeader(candidate, req); err != nil {
		return nil, err
	}

	var updated *models.EventTemplate
	if err := withinTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		tpl, err := s.access.loadMutable(ctx, s.templates, tx, principal, id)
		if err != nil {
			return err
		}
		if err := s.applyHeader(tpl, req); err != nil {
			return err
		}
		if err := s.templates.Update(ctx, tx, tpl); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrTemplateNotFound
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event template")
		}
		updated = tpl
		return nil
	}); err != nil {
		return nil, err
	}

	s.snapshots.Forget(ctx, principal.ChurchID, id)
	s.warnIncomplete(updated)
	return s.detail(*updated, nil, nil), nil
}

// Delete removes a template and, through cascades, its agenda and positions.
// Events created from it keep their historical source reference.
func (s *TemplateService) Delete(ctx context.Context, principal models.Principal, id string) error {
	if err := s.access.requireDelete(principal); err != nil {
		return err
	}
	if err := withinTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if _, err := s.access.loadMutable(ctx, s.templates, tx, principal, id); err != nil {
			return err
		}
		if err := s.templates.Delete(ctx, tx, principal.ChurchID, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrTemplateNotFound
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event template")
		}
		return nil
	}); err != nil {
		return err
	}
	s.snapshots.Forget(ctx, principal.ChurchID, id)
	return nil
}

// Duplicate deep-copies a template, its agenda and its positions under a new name.
// Copies get fresh ids and contiguous sort keys in the original display order.
func (s *TemplateService) Duplicate(ctx context.Context, principal models.Principal, id string) (*dto.TemplateDetail, error) {
	var (
		copyTpl       models.EventTemplate
		copyAgenda    []models.AgendaItem
		copyPositions []models.PositionRequirement
	)
	err := withinTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		original, err := s.access.loadForWrite(ctx, s.templates, tx, principal, id)
		if err != nil {
			return err
		}
		agenda, err := s.agenda.ListByTemplate(ctx, tx, id)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agenda")
		}
		positions, err := s.positions.ListByTemplate(ctx, tx, id)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load positions")
		}

		copyTpl = *original
		copyTpl.ID = ""
		copyTpl.Name = original.Name + copySuffix
		copyTpl.CreatedBy = principal.ID
		copyTpl.CreatedAt = time.Time{}
		copyTpl.UpdatedAt = time.Time{}
		copyTpl.InvitedUserIDs = append([]string{}, original.InvitedUserIDs...)
		if err := s.templates.Create(ctx, tx, &copyTpl); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template copy")
		}

		ordering.SortItems(agenda, models.AgendaItem.OrderEntry)
		copyAgenda = make([]models.AgendaItem, 0, len(agenda))
		for i, item := range agenda {
			item.ID = ""
			item.TemplateID = copyTpl.ID
			item.SortOrder = i
			item.CreatedAt = time.Time{}
			if err := s.agenda.Create(ctx, tx, &item); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to copy agenda item")
			}
			copyAgenda = append(copyAgenda, item)
		}

		ordering.SortItems(positions, models.PositionRequirement.OrderEntry)
		copyPositions = make([]models.PositionRequirement, 0, len(positions))
		for i, position := range positions {
			position.ID = ""
			position.TemplateID = copyTpl.ID
			position.SortOrder = i
			position.CreatedAt = time.Time{}
			if err := s.positions.Create(ctx, tx, &position); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to copy position")
			}
			copyPositions = append(copyPositions, position)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("event template duplicated",
		zap.String("template_id", id),
		zap.String("copy_id", copyTpl.ID),
		zap.Int("agenda_items", len(copyAgenda)),
		zap.Int("positions", len(copyPositions)),
	)
	return s.detail(copyTpl, copyAgenda, copyPositions), nil
}

func (s *TemplateService) applyHeader(tpl *models.EventTemplate, req dto.TemplateHeaderRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event template payload")
	}
	tpl.Name = req.Name
	tpl.Description = trimOptional(req.Description)
	tpl.EventType = models.EventType(strings.ToLower(req.EventType))
	tpl.LocationID = trimOptional(req.LocationID)
	tpl.ResponsiblePersonID = trimOptional(req.ResponsiblePersonID)
	tpl.CampusID = trimOptional(req.CampusID)
	tpl.DefaultStartTime = req.DefaultStartTime
	tpl.DefaultDurationMinutes = req.DefaultDurationMinutes
	tpl.Visibility = models.Visibility(strings.ToLower(req.Visibility))
	tpl.InvitedUserIDs = uniqueStrings(req.InvitedUserIDs)
	return nil
}

func (s *TemplateService) warnIncomplete(tpl *models.EventTemplate) {
	if IncompletelyConfigured(tpl.Visibility, tpl.InvitedUserIDs) {
		s.logger.Warn("hidden event template has no invitees", zap.String("template_id", tpl.ID))
	}
}

func (s *TemplateService) detail(tpl models.EventTemplate, agenda []models.AgendaItem, positions []models.PositionRequirement) *dto.TemplateDetail {
	if agenda == nil {
		agenda = []models.AgendaItem{}
	}
	if positions == nil {
		positions = []models.PositionRequirement{}
	}
	if tpl.InvitedUserIDs == nil {
		tpl.InvitedUserIDs = []string{}
	}
	return &dto.TemplateDetail{
		EventTemplate: tpl,
		Agenda:        agenda,
		Positions:     positions,
		Warnings:      visibilityWarnings(tpl.Visibility, tpl.InvitedUserIDs),
	}
}

func (s *TemplateService) renderDescriptions(detail *dto.TemplateDetail) {
	html, err := markdown.RenderPtr(detail.Description)
	if err != nil {
		s.logger.Warn("template description not rendered", zap.String("template_id", detail.ID), zap.Error(err))
	}
	detail.DescriptionHTML = html
	for i := range detail.Agenda {
		html, err := markdown.RenderPtr(detail.Agenda[i].Description)
		if err != nil {
			s.logger.Warn("agenda description not rendered", zap.String("item_id", detail.Agenda[i].ID), zap.Error(err))
		}
		detail.Agenda[i].DescriptionHTML = html
	}
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func uniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
