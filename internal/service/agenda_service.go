package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

const songPlaceholderTitle = "Song"

var errAgendaItemNotFound = appErrors.Clone(appErrors.ErrNotFound, "agenda item not found")

// AgendaService edits the run of show of a template.
type AgendaService struct {
	templates templateStore
	agenda    agendaStore
	catalog   ministryCatalog
	snapshots *TemplateSnapshotter
	tx        txProvider
	access    TemplateAccess
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAgendaService constructs the service.
func NewAgendaService(templates templateStore, agenda agendaStore, catalog ministryCatalog, snapshots *TemplateSnapshotter, tx txProvider, access TemplateAccess, validate *validator.Validate, logger *zap.Logger) *AgendaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgendaService{
		templates: templates,
		agenda:    agenda,
		catalog:   catalog,
		snapshots: snapshots,
		tx:        tx,
		access:    access,
		validator: validate,
		logger:    logger,
	}
}

// List returns the agenda of a readable template in display order.
func (s *AgendaService) List(ctx context.Context, principal models.Principal, templateID string) ([]models.AgendaItem, error) {
	if _, err := s.access.loadForRead(ctx, s.templates, principal, templateID); err != nil {
		return nil, err
	}
	items, err := s.agenda.ListByTemplate(ctx, nil, templateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agenda")
	}
	ordering.SortItems(items, models.AgendaItem.OrderEntry)
	return items, nil
}

// Add appends an item to the end of the agenda.
func (s *AgendaService) Add(ctx context.Context, principal models.Principal, templateID string, req dto.AgendaItemRequest) (*models.AgendaItem, error) {
	if err := s.access.requireWrite(principal); err != nil {
		return nil, err
	}
	item := &models.AgendaItem{TemplateID: templateID}
	if err := s.apply(ctx, principal, item, req); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		next, err := nextSortOrder(ctx, tx, s.agenda, templateID)
		if err != nil {
			return err
		}
		item.SortOrder = next
		if err := s.agenda.Create(ctx, tx, item); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create agenda item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update edits the content of an item. Its position in the agenda never changes.
func (s *AgendaService) Update(ctx context.Context, principal models.Principal, templateID, itemID string, req dto.AgendaItemRequest) (*models.AgendaItem, error) {
	if err := s.access.requireWrite(principal); err != nil {
		return nil, err
	}
	var updated *models.AgendaItem
	err := s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		item, err := s.agenda.FindByID(ctx, tx, templateID, itemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errAgendaItemNotFound
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agenda item")
		}
		if err := s.apply(ctx, principal, item, req); err != nil {
			return err
		}
		if err := s.agenda.Update(ctx, tx, item); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errAgendaItemNotFound
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update agenda item")
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove deletes an item. Remaining items keep their sort keys.
func (s *AgendaService) Remove(ctx context.Context, principal models.Principal, templateID, itemID string) error {
	return s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		if err := s.agenda.Delete(ctx, tx, templateID, itemID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errAgendaItemNotFound
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete agenda item")
		}
		return nil
	})
}

// Reorder applies a full permutation of the agenda.
func (s *AgendaService) Reorder(ctx context.Context, principal models.Principal, templateID string, req dto.ReorderRequest) ([]models.AgendaItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reorder payload")
	}
	var items []models.AgendaItem
	err := s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		if err := reorderCollection(ctx, tx, s.agenda, templateID, req.IDs); err != nil {
			return err
		}
		return s.reload(ctx, tx, templateID, &items)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Move shifts an item one step up or down.
func (s *AgendaService) Move(ctx context.Context, principal models.Principal, templateID, itemID string, req dto.MoveRequest) ([]models.AgendaItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	var items []models.AgendaItem
	err := s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		if err := moveInCollection(ctx, tx, s.agenda, templateID, itemID, ordering.Direction(req.Direction)); err != nil {
			if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
				return errAgendaItemNotFound
			}
			return err
		}
		return s.reload(ctx, tx, templateID, &items)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// mutate runs fn in a transaction after confirming the caller may edit the template,
// then bumps the template and drops its cached snapshot.
func (s *AgendaService) mutate(ctx context.Context, principal models.Principal, templateID string, fn func(tx *sqlx.Tx) error) error {
	err := withinTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if _, err := s.access.loadForWrite(ctx, s.templates, tx, principal, templateID); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		if err := s.templates.Touch(ctx, tx, templateID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event template")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.snapshots.Forget(ctx, principal.ChurchID, templateID)
	return nil
}

func (s *AgendaService) reload(ctx context.Context, exec sqlx.ExtContext, templateID string, dest *[]models.AgendaItem) error {
	items, err := s.agenda.ListByTemplate(ctx, exec, templateID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agenda")
	}
	ordering.SortItems(items, models.AgendaItem.OrderEntry)
	*dest = items
	return nil
}

// apply validates req and copies it onto item.
func (s *AgendaService) apply(ctx context.Context, principal models.Principal, item *models.AgendaItem, req dto.AgendaItemRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid agenda item payload")
	}
	title := strings.TrimSpace(req.Title)
	ministryID := trimOptional(req.MinistryID)

	if req.IsSongPlaceholder {
		if ministryID != nil {
			return appErrors.Clone(appErrors.ErrValidation, "song placeholders cannot be assigned to a ministry")
		}
		if title == "" {
			title = songPlaceholderTitle
		}
		item.DurationSeconds = models.DefaultSongPlaceholderSeconds
		if req.DurationSeconds != nil {
			item.DurationSeconds = *req.DurationSeconds
		}
	} else {
		if title == "" {
			return appErrors.Clone(appErrors.ErrValidation, "title is required")
		}
		if req.DurationSeconds == nil {
			return appErrors.Clone(appErrors.ErrValidation, "durationSeconds is required")
		}
		item.DurationSeconds = *req.DurationSeconds
		if ministryID != nil {
			if err := s.checkMinistry(ctx, principal.ChurchID, *ministryID); err != nil {
				return err
			}
		}
	}

	item.Title = title
	item.Description = trimOptional(req.Description)
	item.IsSongPlaceholder = req.IsSongPlaceholder
	item.MinistryID = ministryID
	return nil
}

func (s *AgendaService) checkMinistry(ctx context.Context, churchID, ministryID string) error {
	if s.catalog == nil {
		return nil
	}
	if _, err := s.catalog.FindMinistry(ctx, churchID, ministryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown ministry")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ministry")
	}
	return nil
}
