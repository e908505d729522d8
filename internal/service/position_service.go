package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/pkg/database"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

const minQuantity = 1

var errPositionNotFound = appErrors.Clone(appErrors.ErrNotFound, "position not found")

// PositionService manages the staffing requirements of a template.
type PositionService struct {
	templates templateStore
	positions positionStore
	catalog   ministryCatalog
	snapshots *TemplateSnapshotter
	tx        txProvider
	access    TemplateAccess
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPositionService constructs the service.
func NewPositionService(templates templateStore, positions positionStore, catalog ministryCatalog, snapshots *TemplateSnapshotter, tx txProvider, access TemplateAccess, validate *validator.Validate, logger *zap.Logger) *PositionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PositionService{
		templates: templates,
		positions: positions,
		catalog:   catalog,
		snapshots: snapshots,
		tx:        tx,
		access:    access,
		validator: validate,
		logger:    logger,
	}
}

// List returns the positions of a readable template in display order.
func (s *PositionService) List(ctx context.Context, principal models.Principal, templateID string) ([]models.PositionRequirement, error) {
	if _, err := s.access.loadForRead(ctx, s.templates, principal, templateID); err != nil {
		return nil, err
	}
	positions, err := s.positions.ListByTemplate(ctx, nil, templateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load positions")
	}
	ordering.SortItems(positions, models.PositionRequirement.OrderEntry)
	return positions, nil
}

// Add appends a requirement for a (ministry, role) pair not yet on the template.
func (s *PositionService) Add(ctx context.Context, principal models.Principal, templateID string, req dto.PositionRequest) (*models.PositionRequirement, error) {
	if err := s.access.requireWrite(principal); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid position payload")
	}
	roleID := trimOptional(req.RoleID)
	title, err := s.resolveTitle(ctx, principal.ChurchID, req.MinistryID, roleID)
	if err != nil {
		return nil, err
	}
	quantity := minQuantity
	if req.QuantityNeeded != nil {
		quantity = clampQuantity(*req.QuantityNeeded)
	}
	position := &models.PositionRequirement{
		TemplateID:     templateID,
		MinistryID:     req.MinistryID,
		RoleID:         roleID,
		Title:          title,
		QuantityNeeded: quantity,
		Notes:          trimOptional(req.Notes),
	}

	err = s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		existing, err := s.positions.FindByPair(ctx, tx, templateID, position.MinistryID, position.RoleID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load position")
		}
		if existing != nil {
			return appErrors.ErrDuplicatePosition
		}
		next, err := nextSortOrder(ctx, tx, s.positions, templateID)
		if err != nil {
			return err
		}
		position.SortOrder = next
		return s.create(ctx, tx, position)
	})
	if err != nil {
		return nil, err
	}
	return position, nil
}

// AddBatch adds every pair that is not already present. Pairs already on the
// template or repeated within the batch are skipped, never failing the batch.
func (s *PositionService) AddBatch(ctx context.Context, principal models.Principal, templateID string, req dto.BatchPositionRequest) (*dto.BatchPositionResult, error) {
	if err := s.access.requireWrite(principal); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid position batch payload")
	}

	type candidate struct {
		pair  dto.PositionPair
		title string
	}
	candidates := make([]candidate, 0, len(req.Pairs))
	for _, pair := range req.Pairs {
		pair.RoleID = trimOptional(pair.RoleID)
		title, err := s.resolveTitle(ctx, principal.ChurchID, pair.MinistryID, pair.RoleID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate{pair: pair, title: title})
	}

	result := &dto.BatchPositionResult{
		Added:   []models.PositionRequirement{},
		Skipped: []dto.SkippedPosition{},
	}
	err := s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		existing, err := s.positions.ListByTemplate(ctx, tx, templateID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load positions")
		}
		present := make(map[string]struct{}, len(existing))
		for _, position := range existing {
			present[position.PairKey()] = struct{}{}
		}
		seen := make(map[string]struct{}, len(candidates))
		next := ordering.NextSortOrder(ordering.Collect(existing, models.PositionRequirement.OrderEntry))

		for _, c := range candidates {
			key := models.PositionPairKey(c.pair.MinistryID, c.pair.RoleID)
			if _, ok := present[key]; ok {
				result.Skipped = append(result.Skipped, dto.SkippedPosition{MinistryID: c.pair.MinistryID, RoleID: c.pair.RoleID, Reason: dto.SkipReasonAlreadyAdded})
				continue
			}
			if _, ok := seen[key]; ok {
				result.Skipped = append(result.Skipped, dto.SkippedPosition{MinistryID: c.pair.MinistryID, RoleID: c.pair.RoleID, Reason: dto.SkipReasonDuplicateInBatch})
				continue
			}
			seen[key] = struct{}{}

			position := models.PositionRequirement{
				TemplateID:     templateID,
				MinistryID:     c.pair.MinistryID,
				RoleID:         c.pair.RoleID,
				Title:          c.title,
				QuantityNeeded: minQuantity,
				SortOrder:      next,
			}
			if err := s.create(ctx, tx, &position); err != nil {
				return err
			}
			next++
			result.Added = append(result.Added, position)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("position batch applied",
		zap.String("template_id", templateID),
		zap.Int("added", len(result.Added)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// UpdateQuantity sets or adjusts the quantity of a position depending on the request.
func (s *PositionService) UpdateQuantity(ctx context.Context, principal models.Principal, templateID, positionID string, req dto.QuantityRequest) (*models.PositionRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quantity payload")
	}
	if req.Quantity != nil {
		return s.SetQuantity(ctx, principal, templateID, positionID, *req.Quantity)
	}
	return s.Adjust(ctx, principal, templateID, positionID, *req.Delta)
}

// SetQuantity stores quantity, clamped to at least one.
func (s *PositionService) SetQuantity(ctx context.Context, principal models.Principal, templateID, positionID string, quantity int) (*models.PositionRequirement, error) {
	return s.changeQuantity(ctx, principal, templateID, positionID, func(int) int { return quantity })
}

// Adjust moves the quantity by delta. The result never drops below one.
func (s *PositionService) Adjust(ctx context.Context, principal models.Principal, templateID, positionID string, delta int) (*models.PositionRequirement, error) {
	return s.changeQuantity(ctx, principal, templateID, positionID, func(current int) int { return current + delta })
}

// Increment adds one to the quantity.
func (s *PositionService) Increment(ctx context.Context, principal models.Principal, templateID, positionID string) (*models.PositionRequirement, error) {
	return s.Adjust(ctx, principal, templateID, positionID, 1)
}

// Decrement removes one from the quantity; at one it leaves the position unchanged.
func (s *PositionService) Decrement(ctx context.Context, principal models.Principal, templateID, positionID string) (*models.PositionRequirement, error) {
	return s.Adjust(ctx, principal, templateID, positionID, -1)
}

// Remove deletes a position. Remaining positions keep their sort keys.
func (s *PositionService) Remove(ctx context.Context, principal models.Principal, templateID, positionID string) error {
	return s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		if err := s.positions.Delete(ctx, tx, templateID, positionID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errPositionNotFound
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete position")
		}
		return nil
	})
}

// Reorder applies a full permutation of the positions.
func (s *PositionService) Reorder(ctx context.Context, principal models.Principal, templateID string, req dto.ReorderRequest) ([]models.PositionRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reorder payload")
	}
	var positions []models.PositionRequirement
	err := s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		if err := reorderCollection(ctx, tx, s.positions, templateID, req.IDs); err != nil {
			return err
		}
		return s.reload(ctx, tx, templateID, &positions)
	})
	if err != nil {
		return nil, err
	}
	return positions, nil
}

// Move shifts a position one step up or down.
func (s *PositionService) Move(ctx context.Context, principal models.Principal, templateID, positionID string, req dto.MoveRequest) ([]models.PositionRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	var positions []models.PositionRequirement
	err := s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		if err := moveInCollection(ctx, tx, s.positions, templateID, positionID, ordering.Direction(req.Direction)); err != nil {
			if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
				return errPositionNotFound
			}
			return err
		}
		return s.reload(ctx, tx, templateID, &positions)
	})
	if err != nil {
		return nil, err
	}
	return positions, nil
}

func (s *PositionService) changeQuantity(ctx context.Context, principal models.Principal, templateID, positionID string, next func(current int) int) (*models.PositionRequirement, error) {
	if err := s.access.requireWrite(principal); err != nil {
		return nil, err
	}
	var position *models.PositionRequirement
	err := s.mutate(ctx, principal, templateID, func(tx *sqlx.Tx) error {
		current, err := s.positions.FindByID(ctx, tx, templateID, positionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errPositionNotFound
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load position")
		}
		quantity := clampQuantity(next(current.QuantityNeeded))
		if quantity != current.QuantityNeeded {
			if err := s.positions.UpdateQuantity(ctx, tx, templateID, positionID, quantity); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return errPositionNotFound
				}
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update quantity")
			}
			current.QuantityNeeded = quantity
		}
		position = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return position, nil
}

func (s *PositionService) create(ctx context.Context, tx *sqlx.Tx, position *models.PositionRequirement) error {
	if err := s.positions.Create(ctx, tx, position); err != nil {
		if database.IsUniqueViolation(err) {
			return appErrors.ErrDuplicatePosition
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create position")
	}
	return nil
}

// resolveTitle names a position after its role, or its ministry when no role is set.
func (s *PositionService) resolveTitle(ctx context.Context, churchID, ministryID string, roleID *string) (string, error) {
	ministry, err := s.catalog.FindMinistry(ctx, churchID, ministryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrValidation, "unknown ministry")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ministry")
	}
	if roleID == nil {
		return ministry.Name, nil
	}
	role, err := s.catalog.FindRole(ctx, ministry.ID, *roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrValidation, "unknown ministry role")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ministry role")
	}
	return role.Name, nil
}

func (s *PositionService) mutate(ctx context.Context, principal models.Principal, templateID string, fn func(tx *sqlx.Tx) error) error {
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

func (s *PositionService) reload(ctx context.Context, exec sqlx.ExtContext, templateID string, dest *[]models.PositionRequirement) error {
	positions, err := s.positions.ListByTemplate(ctx, exec, templateID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load positions")
	}
	ordering.SortItems(positions, models.PositionRequirement.OrderEntry)
	*dest = positions
	return nil
}

func clampQuantity(quantity int) int {
	if quantity < minQuantity {
		return minQuantity
	}
	return quantity
}
