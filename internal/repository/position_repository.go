package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/pkg/database"
	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

const positionColumns = `id, template_id, ministry_id, role_id, title, quantity_needed, notes, sort_order, created_at, updated_at`

// PositionRepository persists the staffing requirements of event templates.
type PositionRepository struct {
	db *sqlx.DB
}

// NewPositionRepository constructs the repository.
func NewPositionRepository(db *sqlx.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByTemplate returns a template's positions in display order.
func (r *PositionRepository) ListByTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]models.PositionRequirement, error) {
	query := `SELECT ` + positionColumns + ` FROM event_template_positions WHERE template_id = $1 ORDER BY sort_order ASC, id ASC`
	positions := []models.PositionRequirement{}
	if err := sqlx.SelectContext(ctx, r.exec(exec), &positions, query, templateID); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// FindByID returns one position of a template.
func (r *PositionRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, templateID, id string) (*models.PositionRequirement, error) {
	query := `SELECT ` + positionColumns + ` FROM event_template_positions WHERE template_id = $1 AND id = $2`
	var position models.PositionRequirement
	if err := sqlx.GetContext(ctx, r.exec(exec), &position, query, templateID, id); err != nil {
		return nil, err
	}
	return &position, nil
}

// FindByPair returns the position holding a (ministry, role) pair, if any.
func (r *PositionRepository) FindByPair(ctx context.Context, exec sqlx.ExtContext, templateID, ministryID string, roleID *string) (*models.PositionRequirement, error) {
	query := `SELECT ` + positionColumns + ` FROM event_template_positions
WHERE template_id = $1 AND ministry_id = $2 AND role_id IS NOT DISTINCT FROM $3`
	var position models.PositionRequirement
	if err := sqlx.GetContext(ctx, r.exec(exec), &position, query, templateID, ministryID, roleID); err != nil {
		return nil, err
	}
	return &position, nil
}

// Create inserts a position. A second row for the same pair fails with database.ErrUniqueViolation.
func (r *PositionRepository) Create(ctx context.Context, exec sqlx.ExtContext, position *models.PositionRequirement) error {
	if position.ID == "" {
		position.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if position.CreatedAt.IsZero() {
		position.CreatedAt = now
	}
	position.UpdatedAt = now
	const query = `INSERT INTO event_template_positions (id, template_id, ministry_id, role_id, title, quantity_needed, notes, sort_order, created_at, updated_at)
VALUES (:id, :template_id, :ministry_id, :role_id, :title, :quantity_needed, :notes, :sort_order, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, position); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("create position: %w", database.ErrUniqueViolation)
		}
		return fmt.Errorf("create position: %w", err)
	}
	return nil
}

// UpdateQuantity overwrites quantity_needed. Concurrent writers are last-write-wins.
func (r *PositionRepository) UpdateQuantity(ctx context.Context, exec sqlx.ExtContext, templateID, id string, quantity int) error {
	const query = `UPDATE event_template_positions SET quantity_needed = $1, updated_at = $2 WHERE template_id = $3 AND id = $4`
	res, err := r.exec(exec).ExecContext(ctx, query, quantity, time.Now().UTC(), templateID, id)
	if err != nil {
		return fmt.Errorf("update position quantity: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a position without renumbering its siblings.
func (r *PositionRepository) Delete(ctx context.Context, exec sqlx.ExtContext, templateID, id string) error {
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM event_template_positions WHERE template_id = $1 AND id = $2", templateID, id)
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListOrder locks and returns the sort keys of a template's positions.
func (r *PositionRepository) ListOrder(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]ordering.Entry, error) {
	return listOrder(ctx, r.exec(exec), "event_template_positions", templateID)
}

// UpdateSortOrders persists changed sort keys.
func (r *PositionRepository) UpdateSortOrders(ctx context.Context, exec sqlx.ExtContext, templateID string, entries []ordering.Entry) error {
	return updateSortOrders(ctx, r.exec(exec), "event_template_positions", templateID, entries)
}
