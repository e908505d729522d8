package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/church-ops-api/internal/models"
)

// MinistryRepository is a read-only view of the ministry and role catalog.
type MinistryRepository struct {
	db *sqlx.DB
}

// NewMinistryRepository constructs the repository.
func NewMinistryRepository(db *sqlx.DB) *MinistryRepository {
	return &MinistryRepository{db: db}
}

// FindMinistry returns a ministry of the church.
func (r *MinistryRepository) FindMinistry(ctx context.Context, churchID, id string) (*models.Ministry, error) {
	const query = `SELECT id, church_id, name FROM ministries WHERE church_id = $1 AND id = $2`
	var ministry models.Ministry
	if err := r.db.GetContext(ctx, &ministry, query, churchID, id); err != nil {
		return nil, err
	}
	return &ministry, nil
}

// FindRole returns a role belonging to the given ministry.
func (r *MinistryRepository) FindRole(ctx context.Context, ministryID, id string) (*models.MinistryRole, error) {
	const query = `SELECT id, ministry_id, name FROM ministry_roles WHERE ministry_id = $1 AND id = $2`
	var role models.MinistryRole
	if err := r.db.GetContext(ctx, &role, query, ministryID, id); err != nil {
		return nil, err
	}
	return &role, nil
}
