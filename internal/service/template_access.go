package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type templateStore interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.EventTemplate, int, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, churchID, id string) (*models.EventTemplate, error)
	Create(ctx context.Context, exec sqlx.ExtContext, tpl *models.EventTemplate) error
	Update(ctx context.Context, exec sqlx.ExtContext, tpl *models.EventTemplate) error
	Delete(ctx context.Context, exec sqlx.ExtContext, churchID, id string) error
	Touch(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type sortOrderStore interface {
	ListOrder(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]ordering.Entry, error)
	UpdateSortOrders(ctx context.Context, exec sqlx.ExtContext, templateID string, entries []ordering.Entry) error
}

type agendaStore interface {
	sortOrderStore
	ListByTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]models.AgendaItem, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, templateID, id string) (*models.AgendaItem, error)
	Create(ctx context.Context, exec sqlx.ExtContext, item *models.AgendaItem) error
	Update(ctx context.Context, exec sqlx.ExtContext, item *models.AgendaItem) error
	Delete(ctx context.Context, exec sqlx.ExtContext, templateID, id string) error
}

type positionStore interface {
	sortOrderStore
	ListByTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]models.PositionRequirement, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, templateID, id string) (*models.PositionRequirement, error)
	FindByPair(ctx context.Context, exec sqlx.ExtContext, templateID, ministryID string, roleID *string) (*models.PositionRequirement, error)
	Create(ctx context.Context, exec sqlx.ExtContext, position *models.PositionRequirement) error
	UpdateQuantity(ctx context.Context, exec sqlx.ExtContext, templateID, id string, quantity int) error
	Delete(ctx context.Context, exec sqlx.ExtContext, templateID, id string) error
}

type ministryCatalog interface {
	FindMinistry(ctx context.Context, churchID, id string) (*models.Ministry, error)
	FindRole(ctx context.Context, ministryID, id string) (*models.MinistryRole, error)
}

// withinTx runs fn inside a transaction, rolling back when fn or the commit fails.
func withinTx(ctx context.Context, provider txProvider, fn func(tx *sqlx.Tx) error) (err error) {
	if provider == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := provider.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}

// TemplateAccess pairs the visibility policy with the ranks required to write and delete templates.
type TemplateAccess struct {
	Policy     VisibilityPolicy
	WriteRank  int
	DeleteRank int
}

// NewTemplateAccess resolves the configured write and delete roles through rank.
// Unknown roles fall back to leader for writes and admin for deletes.
func NewTemplateAccess(rank models.RankFunc, writeRole, deleteRole string) TemplateAccess {
	if rank == nil {
		rank = models.DefaultRank
	}
	writeRank := 0
	if role, ok := models.ParseMemberRole(writeRole); ok {
		writeRank = rank(role)
	}
	if writeRank <= 0 {
		writeRank = rank(models.RoleLeader)
	}
	deleteRank := 0
	if role, ok := models.ParseMemberRole(deleteRole); ok {
		deleteRank = rank(role)
	}
	if deleteRank <= 0 {
		deleteRank = rank(models.RoleAdmin)
	}
	if deleteRank < writeRank {
		deleteRank = writeRank
	}
	return TemplateAccess{
		Policy:     NewVisibilityPolicy(ThresholdsFromRank(rank)),
		WriteRank:  writeRank,
		DeleteRank: deleteRank,
	}
}

var errAccessDenied = appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to perform this action")

func (a TemplateAccess) requireWrite(principal models.Principal) error {
	if !a.Policy.CanWrite(principal, a.WriteRank) {
		return errAccessDenied
	}
	return nil
}

func (a TemplateAccess) requireDelete(principal models.Principal) error {
	if !a.Policy.CanDelete(principal, a.DeleteRank) {
		return errAccessDenied
	}
	return nil
}

func (a TemplateAccess) canRead(principal models.Principal, tpl *models.EventTemplate) bool {
	return a.Policy.CanRead(principal, tpl.Visibility, tpl.InvitedUserIDs)
}

// loadForWrite fetches a template the caller is about to change. Missing and
// unreadable templates both come back as the generic denial.
func (a TemplateAccess) loadForWrite(ctx context.Context, templates templateStore, exec sqlx.ExtContext, principal models.Principal, id string) (*models.EventTemplate, error) {
	if err := a.requireWrite(principal); err != nil {
		return nil, err
	}
	return a.loadMutable(ctx, templates, exec, principal, id)
}

func (a TemplateAccess) loadMutable(ctx context.Context, templates templateStore, exec sqlx.ExtContext, principal models.Principal, id string) (*models.EventTemplate, error) {
	tpl, err := templates.FindByID(ctx, exec, principal.ChurchID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errAccessDenied
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event template")
	}
	if !a.canRead(principal, tpl) {
		return nil, errAccessDenied
	}
	return tpl, nil
}

// loadForRead fetches a template for display. Unreadable templates look missing.
func (a TemplateAccess) loadForRead(ctx context.Context, templates templateStore, principal models.Principal, id string) (*models.EventTemplate, error) {
	tpl, err := templates.FindByID(ctx, nil, principal.ChurchID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTemplateNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event template")
	}
	if !a.canRead(principal, tpl) {
		return nil, appErrors.ErrTemplateNotFound
	}
	return tpl, nil
}
