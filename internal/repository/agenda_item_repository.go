package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

const agendaColumns = `id, template_id, title, description, duration_seconds, is_song_placeholder, ministry_id, sort_order, created_at, updated_at`

// AgendaItemRepository persists the run of show of event templates.
type AgendaItemRepository struct {
	db *sqlx.DB
}

// NewAgendaItemRepository constructs the repository.
func NewAgendaItemRepository(db *sqlx.DB) *AgendaItemRepository {
	return &AgendaItemRepository{db: db}
}

func (r *AgendaItemRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByTemplate returns a template's agenda in display order.
func (r *AgendaItemRepository) ListByTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]models.AgendaItem, error) {
	query := `SELECT ` + agendaColumns + ` FROM event_template_agenda_items WHERE template_id = $1 ORDER BY sort_order ASC, id ASC`
	items := []models.AgendaItem{}
	if err := sqlx.SelectContext(ctx, r.exec(exec), &items, query, templateID); err != nil {
		return nil, fmt.Errorf("list agenda items: %w", err)
	}
	return items, nil
}

// FindByID returns one agenda item of a template.
func (r *AgendaItemRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, templateID, id string) (*models.AgendaItem, error) {
	query := `SELECT ` + agendaColumns + ` FROM event_template_agenda_items WHERE template_id = $1 AND id = $2`
	var item models.AgendaItem
	if err := sqlx.GetContext(ctx, r.exec(exec), &item, query, templateID, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts an agenda item with the sort key already assigned.
func (r *AgendaItemRepository) Create(ctx context.Context, exec sqlx.ExtContext, item *models.AgendaItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO event_template_agenda_items (id, template_id, title, description, duration_seconds, is_song_placeholder, ministry_id, sort_order, created_at, updated_at)
VALUES (:id, :template_id, :title, :description, :duration_seconds, :is_song_placeholder, :ministry_id, :sort_order, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, item); err != nil {
		return fmt.Errorf("create agenda item: %w", err)
	}
	return nil
}

// Update rewrites the content of an agenda item. The sort key is left untouched.
func (r *AgendaItemRepository) Update(ctx context.Context, exec sqlx.ExtContext, item *models.AgendaItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE event_template_agenda_items SET title = :title, description = :description, duration_seconds = :duration_seconds,
is_song_placeholder = :is_song_placeholder, ministry_id = :ministry_id, updated_at = :updated_at
WHERE template_id = :template_id AND id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, item)
	if err != nil {
		return fmt.Errorf("update agenda item: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an agenda item without renumbering its siblings.
func (r *AgendaItemRepository) Delete(ctx context.Context, exec sqlx.ExtContext, templateID, id string) error {
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM event_template_agenda_items WHERE template_id = $1 AND id = $2", templateID, id)
	if err != nil {
		return fmt.Errorf("delete agenda item: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListOrder locks and returns the sort keys of a template's agenda.
func (r *AgendaItemRepository) ListOrder(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]ordering.Entry, error) {
	return listOrder(ctx, r.exec(exec), "event_template_agenda_items", templateID)
}

// UpdateSortOrders persists changed sort keys.
func (r *AgendaItemRepository) UpdateSortOrders(ctx context.Context, exec sqlx.ExtContext, templateID string, entries []ordering.Entry) error {
	return updateSortOrders(ctx, r.exec(exec), "event_template_agenda_items", templateID, entries)
}

func listOrder(ctx context.Context, exec sqlx.ExtContext, table, templateID string) ([]ordering.Entry, error) {
	query := fmt.Sprintf(`SELECT id, sort_order FROM %s WHERE template_id = $1 ORDER BY sort_order ASC, id ASC FOR UPDATE`, table)
	entries := []ordering.Entry{}
	if err := sqlx.SelectContext(ctx, exec, &entries, query, templateID); err != nil {
		return nil, fmt.Errorf("load %s order: %w", table, err)
	}
	return entries, nil
}

func updateSortOrders(ctx context.Context, exec sqlx.ExtContext, table, templateID string, entries []ordering.Entry) error {
	query := fmt.Sprintf(`UPDATE %s SET sort_order = $1, updated_at = $2 WHERE template_id = $3 AND id = $4`, table)
	now := time.Now().UTC()
	for _, entry := range entries {
		if _, err := exec.ExecContext(ctx, query, entry.SortOrder, now, templateID, entry.ID); err != nil {
			return fmt.Errorf("update %s sort order: %w", table, err)
		}
	}
	return nil
}
