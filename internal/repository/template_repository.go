package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/church-ops-api/internal/models"
)

const templateColumns = `id, church_id, name, description, event_type, location_id, responsible_person_id, campus_id,
default_start_time, default_duration_minutes, visibility, created_by, created_at, updated_at`

// TemplateRepository persists event template headers and their invite lists.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs a template repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns templates of a church readable under the filter's visibility levels.
func (r *TemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.EventTemplate, int, error) {
	where := []string{"t.church_id = $1"}
	args := []interface{}{filter.ChurchID}

	levels := make([]string, len(filter.Levels))
	for i, level := range filter.Levels {
		levels[i] = string(level)
	}
	if filter.InviteeID != "" {
		where = append(where, fmt.Sprintf(`(t.visibility = ANY($%d) OR (t.visibility = 'hidden' AND EXISTS (
SELECT 1 FROM event_template_invitees i WHERE i.template_id = t.id AND i.user_id = $%d)))`, len(args)+1, len(args)+2))
		args = append(args, pq.Array(levels), filter.InviteeID)
	} else {
		where = append(where, fmt.Sprintf("t.visibility = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(levels))
	}
	if filter.EventType != nil {
		where = append(where, fmt.Sprintf("t.event_type = $%d", len(args)+1))
		args = append(args, string(*filter.EventType))
	}
	if filter.CampusID != nil {
		where = append(where, fmt.Sprintf("(t.campus_id = $%d OR t.campus_id IS NULL)", len(args)+1))
		args = append(args, *filter.CampusID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = append(where, fmt.Sprintf("t.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT t.id, t.church_id, t.name, t.description, t.event_type, t.location_id, t.responsible_person_id, t.campus_id,
t.default_start_time, t.default_duration_minutes, t.visibility, t.created_by, t.created_at, t.updated_at
FROM event_templates t WHERE %s ORDER BY t.name ASC, t.id ASC LIMIT %d OFFSET %d`, whereClause, size, offset)
	var templates []models.EventTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list event templates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM event_templates t WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count event templates: %w", err)
	}

	if err := r.attachInvitees(ctx, r.db, templates); err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

// FindByID returns a template with its invitees.
func (r *TemplateRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, churchID, id string) (*models.EventTemplate, error) {
	target := r.exec(exec)
	query := `SELECT ` + templateColumns + ` FROM event_templates WHERE church_id = $1 AND id = $2`
	var tpl models.EventTemplate
	if err := sqlx.GetContext(ctx, target, &tpl, query, churchID, id); err != nil {
		return nil, err
	}
	single := []models.EventTemplate{tpl}
	if err := r.attachInvitees(ctx, target, single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

// Create inserts a template header and its invitees.
func (r *TemplateRepository) Create(ctx context.Context, exec sqlx.ExtContext, tpl *models.EventTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now

	target := r.exec(exec)
	const query = `INSERT INTO event_templates (id, church_id, name, description, event_type, location_id, responsible_person_id, campus_id,
default_start_time, default_duration_minutes, visibility, created_by, created_at, updated_at)
VALUES (:id, :church_id, :name, :description, :event_type, :location_id, :responsible_person_id, :campus_id,
:default_start_time, :default_duration_minutes, :visibility, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, tpl); err != nil {
		return fmt.Errorf("create event template: %w", err)
	}
	return r.insertInvitees(ctx, target, tpl.ID, tpl.InvitedUserIDs)
}

// Update rewrites a template header and replaces its invite list.
func (r *TemplateRepository) Update(ctx context.Context, exec sqlx.ExtContext, tpl *models.EventTemplate) error {
	tpl.UpdatedAt = time.Now().UTC()
	target := r.exec(exec)
	const query = `UPDATE event_templates SET name = :name, description = :description, event_type = :event_type, location_id = :location_id,
responsible_person_id = :responsible_person_id, campus_id = :campus_id, default_start_time = :default_start_time,
default_duration_minutes = :default_duration_minutes, visibility = :visibility, updated_at = :updated_at
WHERE church_id = :church_id AND id = :id`
	res, err := sqlx.NamedExecContext(ctx, target, query, tpl)
	if err != nil {
		return fmt.Errorf("update event template: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	if _, err := target.ExecContext(ctx, "DELETE FROM event_template_invitees WHERE template_id = $1", tpl.ID); err != nil {
		return fmt.Errorf("clear event template invitees: %w", err)
	}
	return r.insertInvitees(ctx, target, tpl.ID, tpl.InvitedUserIDs)
}

// Delete removes a template. Agenda items, positions and invitees cascade.
func (r *TemplateRepository) Delete(ctx context.Context, exec sqlx.ExtContext, churchID, id string) error {
	res, err := r.exec(exec).ExecContext(ctx, "DELETE FROM event_templates WHERE church_id = $1 AND id = $2", churchID, id)
	if err != nil {
		return fmt.Errorf("delete event template: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Touch bumps updated_at after a change to the template's children.
func (r *TemplateRepository) Touch(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, err := r.exec(exec).ExecContext(ctx, "UPDATE event_templates SET updated_at = $1 WHERE id = $2", time.Now().UTC(), id); err != nil {
		return fmt.Errorf("touch event template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) insertInvitees(ctx context.Context, exec sqlx.ExtContext, templateID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	const query = `INSERT INTO event_template_invitees (template_id, user_id)
SELECT $1, unnest($2::text[]) ON CONFLICT DO NOTHING`
	if _, err := exec.ExecContext(ctx, query, templateID, pq.Array(userIDs)); err != nil {
		return fmt.Errorf("insert event template invitees: %w", err)
	}
	return nil
}

func (r *TemplateRepository) attachInvitees(ctx context.Context, exec sqlx.ExtContext, templates []models.EventTemplate) error {
	if len(templates) == 0 {
		return nil
	}
	ids := make([]string, len(templates))
	for i := range templates {
		ids[i] = templates[i].ID
		templates[i].InvitedUserIDs = []string{}
	}
	const query = `SELECT template_id, user_id FROM event_template_invitees WHERE template_id = ANY($1) ORDER BY user_id ASC`
	var rows []struct {
		TemplateID string `db:"template_id"`
		UserID     string `db:"user_id"`
	}
	if err := sqlx.SelectContext(ctx, exec, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("load event template invitees: %w", err)
	}
	index := make(map[string]int, len(templates))
	for i := range templates {
		index[templates[i].ID] = i
	}
	for _, row := range rows {
		if i, ok := index[row.TemplateID]; ok {
			templates[i].InvitedUserIDs = append(templates[i].InvitedUserIDs, row.UserID)
		}
	}
	return nil
}
