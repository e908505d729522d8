package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/church-ops-api/internal/models"
)

const eventColumns = `id, church_id, source_template_id, name, description, event_type, location_id, responsible_person_id, campus_id,
visibility, status, starts_at, ends_at, created_by, created_at, updated_at`

// EventRepository persists dated events with their agenda and staffing slots.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts an event and its invitees.
func (r *EventRepository) Create(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Status == "" {
		event.Status = models.EventStatusPublished
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	target := r.exec(exec)
	const query = `INSERT INTO events (id, church_id, source_template_id, name, description, event_type, location_id, responsible_person_id, campus_id,
visibility, status, starts_at, ends_at, created_by, created_at, updated_at)
VALUES (:id, :church_id, :source_template_id, :name, :description, :event_type, :location_id, :responsible_person_id, :campus_id,
:visibility, :status, :starts_at, :ends_at, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if len(event.InvitedUserIDs) == 0 {
		return nil
	}
	const inviteQuery = `INSERT INTO event_invitees (event_id, user_id)
SELECT $1, unnest($2::text[]) ON CONFLICT DO NOTHING`
	if _, err := target.ExecContext(ctx, inviteQuery, event.ID, pq.Array(event.InvitedUserIDs)); err != nil {
		return fmt.Errorf("insert event invitees: %w", err)
	}
	return nil
}

// CreateAgenda inserts an event's agenda items.
func (r *EventRepository) CreateAgenda(ctx context.Context, exec sqlx.ExtContext, items []models.EventAgendaItem) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	const query = `INSERT INTO event_agenda_items (id, event_id, title, description, duration_seconds, is_song_placeholder, song_id, ministry_id, sort_order, created_at)
VALUES (:id, :event_id, :title, :description, :duration_seconds, :is_song_placeholder, :song_id, :ministry_id, :sort_order, :created_at)`
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, item); err != nil {
			return fmt.Errorf("create event agenda item: %w", err)
		}
	}
	return nil
}

// CreatePositions inserts an event's open staffing slots.
func (r *EventRepository) CreatePositions(ctx context.Context, exec sqlx.ExtContext, positions []models.EventPosition) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	const query = `INSERT INTO event_positions (id, event_id, ministry_id, role_id, title, quantity_needed, quantity_filled, notes, sort_order, created_at)
VALUES (:id, :event_id, :ministry_id, :role_id, :title, :quantity_needed, :quantity_filled, :notes, :sort_order, :created_at)`
	for i := range positions {
		position := &positions[i]
		if position.ID == "" {
			position.ID = uuid.NewString()
		}
		if position.CreatedAt.IsZero() {
			position.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, position); err != nil {
			return fmt.Errorf("create event position: %w", err)
		}
	}
	return nil
}

// List returns events of a church in chronological order.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	where := []string{"e.church_id = $1"}
	args := []interface{}{filter.ChurchID}

	levels := make([]string, len(filter.Levels))
	for i, level := range filter.Levels {
		levels[i] = string(level)
	}
	if filter.InviteeID != "" {
		where = append(where, fmt.Sprintf(`(e.visibility = ANY($%d) OR (e.visibility = 'hidden' AND EXISTS (
SELECT 1 FROM event_invitees i WHERE i.event_id = e.id AND i.user_id = $%d)))`, len(args)+1, len(args)+2))
		args = append(args, pq.Array(levels), filter.InviteeID)
	} else {
		where = append(where, fmt.Sprintf("e.visibility = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(levels))
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("e.ends_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("e.starts_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.church_id, e.source_template_id, e.name, e.description, e.event_type, e.location_id, e.responsible_person_id, e.campus_id,
e.visibility, e.status, e.starts_at, e.ends_at, e.created_by, e.created_at, e.updated_at
FROM events e WHERE %s ORDER BY e.starts_at ASC, e.id ASC LIMIT %d OFFSET %d`, whereClause, size, offset)
	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events e WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	if err := r.attachInvitees(ctx, events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// FindByID returns an event with its invitees.
func (r *EventRepository) FindByID(ctx context.Context, churchID, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE church_id = $1 AND id = $2`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, churchID, id); err != nil {
		return nil, err
	}
	single := []models.Event{event}
	if err := r.attachInvitees(ctx, single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

// ListAgenda returns an event's agenda in order.
func (r *EventRepository) ListAgenda(ctx context.Context, eventID string) ([]models.EventAgendaItem, error) {
	const query = `SELECT id, event_id, title, description, duration_seconds, is_song_placeholder, song_id, ministry_id, sort_order, created_at
FROM event_agenda_items WHERE event_id = $1 ORDER BY sort_order ASC, id ASC`
	items := []models.EventAgendaItem{}
	if err := r.db.SelectContext(ctx, &items, query, eventID); err != nil {
		return nil, fmt.Errorf("list event agenda: %w", err)
	}
	return items, nil
}

// ListPositions returns an event's staffing slots in order.
func (r *EventRepository) ListPositions(ctx context.Context, eventID string) ([]models.EventPosition, error) {
	const query = `SELECT id, event_id, ministry_id, role_id, title, quantity_needed, quantity_filled, notes, sort_order, created_at
FROM event_positions WHERE event_id = $1 ORDER BY sort_order ASC, id ASC`
	positions := []models.EventPosition{}
	if err := r.db.SelectContext(ctx, &positions, query, eventID); err != nil {
		return nil, fmt.Errorf("list event positions: %w", err)
	}
	return positions, nil
}

func (r *EventRepository) attachInvitees(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	index := make(map[string]int, len(events))
	for i := range events {
		ids[i] = events[i].ID
		index[events[i].ID] = i
		events[i].InvitedUserIDs = []string{}
	}
	const query = `SELECT event_id, user_id FROM event_invitees WHERE event_id = ANY($1) ORDER BY user_id ASC`
	var rows []struct {
		EventID string `db:"event_id"`
		UserID  string `db:"user_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("load event invitees: %w", err)
	}
	for _, row := range rows {
		if i, ok := index[row.EventID]; ok {
			events[i].InvitedUserIDs = append(events[i].InvitedUserIDs, row.UserID)
		}
	}
	return nil
}
