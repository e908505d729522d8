package models

import "time"

// EventStatus is the publication state of an event.
type EventStatus string

const (
	EventStatusPublished EventStatus = "published"
	EventStatusDraft     EventStatus = "draft"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event is a dated occurrence, usually projected from a template.
type Event struct {
	ID                  string      `db:"id" json:"id"`
	ChurchID            string      `db:"church_id" json:"churchId"`
	SourceTemplateID    *string     `db:"source_template_id" json:"sourceTemplateId,omitempty"`
	Name                string      `db:"name" json:"name"`
	Description         *string     `db:"description" json:"description,omitempty"`
	EventType           EventType   `db:"event_type" json:"eventType"`
	LocationID          *string     `db:"location_id" json:"locationId,omitempty"`
	ResponsiblePersonID *string     `db:"responsible_person_id" json:"responsiblePersonId,omitempty"`
	CampusID            *string     `db:"campus_id" json:"campusId,omitempty"`
	Visibility          Visibility  `db:"visibility" json:"visibility"`
	Status              EventStatus `db:"status" json:"status"`
	StartsAt            time.Time   `db:"starts_at" json:"startsAt"`
	EndsAt              time.Time   `db:"ends_at" json:"endsAt"`
	InvitedUserIDs      []string    `db:"-" json:"invitedUserIds"`
	CreatedBy           string      `db:"created_by" json:"createdBy"`
	CreatedAt           time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updatedAt"`
}

// EventAgendaItem is an event's own copy of an agenda entry.
type EventAgendaItem struct {
	ID                string    `db:"id" json:"id"`
	EventID           string    `db:"event_id" json:"eventId"`
	Title             string    `db:"title" json:"title"`
	Description       *string   `db:"description" json:"description,omitempty"`
	DurationSeconds   int       `db:"duration_seconds" json:"durationSeconds"`
	IsSongPlaceholder bool      `db:"is_song_placeholder" json:"isSongPlaceholder"`
	SongID            *string   `db:"song_id" json:"songId,omitempty"`
	MinistryID        *string   `db:"ministry_id" json:"ministryId,omitempty"`
	SortOrder         int       `db:"sort_order" json:"sortOrder"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}

// EventPosition is an open staffing slot on an event.
type EventPosition struct {
	ID             string    `db:"id" json:"id"`
	EventID        string    `db:"event_id" json:"eventId"`
	MinistryID     string    `db:"ministry_id" json:"ministryId"`
	RoleID         *string   `db:"role_id" json:"roleId,omitempty"`
	Title          string    `db:"title" json:"title"`
	QuantityNeeded int       `db:"quantity_needed" json:"quantityNeeded"`
	QuantityFilled int       `db:"quantity_filled" json:"quantityFilled"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	SortOrder      int       `db:"sort_order" json:"sortOrder"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// EventBundle is an event together with its agenda and positions.
type EventBundle struct {
	Event     Event             `json:"event"`
	Agenda    []EventAgendaItem `json:"agenda"`
	Positions []EventPosition   `json:"positions"`
}

// EventFilter narrows event listings.
type EventFilter struct {
	ChurchID  string
	From      *time.Time
	To        *time.Time
	Levels    []Visibility
	InviteeID string
	Page      int
	PageSize  int
}
