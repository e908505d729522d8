package models

import (
	"fmt"
	"time"

	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

// EventType classifies templates and the events created from them.
type EventType string

const (
	EventTypeService      EventType = "service"
	EventTypeRehearsal    EventType = "rehearsal"
	EventTypeMeeting      EventType = "meeting"
	EventTypeSpecialEvent EventType = "special_event"
	EventTypeOther        EventType = "other"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeService, EventTypeRehearsal, EventTypeMeeting, EventTypeSpecialEvent, EventTypeOther:
		return true
	default:
		return false
	}
}

// Visibility is the audience level of a template or event, ordered from widest to narrowest.
type Visibility string

const (
	VisibilityMembers    Visibility = "members"
	VisibilityVolunteers Visibility = "volunteers"
	VisibilityLeaders    Visibility = "leaders"
	VisibilityHidden     Visibility = "hidden"
)

// Valid reports whether v is a known visibility level.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityMembers, VisibilityVolunteers, VisibilityLeaders, VisibilityHidden:
		return true
	default:
		return false
	}
}

// DurationPresets lists the default durations (minutes) a template may carry.
var DurationPresets = []int{15, 30, 45, 60, 75, 90, 120, 150, 180, 240}

// IsDurationPreset reports whether minutes is one of DurationPresets.
func IsDurationPreset(minutes int) bool {
	for _, preset := range DurationPresets {
		if preset == minutes {
			return true
		}
	}
	return false
}

// DefaultSongPlaceholderSeconds is the duration given to song placeholders without one.
const DefaultSongPlaceholderSeconds = 300

// WarningHiddenWithoutInvitees flags a hidden template or event nobody is invited to.
const WarningHiddenWithoutInvitees = "hidden_without_invitees"

// ParseClock parses a 24h "HH:MM" time of day.
func ParseClock(raw string) (hour, minute int, err error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil || len(raw) != 5 {
		return 0, 0, fmt.Errorf("invalid time of day %q, expected HH:MM", raw)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// EventTemplate is the reusable shape of an event.
type EventTemplate struct {
	ID                     string     `db:"id" json:"id"`
	ChurchID               string     `db:"church_id" json:"churchId"`
	Name                   string     `db:"name" json:"name"`
	Description            *string    `db:"description" json:"description,omitempty"`
	DescriptionHTML        string     `db:"-" json:"descriptionHtml,omitempty"`
	EventType              EventType  `db:"event_type" json:"eventType"`
	LocationID             *string    `db:"location_id" json:"locationId,omitempty"`
	ResponsiblePersonID    *string    `db:"responsible_person_id" json:"responsiblePersonId,omitempty"`
	CampusID               *string    `db:"campus_id" json:"campusId,omitempty"`
	DefaultStartTime       string     `db:"default_start_time" json:"defaultStartTime"`
	DefaultDurationMinutes int        `db:"default_duration_minutes" json:"defaultDurationMinutes"`
	Visibility             Visibility `db:"visibility" json:"visibility"`
	InvitedUserIDs         []string   `db:"-" json:"invitedUserIds"`
	CreatedBy              string     `db:"created_by" json:"createdBy"`
	CreatedAt              time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updatedAt"`
}

// AgendaItem is one entry in a template's run of show.
type AgendaItem struct {
	ID                string    `db:"id" json:"id"`
	TemplateID        string    `db:"template_id" json:"templateId"`
	Title             string    `db:"title" json:"title"`
	Description       *string   `db:"description" json:"description,omitempty"`
	DescriptionHTML   string    `db:"-" json:"descriptionHtml,omitempty"`
	DurationSeconds   int       `db:"duration_seconds" json:"durationSeconds"`
	IsSongPlaceholder bool      `db:"is_song_placeholder" json:"isSongPlaceholder"`
	MinistryID        *string   `db:"ministry_id" json:"ministryId,omitempty"`
	SortOrder         int       `db:"sort_order" json:"sortOrder"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// OrderEntry projects the item onto its ordering key.
func (a AgendaItem) OrderEntry() ordering.Entry {
	return ordering.Entry{ID: a.ID, SortOrder: a.SortOrder}
}

// PositionRequirement is a staffing need of a template.
type PositionRequirement struct {
	ID             string    `db:"id" json:"id"`
	TemplateID     string    `db:"template_id" json:"templateId"`
	MinistryID     string    `db:"ministry_id" json:"ministryId"`
	RoleID         *string   `db:"role_id" json:"roleId,omitempty"`
	Title          string    `db:"title" json:"title"`
	QuantityNeeded int       `db:"quantity_needed" json:"quantityNeeded"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	SortOrder      int       `db:"sort_order" json:"sortOrder"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// OrderEntry projects the position onto its ordering key.
func (p PositionRequirement) OrderEntry() ordering.Entry {
	return ordering.Entry{ID: p.ID, SortOrder: p.SortOrder}
}

// PairKey identifies the (ministry, role) pair that must be unique per template.
func (p PositionRequirement) PairKey() string {
	return PositionPairKey(p.MinistryID, p.RoleID)
}

// PositionPairKey builds the uniqueness key for a ministry and optional role.
func PositionPairKey(ministryID string, roleID *string) string {
	if roleID == nil {
		return ministryID + "/"
	}
	return ministryID + "/" + *roleID
}

// TemplateSnapshot is an immutable read of a template and its children.
type TemplateSnapshot struct {
	Template  EventTemplate         `json:"template"`
	Agenda    []AgendaItem          `json:"agenda"`
	Positions []PositionRequirement `json:"positions"`
}

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	ChurchID  string
	EventType *EventType
	CampusID  *string
	Search    string
	// Levels are the visibility levels readable by the caller. Hidden templates
	// outside Levels are still returned when InviteeID is invited to them.
	Levels    []Visibility
	InviteeID string
	Page      int
	PageSize  int
}
