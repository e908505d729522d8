package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/export"
	"github.com/noah-isme/church-ops-api/pkg/icalfeed"
)

const (
	feedDomain      = "church-ops-api"
	feedPastDays    = 30
	feedFutureDays  = 180
	feedPageSize    = 500
	defaultPageSize = 50
)

var errEventNotFound = appErrors.Clone(appErrors.ErrNotFound, "event not found")

type eventReader interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, churchID, id string) (*models.Event, error)
	ListAgenda(ctx context.Context, eventID string) ([]models.EventAgendaItem, error)
	ListPositions(ctx context.Context, eventID string) ([]models.EventPosition, error)
}

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// EventService is the read side of events created from templates.
type EventService struct {
	events   eventReader
	policy   VisibilityPolicy
	csv      documentRenderer
	pdf      documentRenderer
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewEventService constructs the service. Dates are interpreted in loc.
func NewEventService(events eventReader, policy VisibilityPolicy, csv, pdf documentRenderer, loc *time.Location, logger *zap.Logger) *EventService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &EventService{events: events, policy: policy, csv: csv, pdf: pdf, location: loc, now: time.Now, logger: logger}
}

// List returns readable events overlapping the requested date range.
func (s *EventService) List(ctx context.Context, principal models.Principal, query dto.EventListQuery) ([]models.Event, *models.Pagination, error) {
	filter := s.filterFor(principal)
	filter.Page = query.Page
	filter.PageSize = query.PageSize
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if query.From != "" {
		from, err := time.ParseInLocation(DateLayout, strings.TrimSpace(query.From), s.location)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "from must be YYYY-MM-DD")
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := time.ParseInLocation(DateLayout, strings.TrimSpace(query.To), s.location)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "to must be YYYY-MM-DD")
		}
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}

	events, total, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return s.readable(principal, events), &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns an event with its agenda and positions. Unreadable events look missing.
func (s *EventService) Get(ctx context.Context, principal models.Principal, id string) (*dto.EventDetail, error) {
	event, err := s.events.FindByID(ctx, principal.ChurchID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errEventNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if !s.policy.CanRead(principal, event.Visibility, event.InvitedUserIDs) {
		return nil, errEventNotFound
	}
	agenda, err := s.events.ListAgenda(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event agenda")
	}
	positions, err := s.events.ListPositions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event positions")
	}
	return &dto.EventDetail{
		Event:     *event,
		Agenda:    agenda,
		Positions: positions,
		Warnings:  visibilityWarnings(event.Visibility, event.InvitedUserIDs),
	}, nil
}

// Feed renders readable events around today as an iCalendar document.
func (s *EventService) Feed(ctx context.Context, principal models.Principal) (string, error) {
	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	from := today.AddDate(0, 0, -feedPastDays)
	to := today.AddDate(0, 0, feedFutureDays)

	filter := s.filterFor(principal)
	filter.From = &from
	filter.To = &to
	filter.Page = 1
	filter.PageSize = feedPageSize

	events, _, err := s.events.List(ctx, filter)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	events = s.readable(principal, events)

	entries := make([]icalfeed.Event, 0, len(events))
	for _, event := range events {
		entry := icalfeed.Event{
			UID:       event.ID,
			Summary:   event.Name,
			StartsAt:  event.StartsAt,
			EndsAt:    event.EndsAt,
			UpdatedAt: event.UpdatedAt,
			Cancelled: event.Status == models.EventStatusCancelled,
			Private:   event.Visibility == models.VisibilityHidden,
		}
		if event.Description != nil {
			entry.Description = *event.Description
		}
		entries = append(entries, entry)
	}
	feed, err := icalfeed.Encode("Church events", feedDomain, entries)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar feed")
	}
	return feed, nil
}

// RunSheet renders the agenda and positions of an event as a PDF or CSV download.
func (s *EventService) RunSheet(ctx context.Context, principal models.Principal, id, format string) (*dto.RunSheet, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = dto.RunSheetPDF
	}
	var (
		renderer    documentRenderer
		contentType string
	)
	switch format {
	case dto.RunSheetPDF:
		renderer, contentType = s.pdf, "application/pdf"
	case dto.RunSheetCSV:
		renderer, contentType = s.csv, "text/csv"
	default:
		return nil, appErrors.ErrUnsupportedMediaType
	}

	detail, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Render(s.runSheetDocument(detail))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render run sheet")
	}
	return &dto.RunSheet{
		Filename:    fmt.Sprintf("run-sheet-%s.%s", detail.StartsAt.In(s.location).Format(DateLayout), format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (s *EventService) runSheetDocument(detail *dto.EventDetail) export.Document {
	agenda := export.Dataset{Headers: []string{"#", "Start", "Item", "Duration", "Notes"}}
	clock := detail.StartsAt.In(s.location)
	for i, item := range detail.Agenda {
		title := item.Title
		if item.IsSongPlaceholder {
			title += " (song)"
		}
		notes := ""
		if item.Description != nil {
			notes = *item.Description
		}
		agenda.Rows = append(agenda.Rows, map[string]string{
			"#":        fmt.Sprintf("%d", i+1),
			"Start":    clock.Format("15:04"),
			"Item":     title,
			"Duration": formatDuration(item.DurationSeconds),
			"Notes":    notes,
		})
		clock = clock.Add(time.Duration(item.DurationSeconds) * time.Second)
	}

	positions := export.Dataset{Headers: []string{"Position", "Needed", "Filled", "Notes"}}
	for _, position := range detail.Positions {
		notes := ""
		if position.Notes != nil {
			notes = *position.Notes
		}
		positions.Rows = append(positions.Rows, map[string]string{
			"Position": position.Title,
			"Needed":   fmt.Sprintf("%d", position.QuantityNeeded),
			"Filled":   fmt.Sprintf("%d", position.QuantityFilled),
			"Notes":    notes,
		})
	}

	start := detail.StartsAt.In(s.location)
	end := detail.EndsAt.In(s.location)
	return export.Document{
		Title:    detail.Name,
		Subtitle: fmt.Sprintf("%s %s - %s", start.Format(DateLayout), start.Format("15:04"), end.Format("15:04")),
		Sections: []export.Section{
			{Title: "Agenda", Data: agenda},
			{Title: "Positions", Data: positions},
		},
	}
}

func (s *EventService) filterFor(principal models.Principal) models.EventFilter {
	filter := models.EventFilter{
		ChurchID:  principal.ChurchID,
		Levels:    s.policy.ReadableLevels(principal),
		InviteeID: principal.ID,
	}
	if s.policy.SeesAllHidden(principal) {
		filter.InviteeID = ""
	}
	return filter
}

func (s *EventService) readable(principal models.Principal, events []models.Event) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, event := range events {
		if s.policy.CanRead(principal, event.Visibility, event.InvitedUserIDs) {
			out = append(out, event)
		}
	}
	return out
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
