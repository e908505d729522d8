package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
)

type eventReaderStub struct {
	events    []models.Event
	agenda    map[string][]models.EventAgendaItem
	positions map[string][]models.EventPosition
	lastList  models.EventFilter
}

func (s *eventReaderStub) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	s.lastList = filter
	return s.events, len(s.events), nil
}

func (s *eventReaderStub) FindByID(ctx context.Context, churchID, id string) (*models.Event, error) {
	for _, event := range s.events {
		if event.ID == id && event.ChurchID == churchID {
			found := event
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *eventReaderStub) ListAgenda(ctx context.Context, eventID string) ([]models.EventAgendaItem, error) {
	return s.agenda[eventID], nil
}

func (s *eventReaderStub) ListPositions(ctx context.Context, eventID string) ([]models.EventPosition, error) {
	return s.positions[eventID], nil
}

func newEventServiceForTest() (*eventReaderStub, *EventService) {
	starts := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	reader := &eventReaderStub{
		events: []models.Event{
			{ID: "ev-1", ChurchID: "church-1", Name: "Sunday Service", Visibility: models.VisibilityMembers, Status: models.EventStatusPublished, StartsAt: starts, EndsAt: starts.Add(2 * time.Hour)},
			{ID: "ev-2", ChurchID: "church-1", Name: "Elders", Visibility: models.VisibilityHidden, Status: models.EventStatusCancelled, StartsAt: starts, EndsAt: starts.Add(time.Hour), InvitedUserIDs: []string{"user-2"}},
		},
		agenda: map[string][]models.EventAgendaItem{
			"ev-1": {
				{ID: "i1", EventID: "ev-1", Title: "Welcome", DurationSeconds: 300, SortOrder: 0},
				{ID: "i2", EventID: "ev-1", Title: "Song", DurationSeconds: 270, IsSongPlaceholder: true, SortOrder: 1},
				{ID: "i3", EventID: "ev-1", Title: "Sermon", DurationSeconds: 1800, SortOrder: 2},
			},
		},
		positions: map[string][]models.EventPosition{
			"ev-1": {{ID: "s1", EventID: "ev-1", MinistryID: "worship", Title: "Drums", QuantityNeeded: 2}},
		},
	}
	svc := NewEventService(reader, NewVisibilityPolicy(ThresholdsFromRank(models.DefaultRank)), nil, nil, time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC) }
	return reader, svc
}

func TestEventServiceListFiltersReadable(t *testing.T) {
	reader, svc := newEventServiceForTest()

	events, pagination, err := svc.List(context.Background(), principalFor("user-1", models.RoleMember), dto.EventListQuery{From: "2025-06-01", To: "2025-06-01"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ev-1", events[0].ID)
	assert.Equal(t, 2, pagination.TotalCount)
	assert.Equal(t, "user-1", reader.lastList.InviteeID)
	assert.True(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC).Equal(*reader.lastList.To))

	events, _, err = svc.List(context.Background(), principalFor("user-2", models.RoleMember), dto.EventListQuery{})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	_, _, err = svc.List(context.Background(), principalFor("user-1", models.RoleMember), dto.EventListQuery{From: "June"})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, _, err = svc.List(context.Background(), principalFor("user-1", models.RoleMember), dto.EventListQuery{From: "2025-06-10", To: "2025-06-01"})
	requireCode(t, err, appErrors.ErrValidation.Code)
}

func TestEventServiceGet(t *testing.T) {
	_, svc := newEventServiceForTest()

	detail, err := svc.Get(context.Background(), principalFor("user-1", models.RoleMember), "ev-1")
	require.NoError(t, err)
	assert.Len(t, detail.Agenda, 3)
	assert.Len(t, detail.Positions, 1)

	_, err = svc.Get(context.Background(), principalFor("user-1", models.RoleLeader), "ev-2")
	requireCode(t, err, appErrors.ErrNotFound.Code)

	_, err = svc.Get(context.Background(), principalFor("user-1", models.RoleMember), "missing")
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestEventServiceRunSheetCSV(t *testing.T) {
	_, svc := newEventServiceForTest()

	sheet, err := svc.RunSheet(context.Background(), principalFor("user-1", models.RoleMember), "ev-1", "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", sheet.ContentType)
	assert.Equal(t, "run-sheet-2025-06-01.csv", sheet.Filename)

	body := string(sheet.Content)
	assert.Contains(t, body, "1,09:00,Welcome,5:00,")
	assert.Contains(t, body, "2,09:05,Song (song),4:30,")
	assert.Contains(t, body, "3,09:09,Sermon,30:00,")
	assert.Contains(t, body, "Drums,2,0,")
}

func TestEventServiceRunSheetFormats(t *testing.T) {
	_, svc := newEventServiceForTest()
	member := principalFor("user-1", models.RoleMember)

	sheet, err := svc.RunSheet(context.Background(), member, "ev-1", "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", sheet.ContentType)
	assert.True(t, strings.HasPrefix(string(sheet.Content), "%PDF"))

	_, err = svc.RunSheet(context.Background(), member, "ev-1", "docx")
	requireCode(t, err, appErrors.ErrUnsupportedMediaType.Code)
}

func TestEventServiceFeed(t *testing.T) {
	reader, svc := newEventServiceForTest()

	feed, err := svc.Feed(context.Background(), principalFor("user-2", models.RoleMember))
	require.NoError(t, err)
	assert.Contains(t, feed, "BEGIN:VCALENDAR")
	assert.Contains(t, feed, "ev-1@church-ops-api")
	assert.Contains(t, feed, "STATUS:CANCELLED")
	assert.True(t, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC).Equal(*reader.lastList.From))

	feed, err = svc.Feed(context.Background(), principalFor("user-1", models.RoleMember))
	require.NoError(t, err)
	assert.NotContains(t, feed, "ev-2@church-ops-api")
}
