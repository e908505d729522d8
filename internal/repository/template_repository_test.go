package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/church-ops-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var templateRowColumns = []string{"id", "church_id", "name", "description", "event_type", "location_id", "responsible_person_id", "campus_id",
	"default_start_time", "default_duration_minutes", "visibility", "created_by", "created_at", "updated_at"}

func TestTemplateRepositoryFindByIDLoadsInvitees(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTemplateRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM event_templates WHERE church_id = $1 AND id = $2")).
		WithArgs("church-1", "tpl-1").
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow("tpl-1", "church-1", "Sunday Service", nil, "service", nil, nil, nil, "09:00", 120, "hidden", "user-1", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT template_id, user_id FROM event_template_invitees WHERE template_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"template_id", "user_id"}).
			AddRow("tpl-1", "user-7").
			AddRow("tpl-1", "user-9"))

	tpl, err := repo.FindByID(context.Background(), nil, "church-1", "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "Sunday Service", tpl.Name)
	assert.Equal(t, models.VisibilityHidden, tpl.Visibility)
	assert.Equal(t, []string{"user-7", "user-9"}, tpl.InvitedUserIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryFindByIDMissing(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM event_templates WHERE church_id = $1 AND id = $2")).
		WithArgs("church-1", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), nil, "church-1", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryCreateWritesInvitees(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTemplateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_templates")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_template_invitees")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 2))

	tpl := &models.EventTemplate{
		ChurchID:               "church-1",
		Name:                   "Leaders Retreat",
		EventType:              models.EventTypeSpecialEvent,
		DefaultStartTime:       "18:30",
		DefaultDurationMinutes: 90,
		Visibility:             models.VisibilityHidden,
		InvitedUserIDs:         []string{"user-1", "user-2"},
	}
	require.NoError(t, repo.Create(context.Background(), nil, tpl))
	assert.NotEmpty(t, tpl.ID)
	assert.False(t, tpl.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryUpdateReplacesInvitees(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTemplateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE event_templates SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM event_template_invitees WHERE template_id = $1")).
		WithArgs("tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	tpl := &models.EventTemplate{ID: "tpl-1", ChurchID: "church-1", Name: "Open", Visibility: models.VisibilityMembers}
	require.NoError(t, repo.Update(context.Background(), nil, tpl))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryUpdateMissingRow(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTemplateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE event_templates SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), nil, &models.EventTemplate{ID: "gone", ChurchID: "church-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryDelete(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTemplateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM event_templates WHERE church_id = $1 AND id = $2")).
		WithArgs("church-1", "tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), nil, "church-1", "tpl-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM event_templates WHERE church_id = $1 AND id = $2")).
		WithArgs("church-1", "tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), nil, "church-1", "tpl-1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryListFiltersByVisibility(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTemplateRepository(db)
	now := time.Now()
	eventType := models.EventTypeService

	mock.ExpectQuery(regexp.QuoteMeta("FROM event_templates t WHERE t.church_id = $1 AND (t.visibility = ANY($2) OR (t.visibility = 'hidden'")).
		WithArgs("church-1", sqlmock.AnyArg(), "user-3", "service", "%sun%").
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow("tpl-1", "church-1", "Sunday Service", nil, "service", nil, nil, nil, "09:00", 120, "members", "user-1", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM event_templates t WHERE")).
		WithArgs("church-1", sqlmock.AnyArg(), "user-3", "service", "%sun%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM event_template_invitees WHERE template_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"template_id", "user_id"}))

	templates, total, err := repo.List(context.Background(), models.TemplateFilter{
		ChurchID:  "church-1",
		EventType: &eventType,
		Search:    "sun",
		Levels:    []models.Visibility{models.VisibilityMembers},
		InviteeID: "user-3",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, templates, 1)
	assert.Empty(t, templates[0].InvitedUserIDs)
	assert.NotNil(t, templates[0].InvitedUserIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
