package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

func TestAgendaItemRepositoryListByTemplate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAgendaItemRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "template_id", "title", "description", "duration_seconds", "is_song_placeholder", "ministry_id", "sort_order", "created_at", "updated_at"}).
		AddRow("item-1", "tpl-1", "Welcome", nil, 300, false, nil, 0, now, now).
		AddRow("item-2", "tpl-1", "Song", nil, 300, true, nil, 1, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM event_template_agenda_items WHERE template_id = $1 ORDER BY sort_order ASC, id ASC")).
		WithArgs("tpl-1").
		WillReturnRows(rows)

	items, err := repo.ListByTemplate(context.Background(), nil, "tpl-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[1].IsSongPlaceholder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgendaItemRepositoryUpdateLeavesSortOrder(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAgendaItemRepository(db)

	mock.ExpectExec(`UPDATE event_template_agenda_items SET title = \?, description = \?, duration_seconds = \?,\s+is_song_placeholder = \?, ministry_id = \?, updated_at = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), nil, &models.AgendaItem{ID: "item-1", TemplateID: "tpl-1", Title: "Welcome", SortOrder: 7})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgendaItemRepositoryDeleteMissing(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAgendaItemRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM event_template_agenda_items WHERE template_id = $1 AND id = $2")).
		WithArgs("tpl-1", "item-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), nil, "tpl-1", "item-9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgendaItemRepositoryOrderRoundTrip(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewAgendaItemRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, sort_order FROM event_template_agenda_items WHERE template_id = $1 ORDER BY sort_order ASC, id ASC FOR UPDATE")).
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sort_order"}).AddRow("a", 0).AddRow("b", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE event_template_agenda_items SET sort_order = $1, updated_at = $2 WHERE template_id = $3 AND id = $4")).
		WithArgs(1, sqlmock.AnyArg(), "tpl-1", "a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE event_template_agenda_items SET sort_order = $1, updated_at = $2 WHERE template_id = $3 AND id = $4")).
		WithArgs(0, sqlmock.AnyArg(), "tpl-1", "b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	entries, err := repo.ListOrder(context.Background(), tx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, []ordering.Entry{{ID: "a", SortOrder: 0}, {ID: "b", SortOrder: 1}}, entries)

	changes, err := ordering.Reorder(entries, []string{"b", "a"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateSortOrders(context.Background(), tx, "tpl-1", ordering.Diff(entries, changes)))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
