package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/pkg/database"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
	"github.com/noah-isme/church-ops-api/pkg/ordering"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

func expectCommit(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

// memTemplateStore keeps template headers in memory.
type memTemplateStore struct {
	items   map[string]models.EventTemplate
	order   []string
	touched map[string]int
	seq     int
}

func newMemTemplateStore(templates ...models.EventTemplate) *memTemplateStore {
	store := &memTemplateStore{items: map[string]models.EventTemplate{}, touched: map[string]int{}}
	for _, tpl := range templates {
		store.items[tpl.ID] = tpl
		store.order = append(store.order, tpl.ID)
	}
	return store
}

func (m *memTemplateStore) List(ctx context.Context, filter models.TemplateFilter) ([]models.EventTemplate, int, error) {
	out := []models.EventTemplate{}
	for _, id := range m.order {
		tpl, ok := m.items[id]
		if !ok || tpl.ChurchID != filter.ChurchID {
			continue
		}
		out = append(out, tpl)
	}
	return out, len(out), nil
}

func (m *memTemplateStore) FindByID(ctx context.Context, exec sqlx.ExtContext, churchID, id string) (*models.EventTemplate, error) {
	tpl, ok := m.items[id]
	if !ok || tpl.ChurchID != churchID {
		return nil, sql.ErrNoRows
	}
	tpl.InvitedUserIDs = append([]string{}, tpl.InvitedUserIDs...)
	return &tpl, nil
}

func (m *memTemplateStore) Create(ctx context.Context, exec sqlx.ExtContext, tpl *models.EventTemplate) error {
	if tpl.ID == "" {
		m.seq++
		tpl.ID = fmt.Sprintf("tpl-new-%d", m.seq)
	}
	m.items[tpl.ID] = *tpl
	m.order = append(m.order, tpl.ID)
	return nil
}

func (m *memTemplateStore) Update(ctx context.Context, exec sqlx.ExtContext, tpl *models.EventTemplate) error {
	if _, ok := m.items[tpl.ID]; !ok {
		return sql.ErrNoRows
	}
	m.items[tpl.ID] = *tpl
	return nil
}

func (m *memTemplateStore) Delete(ctx context.Context, exec sqlx.ExtContext, churchID, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *memTemplateStore) Touch(ctx context.Context, exec sqlx.ExtContext, id string) error {
	m.touched[id]++
	return nil
}

// memAgendaStore keeps agenda items in memory.
type memAgendaStore struct {
	items []models.AgendaItem
	seq   int
}

func (m *memAgendaStore) ListByTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]models.AgendaItem, error) {
	out := []models.AgendaItem{}
	for _, item := range m.items {
		if item.TemplateID == templateID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memAgendaStore) FindByID(ctx context.Context, exec sqlx.ExtContext, templateID, id string) (*models.AgendaItem, error) {
	for _, item := range m.items {
		if item.TemplateID == templateID && item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAgendaStore) Create(ctx context.Context, exec sqlx.ExtContext, item *models.AgendaItem) error {
	if item.ID == "" {
		m.seq++
		item.ID = fmt.Sprintf("item-new-%d", m.seq)
	}
	m.items = append(m.items, *item)
	return nil
}

func (m *memAgendaStore) Update(ctx context.Context, exec sqlx.ExtContext, item *models.AgendaItem) error {
	for i := range m.items {
		if m.items[i].TemplateID == item.TemplateID && m.items[i].ID == item.ID {
			sortOrder := m.items[i].SortOrder
			m.items[i] = *item
			m.items[i].SortOrder = sortOrder
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memAgendaStore) Delete(ctx context.Context, exec sqlx.ExtContext, templateID, id string) error {
	for i := range m.items {
		if m.items[i].TemplateID == templateID && m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memAgendaStore) ListOrder(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]ordering.Entry, error) {
	items, _ := m.ListByTemplate(ctx, exec, templateID)
	return ordering.Sorted(ordering.Collect(items, models.AgendaItem.OrderEntry)), nil
}

func (m *memAgendaStore) UpdateSortOrders(ctx context.Context, exec sqlx.ExtContext, templateID string, entries []ordering.Entry) error {
	for _, entry := range entries {
		for i := range m.items {
			if m.items[i].TemplateID == templateID && m.items[i].ID == entry.ID {
				m.items[i].SortOrder = entry.SortOrder
			}
		}
	}
	return nil
}

func (m *memAgendaStore) titles(templateID string) []string {
	items, _ := m.ListByTemplate(context.Background(), nil, templateID)
	ordering.SortItems(items, models.AgendaItem.OrderEntry)
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Title
	}
	return out
}

// memPositionStore keeps position requirements in memory and enforces pair uniqueness on insert.
type memPositionStore struct {
	items []models.PositionRequirement
	seq   int
	// hidePairs makes FindByPair miss so the unique index is the only guard.
	hidePairs       bool
	quantityUpdates int
}

func (m *memPositionStore) ListByTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]models.PositionRequirement, error) {
	out := []models.PositionRequirement{}
	for _, position := range m.items {
		if position.TemplateID == templateID {
			out = append(out, position)
		}
	}
	return out, nil
}

func (m *memPositionStore) FindByID(ctx context.Context, exec sqlx.ExtContext, templateID, id string) (*models.PositionRequirement, error) {
	for _, position := range m.items {
		if position.TemplateID == templateID && position.ID == id {
			found := position
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memPositionStore) FindByPair(ctx context.Context, exec sqlx.ExtContext, templateID, ministryID string, roleID *string) (*models.PositionRequirement, error) {
	if m.hidePairs {
		return nil, sql.ErrNoRows
	}
	key := models.PositionPairKey(ministryID, roleID)
	for _, position := range m.items {
		if position.TemplateID == templateID && position.PairKey() == key {
			found := position
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memPositionStore) Create(ctx context.Context, exec sqlx.ExtContext, position *models.PositionRequirement) error {
	for _, existing := range m.items {
		if existing.TemplateID == position.TemplateID && existing.PairKey() == position.PairKey() {
			return fmt.Errorf("create position: %w", database.ErrUniqueViolation)
		}
	}
	if position.ID == "" {
		m.seq++
		position.ID = fmt.Sprintf("pos-new-%d", m.seq)
	}
	m.items = append(m.items, *position)
	return nil
}

func (m *memPositionStore) UpdateQuantity(ctx context.Context, exec sqlx.ExtContext, templateID, id string, quantity int) error {
	for i := range m.items {
		if m.items[i].TemplateID == templateID && m.items[i].ID == id {
			m.items[i].QuantityNeeded = quantity
			m.quantityUpdates++
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memPositionStore) Delete(ctx context.Context, exec sqlx.ExtContext, templateID, id string) error {
	for i := range m.items {
		if m.items[i].TemplateID == templateID && m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memPositionStore) ListOrder(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]ordering.Entry, error) {
	positions, _ := m.ListByTemplate(ctx, exec, templateID)
	return ordering.Sorted(ordering.Collect(positions, models.PositionRequirement.OrderEntry)), nil
}

func (m *memPositionStore) UpdateSortOrders(ctx context.Context, exec sqlx.ExtContext, templateID string, entries []ordering.Entry) error {
	for _, entry := range entries {
		for i := range m.items {
			if m.items[i].TemplateID == templateID && m.items[i].ID == entry.ID {
				m.items[i].SortOrder = entry.SortOrder
			}
		}
	}
	return nil
}

type memCatalog struct {
	ministries map[string]models.Ministry
	roles      map[string]models.MinistryRole
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		ministries: map[string]models.Ministry{
			"worship": {ID: "worship", ChurchID: "church-1", Name: "Worship"},
			"tech":    {ID: "tech", ChurchID: "church-1", Name: "Production"},
			"kids":    {ID: "kids", ChurchID: "church-1", Name: "Kids"},
		},
		roles: map[string]models.MinistryRole{
			"drums":  {ID: "drums", MinistryID: "worship", Name: "Drums"},
			"vocals": {ID: "vocals", MinistryID: "worship", Name: "Vocals"},
			"sound":  {ID: "sound", MinistryID: "tech", Name: "Sound"},
		},
	}
}

func (c *memCatalog) FindMinistry(ctx context.Context, churchID, id string) (*models.Ministry, error) {
	ministry, ok := c.ministries[id]
	if !ok || ministry.ChurchID != churchID {
		return nil, sql.ErrNoRows
	}
	return &ministry, nil
}

func (c *memCatalog) FindRole(ctx context.Context, ministryID, id string) (*models.MinistryRole, error) {
	role, ok := c.roles[id]
	if !ok || role.MinistryID != ministryID {
		return nil, sql.ErrNoRows
	}
	return &role, nil
}

// memSnapshotCache stores JSON encoded snapshots.
type memSnapshotCache struct {
	entries map[string][]byte
	gets    int
}

func newMemSnapshotCache() *memSnapshotCache {
	return &memSnapshotCache{entries: map[string][]byte{}}
}

func (c *memSnapshotCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memSnapshotCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memSnapshotCache) Forget(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

// templateFixture wires the template services over in-memory stores.
type templateFixture struct {
	templates *memTemplateStore
	agenda    *memAgendaStore
	positions *memPositionStore
	catalog   *memCatalog
	snapshots *TemplateSnapshotter
	access    TemplateAccess
}

func newTemplateFixture(templates ...models.EventTemplate) *templateFixture {
	f := &templateFixture{
		templates: newMemTemplateStore(templates...),
		agenda:    &memAgendaStore{},
		positions: &memPositionStore{},
		catalog:   newMemCatalog(),
		access:    NewTemplateAccess(models.DefaultRank, "leader", "admin"),
	}
	f.snapshots = NewTemplateSnapshotter(f.templates, f.agenda, f.positions, nil, nil, nil, 0, nil)
	return f
}

func sampleTemplate(id string, visibility models.Visibility, invitees ...string) models.EventTemplate {
	return models.EventTemplate{
		ID:                     id,
		ChurchID:               "church-1",
		Name:                   "Sunday Service",
		EventType:              models.EventTypeService,
		DefaultStartTime:       "09:00",
		DefaultDurationMinutes: 120,
		Visibility:             visibility,
		InvitedUserIDs:         invitees,
		CreatedBy:              "owner-1",
	}
}
