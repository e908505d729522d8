package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/church-ops-api/internal/models"
)

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Forget(ctx context.Context, keys ...string) error
}

// TemplateCacheKey is the cache key of a template snapshot.
func TemplateCacheKey(churchID, id string) string {
	return fmt.Sprintf("template:%s:%s", churchID, id)
}

// TemplateSnapshotter reads a template together with its agenda and positions.
type TemplateSnapshotter struct {
	templates templateStore
	agenda    agendaStore
	positions positionStore
	tx        txProvider
	cache     snapshotCache
	metrics   *MetricsService
	ttl       time.Duration
	logger    *zap.Logger
}

// NewTemplateSnapshotter wires snapshot dependencies. tx and cache are optional.
func NewTemplateSnapshotter(templates templateStore, agenda agendaStore, positions positionStore, tx txProvider, cache snapshotCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *TemplateSnapshotter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateSnapshotter{
		templates: templates,
		agenda:    agenda,
		positions: positions,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		ttl:       ttl,
		logger:    logger,
	}
}

// Load returns the snapshot of a template. When allowCache is false the database
// is always read, inside one repeatable-read transaction when a provider is set.
// The boolean reports a cache hit. Missing templates yield sql.ErrNoRows.
func (s *TemplateSnapshotter) Load(ctx context.Context, churchID, id string, allowCache bool) (*models.TemplateSnapshot, bool, error) {
	key := TemplateCacheKey(churchID, id)
	if allowCache && s.cache != nil {
		var cached models.TemplateSnapshot
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	snapshot, err := s.read(ctx, churchID, id)
	s.metrics.ObserveDBQuery("template_snapshot", time.Since(start))
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snapshot, s.ttl); err != nil {
			s.logger.Warn("template snapshot not cached", zap.String("template_id", id), zap.Error(err))
		}
	}
	return snapshot, false, nil
}

// Forget drops the cached snapshot of a template after it changed.
func (s *TemplateSnapshotter) Forget(ctx context.Context, churchID, id string) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.Forget(ctx, TemplateCacheKey(churchID, id)); err != nil {
		s.logger.Warn("template snapshot not invalidated", zap.String("template_id", id), zap.Error(err))
	}
}

func (s *TemplateSnapshotter) read(ctx context.Context, churchID, id string) (*models.TemplateSnapshot, error) {
	if s.tx == nil {
		return s.readWith(ctx, nil, churchID, id)
	}
	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return s.readWith(ctx, tx, churchID, id)
}

func (s *TemplateSnapshotter) readWith(ctx context.Context, exec sqlx.ExtContext, churchID, id string) (*models.TemplateSnapshot, error) {
	tpl, err := s.templates.FindByID(ctx, exec, churchID, id)
	if err != nil {
		return nil, err
	}
	agenda, err := s.agenda.ListByTemplate(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	positions, err := s.positions.ListByTemplate(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	return &models.TemplateSnapshot{Template: *tpl, Agenda: agenda, Positions: positions}, nil
}
