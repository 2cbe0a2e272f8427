// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED-VIEW CACHE
// Все витрины (статистика, прогресс, рекомендации) выводятся из лога событий,
// поэтому кэш всегда можно выбросить и пересчитать. Кэш - ускорение, а не
// источник истины: любая ошибка кэша деградирует в прямой пересчёт.
// ══════════════════════════════════════════════════════════════════════════════

// DerivedCache is a best-effort cache for derived read models. Implemented by
// the redis infrastructure layer; a nil DerivedCache disables caching.
type DerivedCache interface {
	// Get unmarshals the cached value into dest. Returns false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores the value under the key with a TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// InvalidateStudent drops every derived view cached for the student.
	InvalidateStudent(ctx context.Context, studentID shared.StudentID) error
}

// Cache TTLs per view kind. Short on purpose: stale derived views are
// harmless but confusing.
const (
	StatsCacheTTL           = 2 * time.Minute
	ProgressCacheTTL        = 2 * time.Minute
	RecommendationsCacheTTL = 5 * time.Minute
)

// statsCacheKey строит ключ витрины статистики per (student, window).
func statsCacheKey(studentID shared.StudentID, windowDays int) string {
	return fmt.Sprintf("stats:%s:%d", studentID, windowDays)
}

// progressCacheKey строит ключ витрины прогресса.
func progressCacheKey(studentID shared.StudentID) string {
	return fmt.Sprintf("progress:%s", studentID)
}

// recommendationsCacheKey строит ключ витрины рекомендаций.
func recommendationsCacheKey(studentID shared.StudentID) string {
	return fmt.Sprintf("recommendations:%s", studentID)
}

// BaselineProvider supplies the global per-subject baseline used by relative
// scoring. The infrastructure layer implements it with a cached snapshot so
// the recommendation path never fans out to a full-table aggregate per call.
type BaselineProvider interface {
	Baseline(ctx context.Context) ([]answer.BaselineAggregate, error)
}

// DirectBaseline computes the baseline straight from the event store on
// every call. Запасной вариант для разработки без Redis: на малых данных
// полный агрегат дешёвый.
type DirectBaseline struct {
	events answer.EventStore
}

// NewDirectBaseline creates an uncached baseline provider.
func NewDirectBaseline(events answer.EventStore) *DirectBaseline {
	return &DirectBaseline{events: events}
}

var _ BaselineProvider = (*DirectBaseline)(nil)

// Baseline recomputes the global per-subject aggregates.
func (d *DirectBaseline) Baseline(ctx context.Context) ([]answer.BaselineAggregate, error) {
	return d.events.GlobalPerSubjectAggregates(ctx, shared.TimeWindow{})
}
