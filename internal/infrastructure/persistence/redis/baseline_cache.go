package redis

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/internal/application/query"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// BASELINE CACHE
// Глобальный базлайн по предметам - единственный агрегат по всей таблице
// событий, поэтому на каждый запрос рекомендаций его считать нельзя.
// Снимок живёт в Redis и обновляется фоновой задачей; при промахе базлайн
// пересчитывается на месте и кладётся обратно.
// ══════════════════════════════════════════════════════════════════════════════

// baselineKey is the Redis key for the baseline snapshot.
const baselineKey = "baseline:subjects"

// BaselineTTL bounds staleness when the background refresh stops running.
const BaselineTTL = 30 * time.Minute

// baselineRow - сериализуемая строка снимка.
type baselineRow struct {
	Subject          string  `json:"subject"`
	Accuracy         float64 `json:"accuracy"`
	MeanResponseTime float64 `json:"mean_response_time"`
}

// BaselineCache implements query.BaselineProvider with a Redis-cached
// snapshot over the event store's global aggregates.
type BaselineCache struct {
	cache  *Cache
	events answer.EventStore
	log    *logger.Logger
}

// NewBaselineCache creates a cached baseline provider.
func NewBaselineCache(cache *Cache, events answer.EventStore, log *logger.Logger) *BaselineCache {
	if log == nil {
		log = logger.Default()
	}
	return &BaselineCache{
		cache:  cache,
		events: events,
		log:    log.With(logger.Component("redis.baseline")),
	}
}

var _ query.BaselineProvider = (*BaselineCache)(nil)

// Baseline returns the cached snapshot, recomputing it on a miss.
func (b *BaselineCache) Baseline(ctx context.Context) ([]answer.BaselineAggregate, error) {
	var rows []baselineRow
	if hit, err := b.cache.Get(ctx, baselineKey, &rows); err == nil && hit {
		return fromRows(rows), nil
	}
	return b.Refresh(ctx)
}

// Refresh recomputes the snapshot from the event store and stores it.
// Called by the background scheduler and on cache misses.
func (b *BaselineCache) Refresh(ctx context.Context) ([]answer.BaselineAggregate, error) {
	aggregates, err := b.events.GlobalPerSubjectAggregates(ctx, shared.TimeWindow{})
	if err != nil {
		return nil, err
	}

	rows := make([]baselineRow, 0, len(aggregates))
	for _, agg := range aggregates {
		rows = append(rows, baselineRow{
			Subject:          agg.Subject.String(),
			Accuracy:         agg.Accuracy.Float64(),
			MeanResponseTime: agg.MeanResponseTime,
		})
	}

	if err := b.cache.Set(ctx, baselineKey, rows, BaselineTTL); err != nil {
		// Снимок посчитан - отдаём его, даже если Redis не принял запись.
		b.log.Warn("baseline cache write failed", logger.Err(err))
	}

	return aggregates, nil
}

func fromRows(rows []baselineRow) []answer.BaselineAggregate {
	out := make([]answer.BaselineAggregate, 0, len(rows))
	for _, r := range rows {
		out = append(out, answer.BaselineAggregate{
			Subject:          shared.Subject(r.Subject),
			Accuracy:         shared.Accuracy(r.Accuracy),
			MeanResponseTime: r.MeanResponseTime,
		})
	}
	return out
}
