// Package jobs contains the background jobs run by the scheduler.
package jobs

import (
	"context"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH BASELINE JOB
// Пересчитывает глобальный базлайн по предметам и кладёт снимок в кэш.
// Держит тяжёлый агрегат по всей таблице событий вне пути запроса.
// ══════════════════════════════════════════════════════════════════════════════

// BaselineRefresher is the part of the baseline cache this job drives.
type BaselineRefresher interface {
	Refresh(ctx context.Context) ([]answer.BaselineAggregate, error)
}

// RefreshBaseline recomputes the global per-subject baseline snapshot.
type RefreshBaseline struct {
	refresher BaselineRefresher
	log       *logger.Logger
}

// NewRefreshBaseline creates the baseline refresh job.
func NewRefreshBaseline(refresher BaselineRefresher, log *logger.Logger) *RefreshBaseline {
	if log == nil {
		log = logger.Default()
	}
	return &RefreshBaseline{
		refresher: refresher,
		log:       log.With(logger.Component("jobs.refresh_baseline")),
	}
}

// Name returns the unique name of the job.
func (j *RefreshBaseline) Name() string {
	return "refresh_baseline"
}

// Run recomputes and stores the snapshot.
func (j *RefreshBaseline) Run(ctx context.Context) error {
	baseline, err := j.refresher.Refresh(ctx)
	if err != nil {
		return err
	}
	j.log.Info("baseline refreshed", logger.Int("subjects", len(baseline)))
	return nil
}
