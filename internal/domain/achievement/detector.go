package achievement

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/progress"
	"github.com/quizhub/progress-hub/internal/domain/shared"
	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT DETECTOR
// Машина состояний per (student, type): unseen → unlocked, терминально.
// Проверка существования + вставка защищены уникальным индексом в хранилище,
// поэтому гонка двух одновременных сабмитов даёт ровно одну строку.
// ══════════════════════════════════════════════════════════════════════════════

// Пороговый каталог.
const (
	answeredThreshold10  = 10
	answeredThreshold50  = 50
	sharpshooterAccuracy = 0.80
	sharpshooterMinTotal = 10
	streakThresholdDays  = 7
)

// Detector evaluates the threshold catalog after every answer event and
// appends newly crossed badges to the ledger. Best-effort enrichment:
// detection failures are logged, never propagated to the submission path.
type Detector struct {
	events answer.EventStore
	ledger Ledger
	log    *logger.Logger
}

// NewDetector creates a detector with statically injected collaborators.
func NewDetector(events answer.EventStore, ledger Ledger, log *logger.Logger) *Detector {
	if log == nil {
		log = logger.Default()
	}
	return &Detector{
		events: events,
		ledger: ledger,
		log:    log.With(logger.Component("achievement.detector")),
	}
}

// Evaluate checks every threshold for the student and unlocks what is newly
// crossed. Returns the badges unlocked by this call. An aggregate-read
// failure aborts the evaluation; per-badge insert failures are logged and
// skipped so one bad row never blocks the rest.
func (d *Detector) Evaluate(ctx context.Context, studentID shared.StudentID) ([]Achievement, error) {
	overall, err := d.events.CountAndAccuracy(ctx, studentID, shared.TimeWindow{})
	if err != nil {
		return nil, shared.WrapError("achievement", "Evaluate", shared.ErrStoreUnavailable, "aggregate read failed", err)
	}

	activeDays, err := d.events.DistinctActiveDays(ctx, studentID, shared.LastNDays(progress.DefaultLookbackDays))
	if err != nil {
		return nil, shared.WrapError("achievement", "Evaluate", shared.ErrStoreUnavailable, "active days read failed", err)
	}

	streak := progress.CalculateStreak(activeDays)
	level := progress.LevelForStats(overall.Total, overall.Accuracy)
	now := time.Now().UTC()

	var unlocked []Achievement
	for _, candidate := range d.candidates(overall, streak, level, now) {
		candidate.StudentID = studentID
		inserted, err := d.ledger.InsertIfAbsent(ctx, &candidate)
		if err != nil {
			// Лучшая попытка: логируем и продолжаем со следующим бейджем.
			d.log.Error("achievement insert failed",
				logger.StudentID(studentID.String()),
				logger.String("type", candidate.Type.String()),
				logger.Err(err),
			)
			continue
		}
		if inserted {
			unlocked = append(unlocked, candidate)
			d.log.Info("achievement unlocked",
				logger.StudentID(studentID.String()),
				logger.String("type", candidate.Type.String()),
				logger.Int("level", candidate.Level),
				logger.Accuracy(overall.Accuracy.Float64()),
			)
		}
	}

	return unlocked, nil
}

// candidates строит список бейджей, чьи пороги пересечены текущим снимком.
// Идемпотентность обеспечивает реестр, здесь только пороги.
func (d *Detector) candidates(overall answer.CountAccuracy, streak progress.Streak, level progress.Level, now time.Time) []Achievement {
	var out []Achievement

	add := func(t Type, lvl int) {
		def, ok := DefinitionFor(t)
		if !ok {
			return
		}
		out = append(out, Achievement{
			Type:        t,
			Level:       lvl,
			Title:       def.Title,
			Description: def.Description,
			XPAwarded:   def.XPBonus,
			UnlockedAt:  now,
		})
	}

	if overall.Correct >= 1 {
		add(TypeFirstCorrect, 0)
	}
	if overall.Total >= answeredThreshold10 {
		add(TypeAnswered10, 0)
	}
	if overall.Total >= answeredThreshold50 {
		add(TypeAnswered50, 0)
	}
	if overall.Total >= sharpshooterMinTotal && overall.Accuracy.Float64() >= sharpshooterAccuracy {
		add(TypeSharpshooter, 0)
	}
	if streak.CurrentLength >= streakThresholdDays {
		add(TypeStreak7, 0)
	}

	// Каждый достигнутый уровень таблицы - отдельный одноразовый бейдж.
	for _, row := range progress.LevelTable() {
		if row.Level == 0 {
			continue
		}
		if row.Level <= level.Level {
			add(TypeLevelUp, row.Level)
		}
	}

	return out
}
