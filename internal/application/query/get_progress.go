package query

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/progress"
	"github.com/quizhub/progress-hub/internal/domain/shared"
	"github.com/quizhub/progress-hub/pkg/logger"
	"github.com/quizhub/progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Серия активных дней + уровень/XP в одной витрине. Обе метрики выводятся
// из лога событий: серия - из различных календарных дней активности,
// уровень - из объёма и точности через таблицу порогов.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery содержит параметры запроса прогресса.
type GetProgressQuery struct {
	// StudentID - ID студента (UUID).
	StudentID string

	// LookbackDays - окно просмотра активности для серии (по умолчанию 365).
	LookbackDays int
}

// Validate проверяет корректность параметров.
func (q *GetProgressQuery) Validate() error {
	id, err := shared.NewStudentID(q.StudentID)
	if err != nil {
		return err
	}
	q.StudentID = id.String()
	if q.LookbackDays < 0 {
		return shared.NewDomainError("query", "GetProgress", shared.ErrValueOutOfRange, "lookback days cannot be negative")
	}
	if q.LookbackDays == 0 {
		q.LookbackDays = progress.DefaultLookbackDays
	}
	return nil
}

// StreakDTO - информация о серии.
type StreakDTO struct {
	// CurrentLength - текущая серия дней.
	CurrentLength int `json:"current_length"`

	// RecordLength - лучшая серия за окно просмотра.
	RecordLength int `json:"record_length"`

	// LastActiveDay - последний активный день (дата, UTC).
	LastActiveDay string `json:"last_active_day,omitempty"`

	// StreakStartDay - первый день текущей серии (дата, UTC).
	StreakStartDay string `json:"streak_start_day,omitempty"`

	// IsBroken - серия уже потеряна относительно текущего момента.
	IsBroken bool `json:"is_broken"`
}

// LevelDTO - информация об уровне.
type LevelDTO struct {
	// Level - номер уровня.
	Level int `json:"level"`

	// XPCurrent - набранные очки.
	XPCurrent float64 `json:"xp_current"`

	// XPNext - порог следующего уровня.
	XPNext float64 `json:"xp_next"`
}

// GetProgressResult содержит результат запроса.
type GetProgressResult struct {
	// StudentID - ID студента.
	StudentID string `json:"student_id"`

	// Streak - серия активных дней.
	Streak StreakDTO `json:"streak"`

	// Level - уровень и XP.
	Level LevelDTO `json:"level"`

	// TotalAnswered - всего ответов (вход расчёта очков).
	TotalAnswered int `json:"total_answered"`

	// Accuracy - общая точность (вход расчёта очков).
	Accuracy float64 `json:"accuracy"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetProgressHandler обрабатывает запросы прогресса.
type GetProgressHandler struct {
	events answer.EventStore
	cache  DerivedCache
	log    *logger.Logger
}

// NewGetProgressHandler создаёт новый обработчик.
func NewGetProgressHandler(events answer.EventStore, cache DerivedCache, log *logger.Logger) *GetProgressHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetProgressHandler{
		events: events,
		cache:  cache,
		log:    log.With(logger.Component("query.progress")),
	}
}

// Handle выполняет запрос.
func (h *GetProgressHandler) Handle(ctx context.Context, query GetProgressQuery) (*GetProgressResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetProgress", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)

	key := progressCacheKey(studentID)
	if h.cache != nil {
		var cached GetProgressResult
		if hit, err := h.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	overall, err := h.events.CountAndAccuracy(ctx, studentID, shared.TimeWindow{})
	if err != nil {
		return nil, shared.WrapError("query", "GetProgress", shared.ErrStoreUnavailable, "aggregate read failed", err)
	}

	activeDays, err := h.events.DistinctActiveDays(ctx, studentID, shared.LastNDays(query.LookbackDays))
	if err != nil {
		return nil, shared.WrapError("query", "GetProgress", shared.ErrStoreUnavailable, "active days read failed", err)
	}

	streak := progress.CalculateStreak(activeDays)
	level := progress.LevelForStats(overall.Total, overall.Accuracy)
	now := time.Now().UTC()

	result := &GetProgressResult{
		StudentID: query.StudentID,
		Streak: StreakDTO{
			CurrentLength: streak.CurrentLength,
			RecordLength:  streak.RecordLength,
			IsBroken:      streak.IsBroken(now),
		},
		Level: LevelDTO{
			Level:     level.Level,
			XPCurrent: level.XPCurrent,
			XPNext:    level.XPNext,
		},
		TotalAnswered: overall.Total,
		Accuracy:      overall.Accuracy.Float64(),
		GeneratedAt:   now,
	}

	if !streak.LastActiveDay.IsZero() {
		result.Streak.LastActiveDay = timeutil.FormatDateStr(streak.LastActiveDay)
	}
	if !streak.StreakStartDay.IsZero() {
		result.Streak.StreakStartDay = timeutil.FormatDateStr(streak.StreakStartDay)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, result, ProgressCacheTTL); err != nil {
			h.log.Debug("progress cache set failed", logger.StudentID(query.StudentID), logger.Err(err))
		}
	}

	return result, nil
}
