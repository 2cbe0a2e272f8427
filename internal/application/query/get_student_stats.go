package query

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/progress"
	"github.com/quizhub/progress-hub/internal/domain/shared"
	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT STATS QUERY
// Витрина агрегированной статистики: точность, среднее время ответа,
// разбивка по предметам и проекция слабых предметов. Ничего не хранится -
// всё пересчитывается из лога событий на каждый запрос.
//
// Студент без единого ответа - не ошибка: возвращаются нулевые значения.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentStatsQuery содержит параметры запроса статистики.
type GetStudentStatsQuery struct {
	// StudentID - ID студента (UUID).
	StudentID string

	// WindowDays - окно в днях; 0 = за всё время.
	WindowDays int
}

// Validate проверяет корректность параметров.
func (q *GetStudentStatsQuery) Validate() error {
	id, err := shared.NewStudentID(q.StudentID)
	if err != nil {
		return err
	}
	q.StudentID = id.String()
	if q.WindowDays < 0 {
		return shared.NewDomainError("query", "GetStudentStats", shared.ErrValueOutOfRange, "window days cannot be negative")
	}
	return nil
}

// window возвращает окно запроса (нулевое = всё время).
func (q *GetStudentStatsQuery) window() shared.TimeWindow {
	if q.WindowDays == 0 {
		return shared.TimeWindow{}
	}
	return shared.LastNDays(q.WindowDays)
}

// SubjectStatsDTO - статистика по одному предмету.
type SubjectStatsDTO struct {
	// Subject - предмет.
	Subject string `json:"subject"`

	// TotalAnswered - отвечено вопросов.
	TotalAnswered int `json:"total_answered"`

	// Accuracy - точность в [0,1].
	Accuracy float64 `json:"accuracy"`

	// MeanDifficultyTier - средняя сложность (1.0 .. 3.0).
	MeanDifficultyTier float64 `json:"mean_difficulty_tier"`

	// MeanResponseTimeSeconds - среднее время ответа.
	MeanResponseTimeSeconds float64 `json:"mean_response_time_seconds"`
}

// GetStudentStatsResult содержит результат запроса.
type GetStudentStatsResult struct {
	// StudentID - ID студента.
	StudentID string `json:"student_id"`

	// WindowDays - окно запроса (0 = всё время).
	WindowDays int `json:"window_days"`

	// Accuracy - общая точность в [0,1].
	Accuracy float64 `json:"accuracy"`

	// MeanResponseTimeSeconds - среднее время ответа.
	MeanResponseTimeSeconds float64 `json:"mean_response_time_seconds"`

	// Corrects / Incorrects / TotalAnswered - счётчики ответов.
	Corrects      int `json:"corrects"`
	Incorrects    int `json:"incorrects"`
	TotalAnswered int `json:"total_answered"`

	// Subjects - разбивка по предметам, отсортирована по имени.
	Subjects []SubjectStatsDTO `json:"subjects,omitempty"`

	// WeakSubjects - предметы с достаточной выборкой и точностью ниже порога.
	WeakSubjects []string `json:"weak_subjects,omitempty"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStudentStatsHandler обрабатывает запросы статистики.
type GetStudentStatsHandler struct {
	events answer.EventStore
	cache  DerivedCache
	log    *logger.Logger
}

// NewGetStudentStatsHandler создаёт новый обработчик.
func NewGetStudentStatsHandler(events answer.EventStore, cache DerivedCache, log *logger.Logger) *GetStudentStatsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetStudentStatsHandler{
		events: events,
		cache:  cache,
		log:    log.With(logger.Component("query.student_stats")),
	}
}

// Handle выполняет запрос.
func (h *GetStudentStatsHandler) Handle(ctx context.Context, query GetStudentStatsQuery) (*GetStudentStatsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStudentStats", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)

	// Кэш - лучшая попытка: промах или ошибка ведут к пересчёту.
	key := statsCacheKey(studentID, query.WindowDays)
	if h.cache != nil {
		var cached GetStudentStatsResult
		if hit, err := h.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	window := query.window()

	overall, err := h.events.CountAndAccuracy(ctx, studentID, window)
	if err != nil {
		return nil, shared.WrapError("query", "GetStudentStats", shared.ErrStoreUnavailable, "aggregate read failed", err)
	}

	subjects, err := h.events.PerSubjectAggregates(ctx, studentID, window)
	if err != nil {
		return nil, shared.WrapError("query", "GetStudentStats", shared.ErrStoreUnavailable, "subject aggregate read failed", err)
	}

	stats := progress.BuildAggregateStats(overall, subjects)
	result := buildStatsResult(query, stats)

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, result, StatsCacheTTL); err != nil {
			h.log.Debug("stats cache set failed", logger.StudentID(query.StudentID), logger.Err(err))
		}
	}

	return result, nil
}

// buildStatsResult строит DTO из доменной витрины.
func buildStatsResult(query GetStudentStatsQuery, stats progress.AggregateStats) *GetStudentStatsResult {
	result := &GetStudentStatsResult{
		StudentID:               query.StudentID,
		WindowDays:              query.WindowDays,
		Accuracy:                stats.Accuracy.Float64(),
		MeanResponseTimeSeconds: stats.MeanResponseTime,
		Corrects:                stats.Corrects,
		Incorrects:              stats.Incorrects,
		TotalAnswered:           stats.TotalAnswered,
		GeneratedAt:             time.Now().UTC(),
	}

	for _, s := range stats.Subjects {
		result.Subjects = append(result.Subjects, SubjectStatsDTO{
			Subject:                 s.Subject.String(),
			TotalAnswered:           s.TotalAnswered,
			Accuracy:                s.Accuracy.Float64(),
			MeanDifficultyTier:      s.MeanDifficultyTier,
			MeanResponseTimeSeconds: s.MeanResponseTime,
		})
	}
	for _, w := range stats.WeakSubjects {
		result.WeakSubjects = append(result.WeakSubjects, w.String())
	}

	return result
}
