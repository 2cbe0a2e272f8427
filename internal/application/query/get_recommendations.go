package query

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/config"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/recommendation"
	"github.com/quizhub/progress-hub/internal/domain/shared"
	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RECOMMENDATIONS QUERY
// Персональные рекомендации из снимка агрегатов студента и глобального
// базлайна. Детерминированы для одного снимка: два вызова без новых событий
// дают идентичный список.
//
// Недоступный базлайн не валит запрос - рекомендации деградируют до тех
// видов, которым базлайн не нужен.
// ══════════════════════════════════════════════════════════════════════════════

// GetRecommendationsQuery содержит параметры запроса рекомендаций.
type GetRecommendationsQuery struct {
	// StudentID - ID студента (UUID).
	StudentID string
}

// Validate проверяет корректность параметров.
func (q *GetRecommendationsQuery) Validate() error {
	id, err := shared.NewStudentID(q.StudentID)
	if err != nil {
		return err
	}
	q.StudentID = id.String()
	return nil
}

// RecommendationDTO - одна рекомендация.
type RecommendationDTO struct {
	// Kind - тип: reinforce, accelerate, deepen, habit, schedule.
	Kind string `json:"kind"`

	// Title - короткий заголовок.
	Title string `json:"title"`

	// Action - что именно сделать.
	Action string `json:"action"`

	// Targets - целевые значения.
	Targets recommendation.Targets `json:"targets"`

	// Rationale - объяснение из тех же чисел, что и скоринг.
	Rationale string `json:"rationale"`

	// Confidence - уверенность в [0,1].
	Confidence float64 `json:"confidence"`
}

// GetRecommendationsResult содержит результат запроса.
type GetRecommendationsResult struct {
	// StudentID - ID студента.
	StudentID string `json:"student_id"`

	// Recommendations - приоритизированный список, максимум 4.
	Recommendations []RecommendationDTO `json:"recommendations"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetRecommendationsHandler обрабатывает запросы рекомендаций.
type GetRecommendationsHandler struct {
	events   answer.EventStore
	baseline BaselineProvider
	engine   *recommendation.Engine
	cache    DerivedCache
	flags    *config.FeatureFlags
	log      *logger.Logger
}

// NewGetRecommendationsHandler создаёт новый обработчик.
// nil flags = все виды рекомендаций включены.
func NewGetRecommendationsHandler(
	events answer.EventStore,
	baseline BaselineProvider,
	cache DerivedCache,
	flags *config.FeatureFlags,
	log *logger.Logger,
) *GetRecommendationsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetRecommendationsHandler{
		events:   events,
		baseline: baseline,
		engine:   recommendation.NewEngine(),
		cache:    cache,
		flags:    flags,
		log:      log.With(logger.Component("query.recommendations")),
	}
}

// Handle выполняет запрос.
func (h *GetRecommendationsHandler) Handle(ctx context.Context, query GetRecommendationsQuery) (*GetRecommendationsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetRecommendations", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)

	key := recommendationsCacheKey(studentID)
	if h.cache != nil {
		var cached GetRecommendationsResult
		if hit, err := h.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	inputs, err := h.collectInputs(ctx, studentID)
	if err != nil {
		return nil, err
	}

	recs := h.filterByFlags(h.engine.Build(inputs), query.StudentID)

	result := &GetRecommendationsResult{
		StudentID:       query.StudentID,
		Recommendations: make([]RecommendationDTO, 0, len(recs)),
		GeneratedAt:     time.Now().UTC(),
	}
	for _, r := range recs {
		result.Recommendations = append(result.Recommendations, RecommendationDTO{
			Kind:       string(r.Kind),
			Title:      r.Title,
			Action:     r.Action,
			Targets:    r.Targets,
			Rationale:  r.Rationale,
			Confidence: r.Confidence,
		})
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, result, RecommendationsCacheTTL); err != nil {
			h.log.Debug("recommendations cache set failed", logger.StudentID(query.StudentID), logger.Err(err))
		}
	}

	return result, nil
}

// filterByFlags убирает виды рекомендаций, выключенные фичефлагами
// для этого студента. Базовые виды (reinforce, deepen, habit) не гейтятся.
func (h *GetRecommendationsHandler) filterByFlags(recs []recommendation.Recommendation, studentID string) []recommendation.Recommendation {
	if h.flags == nil {
		return recs
	}

	fctx := &config.FeatureContext{StudentID: studentID}
	filtered := recs[:0]
	for _, r := range recs {
		switch r.Kind {
		case recommendation.KindAccelerate:
			if !h.flags.IsEnabled(config.FeatureRecommendAccelerate, fctx) {
				continue
			}
		case recommendation.KindSchedule:
			if !h.flags.IsEnabled(config.FeatureRecommendSchedule, fctx) {
				continue
			}
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// collectInputs собирает снимок агрегатов для движка.
func (h *GetRecommendationsHandler) collectInputs(ctx context.Context, studentID shared.StudentID) (recommendation.Inputs, error) {
	var in recommendation.Inputs

	overall, err := h.events.CountAndAccuracy(ctx, studentID, shared.TimeWindow{})
	if err != nil {
		return in, shared.WrapError("query", "GetRecommendations", shared.ErrStoreUnavailable, "aggregate read failed", err)
	}
	in.TotalAnswered = overall.Total

	in.Subjects, err = h.events.PerSubjectAggregates(ctx, studentID, shared.TimeWindow{})
	if err != nil {
		return in, shared.WrapError("query", "GetRecommendations", shared.ErrStoreUnavailable, "subject aggregate read failed", err)
	}

	activeDays, err := h.events.DistinctActiveDays(ctx, studentID, shared.TrailingWeek())
	if err != nil {
		return in, shared.WrapError("query", "GetRecommendations", shared.ErrStoreUnavailable, "active days read failed", err)
	}
	in.ActiveDaysLast7 = len(activeDays)

	in.Hours, err = h.events.HourOfDayAccuracy(ctx, studentID)
	if err != nil {
		return in, shared.WrapError("query", "GetRecommendations", shared.ErrStoreUnavailable, "hour accuracy read failed", err)
	}

	// Базлайн - деградируемая зависимость: без него пропадает только
	// рекомендация ускорения.
	if h.baseline != nil {
		in.Baseline, err = h.baseline.Baseline(ctx)
		if err != nil {
			h.log.Warn("baseline unavailable, building without it",
				logger.StudentID(studentID.String()),
				logger.Err(err),
			)
			in.Baseline = nil
		}
	}

	return in, nil
}
