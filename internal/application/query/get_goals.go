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
// GET GOALS QUERY
// Адаптивные цели: недельный объём, точность, время ответа. Целевые значения
// пересчитываются из текущих агрегатов при каждом вызове - никакого
// сохранённого состояния храповика, поэтому повторные вызовы без новых
// событий идемпотентны.
// ══════════════════════════════════════════════════════════════════════════════

// GetGoalsQuery содержит параметры запроса целей.
type GetGoalsQuery struct {
	// StudentID - ID студента (UUID).
	StudentID string
}

// Validate проверяет корректность параметров.
func (q *GetGoalsQuery) Validate() error {
	id, err := shared.NewStudentID(q.StudentID)
	if err != nil {
		return err
	}
	q.StudentID = id.String()
	return nil
}

// GoalDTO - одна цель.
type GoalDTO struct {
	// Kind - тип цели: weekly_volume, accuracy, latency.
	Kind string `json:"kind"`

	// Current - текущее значение.
	Current float64 `json:"current"`

	// Target - целевое значение.
	Target float64 `json:"target"`

	// Progress - прогресс в процентах, 0..100.
	Progress int `json:"progress"`

	// Met - достигнута ли цель.
	Met bool `json:"met"`
}

// GetGoalsResult содержит результат запроса.
type GetGoalsResult struct {
	// StudentID - ID студента.
	StudentID string `json:"student_id"`

	// Goals - все три цели.
	Goals []GoalDTO `json:"goals"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetGoalsHandler обрабатывает запросы целей.
type GetGoalsHandler struct {
	events answer.EventStore
	log    *logger.Logger
}

// NewGetGoalsHandler создаёт новый обработчик.
func NewGetGoalsHandler(events answer.EventStore, log *logger.Logger) *GetGoalsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetGoalsHandler{
		events: events,
		log:    log.With(logger.Component("query.goals")),
	}
}

// Handle выполняет запрос.
func (h *GetGoalsHandler) Handle(ctx context.Context, query GetGoalsQuery) (*GetGoalsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetGoals", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)

	overall, err := h.events.CountAndAccuracy(ctx, studentID, shared.TimeWindow{})
	if err != nil {
		return nil, shared.WrapError("query", "GetGoals", shared.ErrStoreUnavailable, "aggregate read failed", err)
	}

	weekly, err := h.events.CountAndAccuracy(ctx, studentID, shared.TrailingWeek())
	if err != nil {
		return nil, shared.WrapError("query", "GetGoals", shared.ErrStoreUnavailable, "weekly aggregate read failed", err)
	}

	goals := progress.CalculateGoals(progress.GoalInputs{
		WeeklyAnswered:   weekly.Total,
		Accuracy:         overall.Accuracy,
		MeanResponseTime: overall.MeanResponseTime,
		TotalAnswered:    overall.Total,
	})

	result := &GetGoalsResult{
		StudentID:   query.StudentID,
		Goals:       make([]GoalDTO, 0, len(goals)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, g := range goals {
		result.Goals = append(result.Goals, GoalDTO{
			Kind:     string(g.Kind),
			Current:  g.Current,
			Target:   g.Target,
			Progress: g.Progress,
			Met:      g.Met,
		})
	}

	return result, nil
}
