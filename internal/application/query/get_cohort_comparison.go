package query

import (
	"context"

	"github.com/quizhub/progress-hub/config"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COHORT COMPARISON QUERY
// Сравнение студента с когортой. Пока не реализовано: нет модели когорт
// (групп, потоков) в источнике данных - есть только глобальный базлайн,
// который уже используется движком рекомендаций. Обработчик существует,
// чтобы зафиксировать контракт операции и вернуть явную ошибку вместо 404.
//
// Операция скрыта за экспериментальным фичефлагом: пока флаг выключен,
// студент получает "не найдено", а не признание в нереализованности.
// ══════════════════════════════════════════════════════════════════════════════

// GetCohortComparisonQuery содержит параметры сравнения с когортой.
type GetCohortComparisonQuery struct {
	// StudentID - ID студента (UUID).
	StudentID string

	// CohortID - идентификатор когорты.
	CohortID string
}

// Validate проверяет корректность параметров.
func (q *GetCohortComparisonQuery) Validate() error {
	id, err := shared.NewStudentID(q.StudentID)
	if err != nil {
		return err
	}
	q.StudentID = id.String()
	return nil
}

// GetCohortComparisonHandler обрабатывает запросы сравнения с когортой.
type GetCohortComparisonHandler struct {
	flags *config.FeatureFlags
}

// NewGetCohortComparisonHandler создаёт обработчик-заглушку.
// nil flags = операция видна (и отвечает "не реализовано").
func NewGetCohortComparisonHandler(flags *config.FeatureFlags) *GetCohortComparisonHandler {
	return &GetCohortComparisonHandler{flags: flags}
}

// Handle возвращает ErrCohortDisabled при выключенном флаге,
// иначе ErrNotImplemented: когортной модели ещё нет.
func (h *GetCohortComparisonHandler) Handle(ctx context.Context, query GetCohortComparisonQuery) error {
	if err := query.Validate(); err != nil {
		return shared.WrapError("query", "GetCohortComparison", shared.ErrValidation, "invalid query", err)
	}
	if h.flags != nil && !h.flags.IsEnabled(config.FeatureCohortComparison, &config.FeatureContext{StudentID: query.StudentID}) {
		return shared.ErrCohortDisabled
	}
	return shared.ErrCohortNotImplemented
}
