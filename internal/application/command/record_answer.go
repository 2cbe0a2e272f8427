// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quizhub/progress-hub/internal/application/query"
	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ANSWER COMMAND
// Единственный штатный путь записи: ответ студента превращается в неизменяемое
// событие и дописывается в лог. После записи - лучшая попытка детекции
// достижений и инвалидация производных витрин; их сбои логируются, но сам
// сабмит ответа никогда из-за них не падает.
// ══════════════════════════════════════════════════════════════════════════════

// RecordAnswerCommand содержит данные одного ответа.
type RecordAnswerCommand struct {
	// StudentID - ID студента (UUID).
	StudentID string

	// QuestionID - ID вопроса.
	QuestionID string

	// Subject - предмет вопроса.
	Subject string

	// Difficulty - сложность: easy, medium, hard.
	Difficulty string

	// Correct - правильный ли ответ.
	Correct bool

	// ResponseTimeSeconds - время ответа в секундах.
	ResponseTimeSeconds float64

	// AttemptNumber - номер попытки, >= 1 (0 трактуется как 1).
	AttemptNumber int

	// AnsweredAt - момент ответа (пустой = сейчас).
	AnsweredAt time.Time
}

// toEvent валидирует команду и строит доменное событие.
func (c *RecordAnswerCommand) toEvent() (*answer.Event, error) {
	studentID, err := shared.NewStudentID(c.StudentID)
	if err != nil {
		return nil, err
	}
	questionID, err := shared.NewQuestionID(c.QuestionID)
	if err != nil {
		return nil, err
	}
	subject, err := shared.NewSubject(c.Subject)
	if err != nil {
		return nil, err
	}
	tier, err := shared.ParseDifficultyTier(c.Difficulty)
	if err != nil {
		return nil, err
	}

	answeredAt := c.AnsweredAt
	if answeredAt.IsZero() {
		answeredAt = time.Now().UTC()
	}
	attempt := c.AttemptNumber
	if attempt == 0 {
		attempt = 1
	}

	event := &answer.Event{
		ID:                  uuid.NewString(),
		StudentID:           studentID,
		QuestionID:          questionID,
		Subject:             subject,
		DifficultyTier:      tier,
		Correct:             c.Correct,
		ResponseTimeSeconds: c.ResponseTimeSeconds,
		AttemptNumber:       attempt,
		AnsweredAt:          answeredAt.UTC(),
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// UnlockedAchievementDTO - бейдж, разблокированный этим ответом.
type UnlockedAchievementDTO struct {
	// Type - тип достижения.
	Type string `json:"type"`

	// Level - достигнутый уровень (только для level_up).
	Level int `json:"level,omitempty"`

	// Title - заголовок из каталога.
	Title string `json:"title"`

	// XPAwarded - бонусный XP.
	XPAwarded int `json:"xp_awarded"`
}

// RecordAnswerResult содержит результат записи.
type RecordAnswerResult struct {
	// EventID - ID записанного события.
	EventID string `json:"event_id"`

	// RecordedAt - момент ответа, как записан.
	RecordedAt time.Time `json:"recorded_at"`

	// Unlocked - бейджи, разблокированные этим ответом (лучшая попытка:
	// пустой список при сбое детекции).
	Unlocked []UnlockedAchievementDTO `json:"unlocked,omitempty"`
}

// RecordAnswerHandler обрабатывает запись ответов.
type RecordAnswerHandler struct {
	events   answer.EventStore
	detector *achievement.Detector
	cache    query.DerivedCache
	log      *logger.Logger
}

// NewRecordAnswerHandler создаёт новый обработчик.
func NewRecordAnswerHandler(
	events answer.EventStore,
	detector *achievement.Detector,
	cache query.DerivedCache,
	log *logger.Logger,
) *RecordAnswerHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordAnswerHandler{
		events:   events,
		detector: detector,
		cache:    cache,
		log:      log.With(logger.Component("command.record_answer")),
	}
}

// Handle выполняет команду.
func (h *RecordAnswerHandler) Handle(ctx context.Context, cmd RecordAnswerCommand) (*RecordAnswerResult, error) {
	event, err := cmd.toEvent()
	if err != nil {
		return nil, shared.WrapError("command", "RecordAnswer", shared.ErrValidation, "invalid answer", err)
	}

	if err := h.events.Append(ctx, event); err != nil {
		return nil, shared.WrapError("command", "RecordAnswer", shared.ErrStoreUnavailable, "event append failed", err)
	}

	h.log.Info("answer recorded",
		logger.StudentID(event.StudentID.String()),
		logger.QuestionID(event.QuestionID.String()),
		logger.Subject(event.Subject.String()),
		logger.Bool("correct", event.Correct),
	)

	result := &RecordAnswerResult{
		EventID:    event.ID,
		RecordedAt: event.AnsweredAt,
	}

	// Производные витрины устарели - сбрасываем. Лучшая попытка.
	if h.cache != nil {
		if err := h.cache.InvalidateStudent(ctx, event.StudentID); err != nil {
			h.log.Warn("cache invalidation failed", logger.StudentID(event.StudentID.String()), logger.Err(err))
		}
	}

	// Детекция достижений обогащает ответ, но не блокирует его.
	if h.detector != nil {
		unlocked, err := h.detector.Evaluate(ctx, event.StudentID)
		if err != nil {
			h.log.Error("achievement detection failed", logger.StudentID(event.StudentID.String()), logger.Err(err))
			return result, nil
		}
		for _, a := range unlocked {
			result.Unlocked = append(result.Unlocked, UnlockedAchievementDTO{
				Type:      a.Type.String(),
				Level:     a.Level,
				Title:     a.Title,
				XPAwarded: a.XPAwarded,
			})
		}
	}

	return result, nil
}
