package command

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/internal/application/query"
	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET PROGRESS COMMAND
// Единственный путь удаления из append-only лога: административный сброс.
// Удаляет события студента (все или по списку вопросов) и, по запросу,
// строки реестра достижений. После сброса все производные витрины
// пересчитаются из оставшихся событий.
// ══════════════════════════════════════════════════════════════════════════════

// ResetProgressCommand содержит параметры сброса.
type ResetProgressCommand struct {
	// StudentID - ID студента (UUID).
	StudentID string

	// QuestionIDs - ограничить сброс этими вопросами; пусто = все события.
	QuestionIDs []string

	// ResetAchievements - удалить и строки реестра достижений.
	ResetAchievements bool
}

// Validate проверяет корректность параметров.
func (c *ResetProgressCommand) Validate() error {
	id, err := shared.NewStudentID(c.StudentID)
	if err != nil {
		return err
	}
	c.StudentID = id.String()
	for i, q := range c.QuestionIDs {
		qid, err := shared.NewQuestionID(q)
		if err != nil {
			return err
		}
		c.QuestionIDs[i] = qid.String()
	}
	return nil
}

// ResetProgressResult содержит результат сброса.
type ResetProgressResult struct {
	// StudentID - ID студента.
	StudentID string `json:"student_id"`

	// EventsRemoved - удалено событий.
	EventsRemoved int `json:"events_removed"`

	// AchievementsRemoved - удалено строк реестра.
	AchievementsRemoved int `json:"achievements_removed"`

	// ResetAt - момент сброса.
	ResetAt time.Time `json:"reset_at"`
}

// ResetProgressHandler обрабатывает административный сброс.
type ResetProgressHandler struct {
	events answer.EventStore
	ledger achievement.Ledger
	cache  query.DerivedCache
	log    *logger.Logger
}

// NewResetProgressHandler создаёт новый обработчик.
func NewResetProgressHandler(
	events answer.EventStore,
	ledger achievement.Ledger,
	cache query.DerivedCache,
	log *logger.Logger,
) *ResetProgressHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ResetProgressHandler{
		events: events,
		ledger: ledger,
		cache:  cache,
		log:    log.With(logger.Component("command.reset_progress")),
	}
}

// Handle выполняет команду.
func (h *ResetProgressHandler) Handle(ctx context.Context, cmd ResetProgressCommand) (*ResetProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "ResetProgress", shared.ErrValidation, "invalid reset", err)
	}

	studentID := shared.StudentID(cmd.StudentID)

	questionIDs := make([]shared.QuestionID, 0, len(cmd.QuestionIDs))
	for _, q := range cmd.QuestionIDs {
		questionIDs = append(questionIDs, shared.QuestionID(q))
	}

	removed, err := h.events.ResetEvents(ctx, studentID, questionIDs)
	if err != nil {
		return nil, shared.WrapError("command", "ResetProgress", shared.ErrStoreUnavailable, "event reset failed", err)
	}

	result := &ResetProgressResult{
		StudentID:     cmd.StudentID,
		EventsRemoved: removed,
		ResetAt:       time.Now().UTC(),
	}

	if cmd.ResetAchievements && h.ledger != nil {
		n, err := h.ledger.Reset(ctx, studentID)
		if err != nil {
			return nil, shared.WrapError("command", "ResetProgress", shared.ErrStoreUnavailable, "ledger reset failed", err)
		}
		result.AchievementsRemoved = n
	}

	if h.cache != nil {
		if err := h.cache.InvalidateStudent(ctx, studentID); err != nil {
			h.log.Warn("cache invalidation failed", logger.StudentID(cmd.StudentID), logger.Err(err))
		}
	}

	h.log.Info("progress reset",
		logger.StudentID(cmd.StudentID),
		logger.Int("events_removed", result.EventsRemoved),
		logger.Int("achievements_removed", result.AchievementsRemoved),
	)

	return result, nil
}
