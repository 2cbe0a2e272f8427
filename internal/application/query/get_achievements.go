package query

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/shared"
	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS QUERY
// Разблокированные бейджи студента из append-only реестра, старые первыми.
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementsQuery содержит параметры запроса достижений.
type GetAchievementsQuery struct {
	// StudentID - ID студента (UUID).
	StudentID string
}

// Validate проверяет корректность параметров.
func (q *GetAchievementsQuery) Validate() error {
	id, err := shared.NewStudentID(q.StudentID)
	if err != nil {
		return err
	}
	q.StudentID = id.String()
	return nil
}

// AchievementDTO - один разблокированный бейдж.
type AchievementDTO struct {
	// Type - тип достижения.
	Type string `json:"type"`

	// Level - достигнутый уровень (только для level_up).
	Level int `json:"level,omitempty"`

	// Title - заголовок из каталога.
	Title string `json:"title"`

	// Description - описание из каталога.
	Description string `json:"description"`

	// XPAwarded - бонусный XP.
	XPAwarded int `json:"xp_awarded"`

	// UnlockedAt - когда разблокирован.
	UnlockedAt time.Time `json:"unlocked_at"`
}

// GetAchievementsResult содержит результат запроса.
type GetAchievementsResult struct {
	// StudentID - ID студента.
	StudentID string `json:"student_id"`

	// Achievements - разблокированные бейджи, старые первыми.
	Achievements []AchievementDTO `json:"achievements"`

	// TotalUnlocked - сколько разблокировано.
	TotalUnlocked int `json:"total_unlocked"`

	// CatalogSize - размер каталога бейджей.
	CatalogSize int `json:"catalog_size"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetAchievementsHandler обрабатывает запросы достижений.
type GetAchievementsHandler struct {
	ledger achievement.Ledger
	log    *logger.Logger
}

// NewGetAchievementsHandler создаёт новый обработчик.
func NewGetAchievementsHandler(ledger achievement.Ledger, log *logger.Logger) *GetAchievementsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetAchievementsHandler{
		ledger: ledger,
		log:    log.With(logger.Component("query.achievements")),
	}
}

// Handle выполняет запрос.
func (h *GetAchievementsHandler) Handle(ctx context.Context, query GetAchievementsQuery) (*GetAchievementsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetAchievements", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)

	unlocked, err := h.ledger.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetAchievements", shared.ErrStoreUnavailable, "ledger read failed", err)
	}

	result := &GetAchievementsResult{
		StudentID:     query.StudentID,
		Achievements:  make([]AchievementDTO, 0, len(unlocked)),
		TotalUnlocked: len(unlocked),
		CatalogSize:   len(achievement.Definitions()),
		GeneratedAt:   time.Now().UTC(),
	}
	for _, a := range unlocked {
		result.Achievements = append(result.Achievements, AchievementDTO{
			Type:        a.Type.String(),
			Level:       a.Level,
			Title:       a.Title,
			Description: a.Description,
			XPAwarded:   a.XPAwarded,
			UnlockedAt:  a.UnlockedAt,
		})
	}

	return result, nil
}
