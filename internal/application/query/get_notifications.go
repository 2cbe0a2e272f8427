package query

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/config"
	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/notification"
	"github.com/quizhub/progress-hub/internal/domain/progress"
	"github.com/quizhub/progress-hub/internal/domain/shared"
	"github.com/quizhub/progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET NOTIFICATIONS QUERY
// Эфемерная лента уведомлений: собирается по запросу из реестра достижений,
// состояния целей и недельного тренда. Ничего не сохраняется и не
// помечается прочитанным - лента просто пересобирается.
// ══════════════════════════════════════════════════════════════════════════════

// RecencyWindowDays - окно "свежести" достижений для ленты.
const RecencyWindowDays = 7

// GetNotificationsQuery содержит параметры запроса ленты.
type GetNotificationsQuery struct {
	// StudentID - ID студента (UUID).
	StudentID string
}

// Validate проверяет корректность параметров.
func (q *GetNotificationsQuery) Validate() error {
	id, err := shared.NewStudentID(q.StudentID)
	if err != nil {
		return err
	}
	q.StudentID = id.String()
	return nil
}

// NotificationDTO - один элемент ленты.
type NotificationDTO struct {
	// ID - синтетический идентификатор (детерминирован для снимка).
	ID string `json:"id"`

	// Kind - категория: achievement, streak, goal, milestone.
	Kind string `json:"kind"`

	// Title - заголовок.
	Title string `json:"title"`

	// Message - текст уведомления.
	Message string `json:"message"`

	// Priority - приоритет (меньше - важнее).
	Priority int `json:"priority"`

	// OccurredAt - когда произошло событие-источник.
	OccurredAt time.Time `json:"occurred_at"`
}

// GetNotificationsResult содержит результат запроса.
type GetNotificationsResult struct {
	// StudentID - ID студента.
	StudentID string `json:"student_id"`

	// Notifications - лента, максимум 5 элементов.
	Notifications []NotificationDTO `json:"notifications"`

	// GeneratedAt - время генерации.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetNotificationsHandler обрабатывает запросы ленты уведомлений.
type GetNotificationsHandler struct {
	events   answer.EventStore
	ledger   achievement.Ledger
	composer *notification.Composer
	flags    *config.FeatureFlags
	log      *logger.Logger
}

// NewGetNotificationsHandler создаёт новый обработчик.
// nil flags = все категории ленты включены.
func NewGetNotificationsHandler(
	events answer.EventStore,
	ledger achievement.Ledger,
	flags *config.FeatureFlags,
	log *logger.Logger,
) *GetNotificationsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetNotificationsHandler{
		events:   events,
		ledger:   ledger,
		composer: notification.NewComposer(),
		flags:    flags,
		log:      log.With(logger.Component("query.notifications")),
	}
}

// Handle выполняет запрос.
func (h *GetNotificationsHandler) Handle(ctx context.Context, query GetNotificationsQuery) (*GetNotificationsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetNotifications", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)
	now := time.Now().UTC()

	src, err := h.collectSources(ctx, studentID, now)
	if err != nil {
		return nil, err
	}

	feed := h.filterByFlags(h.composer.Compose(src), query.StudentID)

	result := &GetNotificationsResult{
		StudentID:     query.StudentID,
		Notifications: make([]NotificationDTO, 0, len(feed)),
		GeneratedAt:   now,
	}
	for _, n := range feed {
		result.Notifications = append(result.Notifications, NotificationDTO{
			ID:         n.ID,
			Kind:       string(n.Kind),
			Title:      n.Title,
			Message:    n.Message,
			Priority:   n.Priority,
			OccurredAt: n.OccurredAt,
		})
	}

	return result, nil
}

// filterByFlags убирает категории ленты, выключенные фичефлагами
// для этого студента. Уведомления о достижениях не гейтятся.
func (h *GetNotificationsHandler) filterByFlags(feed []notification.Notification, studentID string) []notification.Notification {
	if h.flags == nil {
		return feed
	}

	fctx := &config.FeatureContext{StudentID: studentID}
	filtered := feed[:0]
	for _, n := range feed {
		switch n.Kind {
		case notification.KindStreak:
			if !h.flags.IsEnabled(config.FeatureNotifyStreak, fctx) {
				continue
			}
		case notification.KindGoal:
			if !h.flags.IsEnabled(config.FeatureNotifyGoalNudge, fctx) {
				continue
			}
		case notification.KindMilestone:
			if !h.flags.IsEnabled(config.FeatureNotifyTrendAlerts, fctx) {
				continue
			}
		}
		filtered = append(filtered, n)
	}
	return filtered
}

// collectSources собирает сигналы для компоновщика.
func (h *GetNotificationsHandler) collectSources(ctx context.Context, studentID shared.StudentID, now time.Time) (notification.Sources, error) {
	src := notification.Sources{Now: now}

	since := now.AddDate(0, 0, -RecencyWindowDays)
	recent, err := h.ledger.ListUnlockedSince(ctx, studentID, since)
	if err != nil {
		return src, shared.WrapError("query", "GetNotifications", shared.ErrStoreUnavailable, "ledger read failed", err)
	}
	src.RecentAchievements = recent

	overall, err := h.events.CountAndAccuracy(ctx, studentID, shared.TimeWindow{})
	if err != nil {
		return src, shared.WrapError("query", "GetNotifications", shared.ErrStoreUnavailable, "aggregate read failed", err)
	}

	week, err := h.events.CountAndAccuracy(ctx, studentID, shared.TrailingWeek())
	if err != nil {
		return src, shared.WrapError("query", "GetNotifications", shared.ErrStoreUnavailable, "weekly aggregate read failed", err)
	}
	src.WeekAccuracy = week.Accuracy
	src.WeekTotal = week.Total

	prevWeek, err := h.events.CountAndAccuracy(ctx, studentID, shared.PreviousWeek())
	if err != nil {
		return src, shared.WrapError("query", "GetNotifications", shared.ErrStoreUnavailable, "previous week aggregate read failed", err)
	}
	src.PrevWeekAccuracy = prevWeek.Accuracy
	src.PrevWeekTotal = prevWeek.Total

	src.Goals = progress.CalculateGoals(progress.GoalInputs{
		WeeklyAnswered:   week.Total,
		Accuracy:         overall.Accuracy,
		MeanResponseTime: overall.MeanResponseTime,
		TotalAnswered:    overall.Total,
	})

	return src, nil
}
