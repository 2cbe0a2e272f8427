// Package notification содержит компоновщик ленты уведомлений. Лента
// эфемерна: она собирается по запросу из реестра достижений, состояния целей
// и недельных трендов и никогда не сохраняется.
package notification

import (
	"fmt"
	"sort"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/progress"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Kind - категория уведомления.
type Kind string

const (
	// KindAchievement - разблокирован значимый бейдж.
	KindAchievement Kind = "achievement"

	// KindStreak - серия активных дней.
	KindStreak Kind = "streak"

	// KindGoal - достигнута цель.
	KindGoal Kind = "goal"

	// KindMilestone - заметное улучшение неделя к неделе.
	KindMilestone Kind = "milestone"
)

// Карта приоритетов: меньше - важнее.
var priorityMap = map[Kind]int{
	KindAchievement: 1,
	KindStreak:      1,
	KindGoal:        2,
	KindMilestone:   3,
}

// MaxNotifications - максимум уведомлений в ленте.
const MaxNotifications = 5

// MinLevelNotification - минимальный уровень, о котором стоит уведомлять.
const MinLevelNotification = 5

// ImprovementThreshold - недельное улучшение точности (в долях), достойное
// уведомления: 10 процентных пунктов.
const ImprovementThreshold = 0.10

// Notification - один элемент ленты. Никогда не сохраняется.
type Notification struct {
	// ID - синтетический идентификатор для дедупликации.
	ID string `json:"id"`

	// Kind - категория.
	Kind Kind `json:"kind"`

	// Title - заголовок.
	Title string `json:"title"`

	// Message - текст уведомления.
	Message string `json:"message"`

	// Priority - приоритет из карты (меньше - важнее).
	Priority int `json:"priority"`

	// OccurredAt - когда произошло событие-источник.
	OccurredAt time.Time `json:"occurred_at"`
}

// Sources - сигналы, из которых собирается лента.
type Sources struct {
	// RecentAchievements - бейджи, разблокированные за окно "свежести".
	RecentAchievements []achievement.Achievement

	// Goals - текущее состояние целей.
	Goals []progress.Goal

	// WeekAccuracy - точность за скользящую неделю.
	WeekAccuracy shared.Accuracy

	// PrevWeekAccuracy - точность за предыдущую неделю.
	PrevWeekAccuracy shared.Accuracy

	// WeekTotal / PrevWeekTotal - размеры выборок обеих недель.
	WeekTotal     int
	PrevWeekTotal int

	// Now - момент сборки ленты.
	Now time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPOSER
// ══════════════════════════════════════════════════════════════════════════════

// Composer merges achievement, goal and trend signals into one deduplicated,
// priority-ordered feed. Stateless.
type Composer struct{}

// NewComposer создаёт компоновщик ленты.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose собирает ленту: достижения → цели → тренд, дедупликация по
// синтетическому ID, сортировка по приоритету, максимум MaxNotifications.
func (c *Composer) Compose(src Sources) []Notification {
	now := src.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var feed []Notification
	feed = append(feed, c.fromAchievements(src.RecentAchievements)...)
	feed = append(feed, c.fromGoals(src.Goals, now)...)
	if n := c.fromTrend(src, now); n != nil {
		feed = append(feed, *n)
	}

	feed = dedupe(feed)

	// Стабильная сортировка: при равном приоритете более свежие первыми.
	sort.SliceStable(feed, func(i, j int) bool {
		if feed[i].Priority != feed[j].Priority {
			return feed[i].Priority < feed[j].Priority
		}
		return feed[i].OccurredAt.After(feed[j].OccurredAt)
	})

	if len(feed) > MaxNotifications {
		feed = feed[:MaxNotifications]
	}
	return feed
}

// fromAchievements: только значимые бейджи - недельная серия и уровни >= 5.
func (c *Composer) fromAchievements(recent []achievement.Achievement) []Notification {
	var out []Notification
	for _, a := range recent {
		switch {
		case a.Type == achievement.TypeStreak7:
			out = append(out, Notification{
				ID:         "streak:" + a.Type.String(),
				Kind:       KindStreak,
				Title:      a.Title,
				Message:    "7 active days in a row - keep the fire going",
				Priority:   priorityMap[KindStreak],
				OccurredAt: a.UnlockedAt,
			})
		case a.Type == achievement.TypeLevelUp && a.Level >= MinLevelNotification:
			out = append(out, Notification{
				ID:         fmt.Sprintf("achievement:level:%d", a.Level),
				Kind:       KindAchievement,
				Title:      a.Title,
				Message:    fmt.Sprintf("You reached level %d", a.Level),
				Priority:   priorityMap[KindAchievement],
				OccurredAt: a.UnlockedAt,
			})
		}
	}
	return out
}

// fromGoals: недавно достигнутые цели по объёму и точности.
func (c *Composer) fromGoals(goals []progress.Goal, now time.Time) []Notification {
	var out []Notification
	for _, g := range goals {
		if !g.Met {
			continue
		}
		switch g.Kind {
		case progress.GoalWeeklyVolume:
			out = append(out, Notification{
				ID:         "goal:weekly_volume",
				Kind:       KindGoal,
				Title:      "Weekly goal met",
				Message:    fmt.Sprintf("%.0f questions this week - target was %.0f", g.Current, g.Target),
				Priority:   priorityMap[KindGoal],
				OccurredAt: now,
			})
		case progress.GoalAccuracy:
			out = append(out, Notification{
				ID:         "goal:accuracy",
				Kind:       KindGoal,
				Title:      "Accuracy goal met",
				Message:    fmt.Sprintf("%.0f%% accuracy - target was %.0f%%", g.Current*100, g.Target*100),
				Priority:   priorityMap[KindGoal],
				OccurredAt: now,
			})
		}
	}
	return out
}

// fromTrend: улучшение точности неделя к неделе на 10+ пунктов.
// Обе недели должны иметь выборку, иначе сравнивать нечего.
func (c *Composer) fromTrend(src Sources, now time.Time) *Notification {
	if src.WeekTotal == 0 || src.PrevWeekTotal == 0 {
		return nil
	}

	delta := src.WeekAccuracy.Float64() - src.PrevWeekAccuracy.Float64()
	if delta < ImprovementThreshold {
		return nil
	}

	return &Notification{
		ID:    "milestone:accuracy_improvement",
		Kind:  KindMilestone,
		Title: "You are improving",
		Message: fmt.Sprintf("Accuracy up %.0f points week over week (%.0f%% → %.0f%%)",
			delta*100, src.PrevWeekAccuracy.Percent(), src.WeekAccuracy.Percent()),
		Priority:   priorityMap[KindMilestone],
		OccurredAt: now,
	}
}

// dedupe удаляет дубликаты по синтетическому ID, сохраняя первый.
func dedupe(in []Notification) []Notification {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, n := range in {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}
