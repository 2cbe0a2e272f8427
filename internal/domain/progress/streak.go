package progress

import (
	"time"

	"github.com/quizhub/progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (Серия активных дней)
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLookbackDays - окно просмотра активности для расчёта серии.
const DefaultLookbackDays = 365

// Streak представляет серию последовательных дней активности.
type Streak struct {
	// CurrentLength - текущая серия дней.
	CurrentLength int

	// RecordLength - лучшая серия дней за окно просмотра.
	RecordLength int

	// LastActiveDay - последний активный день (полночь UTC).
	LastActiveDay time.Time

	// StreakStartDay - первый день текущей серии (полночь UTC).
	StreakStartDay time.Time
}

// IsEmpty возвращает true, если активности не было вовсе.
func (s Streak) IsEmpty() bool {
	return s.CurrentLength == 0 && s.RecordLength == 0
}

// CalculateStreak вычисляет серию из упорядоченного по возрастанию списка
// различных календарных дней активности.
//
// Правило: разрыв ровно в 1 день продолжает серию, разрыв больше 1 дня
// сбрасывает её. Разница дней считается целочисленно по номерам календарных
// дней, а не вычитанием таймстемпов - иначе таймзоны и переход на летнее
// время дают дрейф.
func CalculateStreak(activeDays []time.Time) Streak {
	if len(activeDays) == 0 {
		return Streak{}
	}

	var (
		currentRun  = 0
		recordRun   = 0
		prevDay     time.Time
		streakStart = activeDays[0]
	)

	for i, day := range activeDays {
		if i == 0 {
			currentRun = 1
			streakStart = day
		} else {
			switch {
			case timeutil.IsSameDay(prevDay, day):
				// Дубликат дня во входных данных - игнорируем.
				continue
			case timeutil.IsConsecutiveDay(prevDay, day):
				currentRun++
			default:
				currentRun = 1
				streakStart = day
			}
		}

		if currentRun > recordRun {
			recordRun = currentRun
		}
		prevDay = day
	}

	return Streak{
		CurrentLength:  currentRun,
		RecordLength:   recordRun,
		LastActiveDay:  timeutil.StartOfDay(activeDays[len(activeDays)-1]),
		StreakStartDay: timeutil.StartOfDay(streakStart),
	}
}

// IsBroken проверяет, прервана ли серия относительно момента now:
// если последний активный день раньше вчерашнего, серия потеряна.
func (s Streak) IsBroken(now time.Time) bool {
	if s.LastActiveDay.IsZero() {
		return false
	}
	return timeutil.DaysSince(s.LastActiveDay, now) > 1
}
