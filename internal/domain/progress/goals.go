package progress

import (
	"math"

	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GOAL TRACKER (Адаптивные цели)
// ══════════════════════════════════════════════════════════════════════════════

// GoalKind - тип цели.
type GoalKind string

const (
	// GoalWeeklyVolume - количество вопросов за неделю.
	GoalWeeklyVolume GoalKind = "weekly_volume"

	// GoalAccuracy - точность ответов.
	GoalAccuracy GoalKind = "accuracy"

	// GoalLatency - среднее время ответа (меньше - лучше).
	GoalLatency GoalKind = "latency"
)

// Базовые цели. Целевые значения пересчитываются из текущих агрегатов при
// каждом запросе - никакого скрытого изменяемого состояния храповика нет.
const (
	// BaseWeeklyVolume - базовая цель: вопросов в неделю.
	BaseWeeklyVolume = 50

	// WeeklyRaiseTrigger - множитель, после которого недельная цель растёт.
	WeeklyRaiseTrigger = 1.2

	// WeeklyRaiseFactor - во сколько раз поднимается недельная цель.
	WeeklyRaiseFactor = 1.1

	// BaseAccuracyTarget - базовая цель точности.
	BaseAccuracyTarget = 0.85

	// MaxAccuracyTarget - потолок адаптивной цели точности.
	MaxAccuracyTarget = 0.95

	// AccuracyRaiseStep - на сколько поднимается цель точности.
	AccuracyRaiseStep = 0.05

	// LatencyTargetSeconds - фиксированная цель среднего времени ответа.
	LatencyTargetSeconds = 45.0
)

// Goal представляет одну цель с текущим значением, целевым и прогрессом.
type Goal struct {
	// Kind - тип цели.
	Kind GoalKind

	// Current - текущее значение.
	Current float64

	// Target - целевое значение (адаптивное для volume/accuracy).
	Target float64

	// Progress - прогресс в процентах, 0..100.
	Progress int

	// Met - достигнута ли цель.
	Met bool
}

// GoalInputs - агрегаты, из которых пересчитываются цели.
type GoalInputs struct {
	// WeeklyAnswered - вопросов отвечено за текущую неделю.
	WeeklyAnswered int

	// Accuracy - общая точность студента.
	Accuracy shared.Accuracy

	// MeanResponseTime - среднее время ответа в секундах.
	MeanResponseTime float64

	// TotalAnswered - всего отвечено (для защиты от пустых данных).
	TotalAnswered int
}

// CalculateGoals пересчитывает все три цели из текущих агрегатов.
// Функция чистая: одинаковые входы всегда дают одинаковые цели.
func CalculateGoals(in GoalInputs) []Goal {
	return []Goal{
		weeklyVolumeGoal(in.WeeklyAnswered),
		accuracyGoal(in.Accuracy, in.TotalAnswered),
		latencyGoal(in.MeanResponseTime, in.TotalAnswered),
	}
}

// weeklyVolumeGoal: базовая цель 50 вопросов/неделя. Цель поднимается до
// round(current × 1.1) только когда текущий объём уверенно превысил базу
// (больше 1.2 × базы) - первое достижение базы цель не трогает.
func weeklyVolumeGoal(weekly int) Goal {
	target := float64(BaseWeeklyVolume)
	if float64(weekly) > WeeklyRaiseTrigger*target {
		target = math.Round(float64(weekly) * WeeklyRaiseFactor)
	}

	return Goal{
		Kind:     GoalWeeklyVolume,
		Current:  float64(weekly),
		Target:   target,
		Progress: ratioProgress(float64(weekly), target),
		Met:      float64(weekly) >= target,
	}
}

// accuracyGoal: базовая цель 0.85; при превышении цель подтягивается к
// min(0.95, current + 0.05).
func accuracyGoal(acc shared.Accuracy, total int) Goal {
	current := acc.Float64()
	target := BaseAccuracyTarget
	if current > target {
		target = math.Min(MaxAccuracyTarget, current+AccuracyRaiseStep)
	}

	g := Goal{
		Kind:    GoalAccuracy,
		Current: current,
		Target:  target,
		Met:     current >= BaseAccuracyTarget,
	}
	if total > 0 {
		g.Progress = ratioProgress(current, target)
	}
	return g
}

// latencyGoal: фиксированная цель 45 секунд, метрика инвертирована.
// Без единого ответа прогресс равен 0, а не 100 - отсутствие данных
// не считается достижением цели.
func latencyGoal(meanRT float64, total int) Goal {
	g := Goal{
		Kind:    GoalLatency,
		Current: meanRT,
		Target:  LatencyTargetSeconds,
	}
	if total == 0 {
		return g
	}

	if meanRT <= LatencyTargetSeconds {
		g.Progress = 100
		g.Met = true
	} else {
		g.Progress = int(math.Round(LatencyTargetSeconds / meanRT * 100))
	}
	return g
}

// ratioProgress = min(100, round(current/target × 100)).
func ratioProgress(current, target float64) int {
	if target <= 0 {
		return 0
	}
	p := int(math.Round(current / target * 100))
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return p
}
