// Package recommendation реализует движок персональных рекомендаций:
// скоринг предметов относительно глобального базлайна, отбор слабых и
// сильных направлений и сборка приоритизированного списка действий.
// Все вычисления детерминированы и воспроизводимы для одного снимка событий.
package recommendation

import (
	"fmt"
	"math"
	"sort"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MinSubjectSample - минимум ответов по предмету для участия в ранжировании.
	MinSubjectSample = 8

	// ConfidenceSaturation - на сколько ответов выше минимума уверенность
	// приближается к 1.
	ConfidenceSaturation = 50

	// DifficultyPenalty - штраф скоринга за единицу средней сложности.
	DifficultyPenalty = 0.05

	// AccelerateGapSeconds - превышение базлайна по времени ответа, после
	// которого предмет становится кандидатом на ускорение.
	AccelerateGapSeconds = 8.0

	// HabitMinActiveDays - целевое число активных дней в скользящей неделе.
	HabitMinActiveDays = 5

	// ScheduleMinHourSample - минимум ответов в часе суток для рекомендации
	// расписания.
	ScheduleMinHourSample = 20

	// MaxRecommendations - максимум рекомендаций в ответе.
	MaxRecommendations = 4
)

// Kind - тип рекомендации.
type Kind string

const (
	// KindReinforce - подтянуть самый слабый предмет.
	KindReinforce Kind = "reinforce"

	// KindAccelerate - ускориться там, где студент заметно медленнее базлайна.
	KindAccelerate Kind = "accelerate"

	// KindDeepen - углубить самый сильный предмет.
	KindDeepen Kind = "deepen"

	// KindHabit - выработать привычку ежедневной практики.
	KindHabit Kind = "habit"

	// KindSchedule - сконцентрировать практику в самый результативный час.
	KindSchedule Kind = "schedule"
)

// Фиксированные веса приоритета: reinforce > accelerate ≈ deepen > habit > schedule.
var priorityWeights = map[Kind]int{
	KindReinforce:  50,
	KindAccelerate: 40,
	KindDeepen:     38,
	KindHabit:      30,
	KindSchedule:   20,
}

// ══════════════════════════════════════════════════════════════════════════════
// TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Targets - конкретные целевые значения рекомендации.
type Targets struct {
	// Subject - предмет (для reinforce/accelerate/deepen).
	Subject shared.Subject `json:"subject,omitempty"`

	// PracticeItems - сколько вопросов отработать.
	PracticeItems int `json:"practice_items,omitempty"`

	// Accuracy - целевая точность в [0,1].
	Accuracy float64 `json:"accuracy,omitempty"`

	// ResponseTimeSeconds - целевое среднее время ответа.
	ResponseTimeSeconds float64 `json:"response_time_seconds,omitempty"`

	// ActiveDays - целевое число активных дней в неделю (для habit).
	ActiveDays int `json:"active_days,omitempty"`

	// Hour - рекомендованный час суток, -1 если не применимо.
	Hour int `json:"hour,omitempty"`
}

// Recommendation - одна рекомендация. Эфемерная: пересчитывается по запросу.
type Recommendation struct {
	// Kind - тип рекомендации.
	Kind Kind `json:"kind"`

	// Title - короткий заголовок.
	Title string `json:"title"`

	// Action - что именно сделать.
	Action string `json:"action"`

	// Targets - целевые значения.
	Targets Targets `json:"targets"`

	// Rationale - объяснение из тех же чисел, что и скоринг.
	Rationale string `json:"rationale"`

	// Confidence - уверенность в [0,1], растёт с размером выборки.
	Confidence float64 `json:"confidence"`

	priority int
}

// Inputs - снимок агрегатов, из которого строятся рекомендации.
type Inputs struct {
	// Subjects - агрегаты студента по предметам.
	Subjects []answer.SubjectAggregate

	// Baseline - глобальные агрегаты по тем же предметам.
	Baseline []answer.BaselineAggregate

	// ActiveDaysLast7 - различных активных дней за скользящие 7 дней.
	ActiveDaysLast7 int

	// Hours - точность студента по часам суток.
	Hours []answer.HourAccuracy

	// TotalAnswered - всего ответов студента.
	TotalAnswered int
}

// scored - предмет с вычисленным скором.
type scored struct {
	agg   answer.SubjectAggregate
	score float64
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine строит рекомендации из агрегатов. Состояния не имеет.
type Engine struct{}

// NewEngine создаёт движок рекомендаций.
func NewEngine() *Engine {
	return &Engine{}
}

// Build собирает список рекомендаций: скоринг, отбор по видам, сортировка по
// весу приоритета и усечение до MaxRecommendations.
func (e *Engine) Build(in Inputs) []Recommendation {
	eligible := e.scoreSubjects(in.Subjects)

	var recs []Recommendation

	if r := e.reinforce(eligible); r != nil {
		recs = append(recs, *r)
	}
	if r := e.accelerate(eligible, in.Baseline); r != nil {
		recs = append(recs, *r)
	}
	if r := e.deepen(eligible); r != nil {
		recs = append(recs, *r)
	}
	if r := e.habit(in.ActiveDaysLast7, in.TotalAnswered); r != nil {
		recs = append(recs, *r)
	}
	if r := e.schedule(in.Hours); r != nil {
		recs = append(recs, *r)
	}

	// Стабильная сортировка по убыванию веса; при равных весах порядок
	// добавления сохраняется, поэтому результат детерминирован.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].priority > recs[j].priority
	})

	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

// scoreSubjects считает скор каждого предмета с достаточной выборкой:
// score = accuracy − 0.05 × meanDifficulty. Результат отсортирован по
// возрастанию скора, при равенстве - по имени предмета.
func (e *Engine) scoreSubjects(subjects []answer.SubjectAggregate) []scored {
	out := make([]scored, 0, len(subjects))
	for _, agg := range subjects {
		if agg.Total < MinSubjectSample {
			continue
		}
		out = append(out, scored{
			agg:   agg,
			score: agg.Accuracy.Float64() - DifficultyPenalty*agg.MeanDifficulty,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score < out[j].score
		}
		return out[i].agg.Subject < out[j].agg.Subject
	})
	return out
}

// reinforce: самый слабый предмет из подходящих.
func (e *Engine) reinforce(eligible []scored) *Recommendation {
	if len(eligible) == 0 {
		return nil
	}
	worst := eligible[0]
	agg := worst.agg
	acc := agg.Accuracy.Float64()

	items := int(math.Ceil(float64(agg.Total) * 0.6))
	if items < 15 {
		items = 15
	}
	if items > 40 {
		items = 40
	}

	targetAcc := math.Min(0.85, math.Max(0.65, acc+0.10))
	targetRT := agg.MeanResponseTime * 0.9

	return &Recommendation{
		Kind:   KindReinforce,
		Title:  fmt.Sprintf("Reinforce %s", agg.Subject),
		Action: fmt.Sprintf("Practice %d %s questions aiming for %.0f%% accuracy", items, agg.Subject, targetAcc*100),
		Targets: Targets{
			Subject:             agg.Subject,
			PracticeItems:       items,
			Accuracy:            targetAcc,
			ResponseTimeSeconds: round1(targetRT),
			Hour:                -1,
		},
		Rationale: fmt.Sprintf(
			"%s is your weakest ranked subject: %.0f%% accuracy over %d answers (score %.2f)",
			agg.Subject, acc*100, agg.Total, worst.score,
		),
		Confidence: confidence(agg.Total, MinSubjectSample),
		priority:   priorityWeights[KindReinforce],
	}
}

// accelerate: один предмет с наибольшим превышением базлайна по времени
// ответа (больше AccelerateGapSeconds).
func (e *Engine) accelerate(eligible []scored, baseline []answer.BaselineAggregate) *Recommendation {
	baseRT := make(map[shared.Subject]float64, len(baseline))
	for _, b := range baseline {
		baseRT[b.Subject] = b.MeanResponseTime
	}

	var (
		found    bool
		worst    scored
		worstGap float64
	)
	for _, s := range eligible {
		base, ok := baseRT[s.agg.Subject]
		if !ok || base <= 0 {
			continue
		}
		gap := s.agg.MeanResponseTime - base
		if gap <= AccelerateGapSeconds {
			continue
		}
		if !found || gap > worstGap || (gap == worstGap && s.agg.Subject < worst.agg.Subject) {
			found = true
			worst = s
			worstGap = gap
		}
	}
	if !found {
		return nil
	}

	agg := worst.agg
	targetRT := math.Max(agg.MeanResponseTime-AccelerateGapSeconds, baseRT[agg.Subject])
	// Не регрессировать по точности больше чем на 2 пункта.
	floorAcc := math.Max(0, agg.Accuracy.Float64()-0.02)

	return &Recommendation{
		Kind:   KindAccelerate,
		Title:  fmt.Sprintf("Speed up in %s", agg.Subject),
		Action: fmt.Sprintf("Work on pacing in %s: target ~%.0fs per question without dropping accuracy", agg.Subject, targetRT),
		Targets: Targets{
			Subject:             agg.Subject,
			ResponseTimeSeconds: round1(targetRT),
			Accuracy:            floorAcc,
			Hour:                -1,
		},
		Rationale: fmt.Sprintf(
			"Your mean response time in %s is %.0fs, %.0fs slower than the global %.0fs",
			agg.Subject, agg.MeanResponseTime, worstGap, baseRT[agg.Subject],
		),
		Confidence: confidence(agg.Total, MinSubjectSample),
		priority:   priorityWeights[KindAccelerate],
	}
}

// deepen: самый сильный предмет, stretch-цель.
func (e *Engine) deepen(eligible []scored) *Recommendation {
	if len(eligible) < 2 {
		// Единственный подходящий предмет уже занят рекомендацией reinforce.
		return nil
	}
	best := eligible[len(eligible)-1]
	agg := best.agg
	acc := agg.Accuracy.Float64()

	items := int(math.Ceil(float64(agg.Total) * 0.8))
	if items < 20 {
		items = 20
	}
	if items > 50 {
		items = 50
	}

	return &Recommendation{
		Kind:   KindDeepen,
		Title:  fmt.Sprintf("Go deeper in %s", agg.Subject),
		Action: fmt.Sprintf("Take %d harder %s questions and hold your accuracy at %.0f%% or above", items, agg.Subject, acc*100),
		Targets: Targets{
			Subject:       agg.Subject,
			PracticeItems: items,
			Accuracy:      acc,
			Hour:          -1,
		},
		Rationale: fmt.Sprintf(
			"%s is your strongest ranked subject: %.0f%% accuracy over %d answers (score %.2f)",
			agg.Subject, acc*100, agg.Total, best.score,
		),
		Confidence: confidence(agg.Total, MinSubjectSample),
		priority:   priorityWeights[KindDeepen],
	}
}

// habit: меньше 5 различных активных дней за скользящую неделю.
func (e *Engine) habit(activeDays, totalAnswered int) *Recommendation {
	if activeDays >= HabitMinActiveDays {
		return nil
	}

	return &Recommendation{
		Kind:   KindHabit,
		Title:  "Build a daily habit",
		Action: fmt.Sprintf("Answer at least one question on %d different days this week", HabitMinActiveDays),
		Targets: Targets{
			ActiveDays: HabitMinActiveDays,
			Hour:       -1,
		},
		Rationale: fmt.Sprintf(
			"You were active on %d of the last 7 days; spreading practice across %d+ days builds retention",
			activeDays, HabitMinActiveDays,
		),
		Confidence: confidence(totalAnswered, 0),
		priority:   priorityWeights[KindHabit],
	}
}

// schedule: час суток с наибольшей точностью среди часов с достаточной
// выборкой. При равной точности берётся меньший час.
func (e *Engine) schedule(hours []answer.HourAccuracy) *Recommendation {
	var (
		found bool
		best  answer.HourAccuracy
	)
	for _, h := range hours {
		if h.Total < ScheduleMinHourSample {
			continue
		}
		if !found || h.Accuracy > best.Accuracy || (h.Accuracy == best.Accuracy && h.Hour < best.Hour) {
			found = true
			best = h
		}
	}
	if !found {
		return nil
	}

	return &Recommendation{
		Kind:   KindSchedule,
		Title:  "Practice at your best hour",
		Action: fmt.Sprintf("Schedule practice sessions around %02d:00", best.Hour),
		Targets: Targets{
			Hour: best.Hour,
		},
		Rationale: fmt.Sprintf(
			"Your accuracy peaks at %02d:00 with %.0f%% over %d answers",
			best.Hour, best.Accuracy.Percent(), best.Total,
		),
		Confidence: confidence(best.Total, ScheduleMinHourSample),
		priority:   priorityWeights[KindSchedule],
	}
}

// confidence растёт линейно с выборкой: 0 на минимальном пороге и 1 на
// пороге + ConfidenceSaturation.
func confidence(sample, minSample int) float64 {
	c := float64(sample-minSample) / float64(ConfidenceSaturation)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
