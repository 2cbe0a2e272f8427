package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

func subjectAgg(subject string, total int, acc, difficulty, meanRT float64) answer.SubjectAggregate {
	return answer.SubjectAggregate{
		Subject:          shared.Subject(subject),
		Total:            total,
		Accuracy:         shared.Accuracy(acc),
		MeanDifficulty:   difficulty,
		MeanResponseTime: meanRT,
	}
}

func kinds(recs []Recommendation) []Kind {
	out := make([]Kind, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Kind)
	}
	return out
}

func findKind(t *testing.T, recs []Recommendation, kind Kind) Recommendation {
	t.Helper()
	for _, r := range recs {
		if r.Kind == kind {
			return r
		}
	}
	t.Fatalf("recommendation %s not found in %v", kind, kinds(recs))
	return Recommendation{}
}

func TestBuild_EmptyInputsOnlyHabit(t *testing.T) {
	recs := NewEngine().Build(Inputs{})

	// Без предметов и часов остаётся только привычка.
	require.Len(t, recs, 1)
	assert.Equal(t, KindHabit, recs[0].Kind)
	assert.Zero(t, recs[0].Confidence)
}

func TestBuild_WeakestSubjectReinforced(t *testing.T) {
	in := Inputs{
		Subjects: []answer.SubjectAggregate{
			subjectAgg("algebra", 30, 0.85, 2.0, 40),
			subjectAgg("geography", 25, 0.45, 1.5, 50),
			subjectAgg("history", 20, 0.70, 2.5, 45),
		},
		ActiveDaysLast7: 7,
		TotalAnswered:   75,
	}

	recs := NewEngine().Build(in)
	r := findKind(t, recs, KindReinforce)

	assert.Equal(t, shared.Subject("geography"), r.Targets.Subject)
	assert.Contains(t, r.Rationale, "geography")
	// round(0.45+0.10, в границах [0.65, 0.85]) = 0.65
	assert.InDelta(t, 0.65, r.Targets.Accuracy, 1e-9)
	// ceil(25*0.6)=15
	assert.Equal(t, 15, r.Targets.PracticeItems)
}

func TestBuild_SmallSampleSubjectNotRanked(t *testing.T) {
	in := Inputs{
		Subjects: []answer.SubjectAggregate{
			subjectAgg("algebra", 30, 0.90, 2.0, 40),
			// выборка 7 < 8: предмет не участвует, как бы плох он ни был
			subjectAgg("chemistry", 7, 0.10, 1.0, 40),
		},
		ActiveDaysLast7: 7,
		TotalAnswered:   37,
	}

	recs := NewEngine().Build(in)
	r := findKind(t, recs, KindReinforce)

	assert.Equal(t, shared.Subject("algebra"), r.Targets.Subject)
}

func TestBuild_DeepenNeedsSecondSubject(t *testing.T) {
	in := Inputs{
		Subjects: []answer.SubjectAggregate{
			subjectAgg("algebra", 30, 0.85, 2.0, 40),
		},
		ActiveDaysLast7: 7,
		TotalAnswered:   30,
	}

	recs := NewEngine().Build(in)

	assert.NotContains(t, kinds(recs), KindDeepen)
}

func TestBuild_DeepenPicksStrongest(t *testing.T) {
	in := Inputs{
		Subjects: []answer.SubjectAggregate{
			subjectAgg("algebra", 30, 0.92, 2.0, 40),
			subjectAgg("geography", 25, 0.50, 1.5, 50),
		},
		ActiveDaysLast7: 7,
		TotalAnswered:   55,
	}

	recs := NewEngine().Build(in)
	r := findKind(t, recs, KindDeepen)

	assert.Equal(t, shared.Subject("algebra"), r.Targets.Subject)
}

func TestBuild_AccelerateRequiresBaselineGap(t *testing.T) {
	subjects := []answer.SubjectAggregate{
		subjectAgg("algebra", 30, 0.80, 2.0, 60),
		subjectAgg("history", 25, 0.70, 2.0, 42),
	}
	baseline := []answer.BaselineAggregate{
		{Subject: "algebra", MeanResponseTime: 45},
		{Subject: "history", MeanResponseTime: 40},
	}

	recs := NewEngine().Build(Inputs{
		Subjects:        subjects,
		Baseline:        baseline,
		ActiveDaysLast7: 7,
		TotalAnswered:   55,
	})

	// algebra: 60-45=15 > 8; history: 42-40=2 - ниже порога.
	r := findKind(t, recs, KindAccelerate)
	assert.Equal(t, shared.Subject("algebra"), r.Targets.Subject)
	// target = max(60-8, 45) = 52
	assert.Equal(t, 52.0, r.Targets.ResponseTimeSeconds)
}

func TestBuild_AccelerateAbsentWithoutBaseline(t *testing.T) {
	recs := NewEngine().Build(Inputs{
		Subjects: []answer.SubjectAggregate{
			subjectAgg("algebra", 30, 0.80, 2.0, 120),
		},
		ActiveDaysLast7: 7,
		TotalAnswered:   30,
	})

	assert.NotContains(t, kinds(recs), KindAccelerate)
}

func TestBuild_HabitOnlyBelowFiveActiveDays(t *testing.T) {
	recs := NewEngine().Build(Inputs{ActiveDaysLast7: 5, TotalAnswered: 10})
	assert.NotContains(t, kinds(recs), KindHabit)

	recs = NewEngine().Build(Inputs{ActiveDaysLast7: 4, TotalAnswered: 10})
	assert.Contains(t, kinds(recs), KindHabit)
}

func TestBuild_ScheduleNeedsHourSample(t *testing.T) {
	hours := []answer.HourAccuracy{
		{Hour: 9, Total: 19, Accuracy: shared.Accuracy(0.95)},
		{Hour: 20, Total: 25, Accuracy: shared.Accuracy(0.80)},
	}

	recs := NewEngine().Build(Inputs{Hours: hours, ActiveDaysLast7: 7, TotalAnswered: 44})
	r := findKind(t, recs, KindSchedule)

	// Час 9 не добирает выборку 20, остаётся час 20.
	assert.Equal(t, 20, r.Targets.Hour)
}

func TestBuild_ScheduleTieBreaksToEarlierHour(t *testing.T) {
	hours := []answer.HourAccuracy{
		{Hour: 21, Total: 25, Accuracy: shared.Accuracy(0.80)},
		{Hour: 9, Total: 30, Accuracy: shared.Accuracy(0.80)},
	}

	recs := NewEngine().Build(Inputs{Hours: hours, ActiveDaysLast7: 7, TotalAnswered: 55})
	r := findKind(t, recs, KindSchedule)

	assert.Equal(t, 9, r.Targets.Hour)
}

func TestBuild_PriorityOrderAndTruncation(t *testing.T) {
	in := Inputs{
		Subjects: []answer.SubjectAggregate{
			subjectAgg("algebra", 30, 0.90, 2.0, 70),
			subjectAgg("geography", 25, 0.45, 1.5, 50),
		},
		Baseline: []answer.BaselineAggregate{
			{Subject: "algebra", MeanResponseTime: 45},
		},
		ActiveDaysLast7: 2,
		Hours: []answer.HourAccuracy{
			{Hour: 20, Total: 25, Accuracy: shared.Accuracy(0.85)},
		},
		TotalAnswered: 55,
	}

	recs := NewEngine().Build(in)

	// Все пять кандидатов есть, но список усечён до четырёх; schedule с
	// минимальным весом отпадает.
	require.Len(t, recs, MaxRecommendations)
	assert.Equal(t, []Kind{KindReinforce, KindAccelerate, KindDeepen, KindHabit}, kinds(recs))
}

func TestBuild_Deterministic(t *testing.T) {
	in := Inputs{
		Subjects: []answer.SubjectAggregate{
			subjectAgg("algebra", 30, 0.90, 2.0, 70),
			subjectAgg("geography", 25, 0.45, 1.5, 50),
			subjectAgg("history", 25, 0.45, 1.5, 50),
		},
		ActiveDaysLast7: 3,
		TotalAnswered:   80,
	}

	first := NewEngine().Build(in)
	second := NewEngine().Build(in)

	assert.Equal(t, first, second)
}

func TestBuild_EqualScoreTieBreaksBySubjectName(t *testing.T) {
	in := Inputs{
		Subjects: []answer.SubjectAggregate{
			subjectAgg("history", 25, 0.45, 1.5, 50),
			subjectAgg("geography", 25, 0.45, 1.5, 50),
		},
		ActiveDaysLast7: 7,
		TotalAnswered:   50,
	}

	recs := NewEngine().Build(in)
	r := findKind(t, recs, KindReinforce)

	assert.Equal(t, shared.Subject("geography"), r.Targets.Subject)
}

func TestConfidence(t *testing.T) {
	assert.Zero(t, confidence(8, MinSubjectSample))
	assert.InDelta(t, 0.5, confidence(33, MinSubjectSample), 1e-9)
	assert.Equal(t, 1.0, confidence(58, MinSubjectSample))
	assert.Equal(t, 1.0, confidence(500, MinSubjectSample))
	assert.Zero(t, confidence(3, MinSubjectSample))
}
