package progress

import (
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS AGGREGATOR
// ══════════════════════════════════════════════════════════════════════════════

// MinWeakSubjectSample - минимальная выборка, после которой предмет может
// попасть в проекцию слабых. Совпадает с порогом движка рекомендаций.
const MinWeakSubjectSample = 8

// WeakSubjectAccuracy - точность, ниже которой предмет считается слабым.
const WeakSubjectAccuracy = 0.60

// SubjectStats - статистика по одному предмету для витрины.
type SubjectStats struct {
	// Subject - предмет.
	Subject shared.Subject

	// TotalAnswered - отвечено вопросов.
	TotalAnswered int

	// Accuracy - точность в [0,1].
	Accuracy shared.Accuracy

	// MeanDifficultyTier - средняя сложность (1.0 .. 3.0).
	MeanDifficultyTier float64

	// MeanResponseTime - среднее время ответа в секундах.
	MeanResponseTime float64
}

// AggregateStats - производная статистика студента. Никогда не хранится как
// источник истины: пересчитывается из событий при каждом запросе.
type AggregateStats struct {
	// Accuracy - общая точность в [0,1] (0 при отсутствии ответов).
	Accuracy shared.Accuracy

	// MeanResponseTime - среднее время ответа в секундах.
	MeanResponseTime float64

	// Corrects - правильных ответов.
	Corrects int

	// Incorrects - неправильных ответов.
	Incorrects int

	// TotalAnswered - всего ответов.
	TotalAnswered int

	// Subjects - разбивка по предметам.
	Subjects []SubjectStats

	// WeakSubjects - проекция слабых предметов (достаточная выборка,
	// точность ниже порога).
	WeakSubjects []shared.Subject
}

// BuildAggregateStats собирает витрину статистики из строк агрегатных
// запросов хранилища. Чистая функция - результат детерминирован для
// одинакового снимка событий.
func BuildAggregateStats(overall answer.CountAccuracy, subjects []answer.SubjectAggregate) AggregateStats {
	stats := AggregateStats{
		Accuracy:         overall.Accuracy,
		MeanResponseTime: overall.MeanResponseTime,
		Corrects:         overall.Correct,
		Incorrects:       overall.Total - overall.Correct,
		TotalAnswered:    overall.Total,
	}

	if len(subjects) == 0 {
		return stats
	}

	stats.Subjects = make([]SubjectStats, 0, len(subjects))
	for _, row := range subjects {
		stats.Subjects = append(stats.Subjects, SubjectStats{
			Subject:            row.Subject,
			TotalAnswered:      row.Total,
			Accuracy:           row.Accuracy,
			MeanDifficultyTier: row.MeanDifficulty,
			MeanResponseTime:   row.MeanResponseTime,
		})

		if row.Total >= MinWeakSubjectSample && row.Accuracy.Float64() < WeakSubjectAccuracy {
			stats.WeakSubjects = append(stats.WeakSubjects, row.Subject)
		}
	}

	return stats
}
