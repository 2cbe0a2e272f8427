package progress

import "github.com/quizhub/progress-hub/internal/domain/shared"

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL / XP ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Level представляет уровень студента с текущим и следующим порогом XP.
type Level struct {
	// Level - номер уровня.
	Level int

	// XPCurrent - набранные очки.
	XPCurrent float64

	// XPNext - порог следующего уровня (или максимальный порог на вершине).
	XPNext float64
}

// LevelThreshold - одна строка таблицы порогов.
type LevelThreshold struct {
	Level int
	XP    float64
}

// levelTable - таблица порогов уровней по возрастанию.
// Уровень 9 в таблице отсутствует намеренно: так исторически размечены
// данные продукта, и перенумеровывать уровни нельзя - существующие студенты
// уже видят эти номера. Не "чинить".
var levelTable = []LevelThreshold{
	{Level: 0, XP: 0},
	{Level: 1, XP: 10},
	{Level: 2, XP: 50},
	{Level: 3, XP: 100},
	{Level: 4, XP: 200},
	{Level: 5, XP: 500},
	{Level: 6, XP: 1000},
	{Level: 7, XP: 2000},
	{Level: 8, XP: 3000},
	{Level: 10, XP: 5000},
}

// LevelTable возвращает копию таблицы порогов.
func LevelTable() []LevelThreshold {
	out := make([]LevelThreshold, len(levelTable))
	copy(out, levelTable)
	return out
}

// Points вычисляет очки опыта из объёма и точности:
// points = total × accuracy × 100 + total × 0.1.
func Points(totalAnswered int, accuracy shared.Accuracy) float64 {
	return float64(totalAnswered)*accuracy.Float64()*100 + float64(totalAnswered)*0.1
}

// CalculateLevel находит уровень по очкам: берётся самая высокая строка
// таблицы, чей порог не превышает points. XPNext - порог следующей строки
// (на вершине таблицы остаётся максимальный порог).
func CalculateLevel(points float64) Level {
	if points < 0 {
		points = 0
	}

	idx := 0
	for i, row := range levelTable {
		if row.XP <= points {
			idx = i
		} else {
			break
		}
	}

	next := levelTable[len(levelTable)-1].XP
	if idx+1 < len(levelTable) {
		next = levelTable[idx+1].XP
	}

	return Level{
		Level:     levelTable[idx].Level,
		XPCurrent: points,
		XPNext:    next,
	}
}

// LevelForStats - удобная обёртка: очки и уровень из агрегатов.
func LevelForStats(totalAnswered int, accuracy shared.Accuracy) Level {
	return CalculateLevel(Points(totalAnswered, accuracy))
}
