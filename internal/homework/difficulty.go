package homework

import (
	"math"

	"tutionbuddy/internal/config"
	"tutionbuddy/internal/models"
)

// DifficultyFor leitet die Schwierigkeit aus (correct, total) ab.
// Schwellen werden absteigend geprüft und sind an der Untergrenze inklusive.
func DifficultyFor(stats models.PerformanceStats, t config.Tuning) models.Difficulty {
	if stats.Total == 0 {
		return models.DifficultyBasic
	}
	rate := stats.Correct / float64(stats.Total)
	switch {
	case rate >= t.AdvancedThreshold:
		return models.DifficultyAdvanced
	case rate >= t.IntermediateThreshold:
		return models.DifficultyIntermediate
	default:
		return models.DifficultyBasic
	}
}

// StatsFromLevels: jeder Versuch zählt in Total, auch ohne Urteil
func StatsFromLevels(levels map[models.EvaluationLevel]int, t config.Tuning) models.PerformanceStats {
	var stats models.PerformanceStats
	for level, n := range levels {
		stats.Total += n
		stats.Correct += float64(n) * Credit(level, t)
	}
	return stats
}

// SuccessRate in Prozent, auf eine Nachkommastelle gerundet
func SuccessRate(stats models.PerformanceStats) float64 {
	if stats.Total == 0 {
		return 0
	}
	return round1(100 * stats.Correct / float64(stats.Total))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
