package tracker

import (
	"math"
	"time"

	"github.com/samber/lo"
)

// Window is the look-back used for the "today" views.
const Window = 24 * time.Hour

// Within24Hours reports whether t lies in [now-24h, now].
func Within24Hours(t, now time.Time) bool {
	return !t.Before(now.Add(-Window)) && !t.After(now)
}

// TotalMacros sums the macros of entries. An empty slice yields zero totals.
func TotalMacros(entries []FoodEntry) MacroNutrients {
	return MacroNutrients{
		Calories: lo.SumBy(entries, func(e FoodEntry) int { return e.Macros.Calories }),
		Protein:  lo.SumBy(entries, func(e FoodEntry) int { return e.Macros.Protein }),
		Fat:      lo.SumBy(entries, func(e FoodEntry) int { return e.Macros.Fat }),
		Carbs:    lo.SumBy(entries, func(e FoodEntry) int { return e.Macros.Carbs }),
	}
}

// RecentFood returns the entries captured in the 24 hours before now.
func RecentFood(entries []FoodEntry, now time.Time) []FoodEntry {
	return lo.Filter(entries, func(e FoodEntry, _ int) bool {
		return Within24Hours(e.Timestamp, now)
	})
}

// RecentAssessments returns the assessments captured in the 24 hours before now.
func RecentAssessments(assessments []AssessmentResult, now time.Time) []AssessmentResult {
	return lo.Filter(assessments, func(a AssessmentResult, _ int) bool {
		return Within24Hours(a.Timestamp, now)
	})
}

// Remaining is how far totals are from goals, floored at zero per field.
func Remaining(totals MacroNutrients, goals DailyGoals) MacroNutrients {
	return MacroNutrients{
		Calories: max(goals.Calories-totals.Calories, 0),
		Protein:  max(goals.Protein-totals.Protein, 0),
		Fat:      max(goals.Fat-totals.Fat, 0),
		Carbs:    max(goals.Carbs-totals.Carbs, 0),
	}
}

// CalculateStudentProgress aggregates the assessments of the last 24 hours.
func CalculateStudentProgress(assessments []AssessmentResult, now time.Time) StudentProgress {
	recent := RecentAssessments(assessments, now)

	total := len(recent)
	correct := lo.CountBy(recent, func(a AssessmentResult) bool { return a.IsCorrect })

	var areas KnowledgeAreas
	if total > 0 {
		for _, key := range KnowledgeAreaKeys {
			sum := lo.SumBy(recent, func(a AssessmentResult) int {
				v, _ := a.KnowledgeAreas.Get(key)
				return v
			})
			areas = areas.With(key, roundHalfUp(float64(sum)/float64(total)))
		}
	}

	accuracy := percent(correct, total)
	return StudentProgress{
		TotalProblems:    total,
		CorrectProblems:  correct,
		Accuracy:         accuracy,
		KnowledgeAreas:   areas,
		ImprovementTrend: trendFor(accuracy),
	}
}

func trendFor(accuracy int) Trend {
	switch {
	case accuracy >= 80:
		return TrendImproving
	case accuracy >= 60:
		return TrendStable
	default:
		return TrendDeclining
	}
}

// percent returns round(part/whole*100), or 0 when whole is zero.
func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return roundHalfUp(float64(part) / float64(whole) * 100)
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
