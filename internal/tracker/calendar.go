package tracker

import (
	"time"

	"github.com/samber/lo"
)

// DayStatus is the goal verdict for one calendar day.
type DayStatus string

const (
	StatusAchieved DayStatus = "achieved"
	StatusMissed   DayStatus = "missed"
	StatusNoData   DayStatus = "no-data"
)

const dateLayout = "2006-01-02"

// CalendarDays returns the month grid for year/month in loc: whole weeks from
// the Sunday on or before the 1st to the Saturday on or after the last day.
func CalendarDays(year int, month time.Month, loc *time.Location) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// ClassifyFood decides whether one day's totals meet the goals. Calories must
// fall within ±10% of the goal; protein, fat and carbs must reach 90% of theirs.
func ClassifyFood(totals MacroNutrients, goals DailyGoals) bool {
	caloriesOK := totals.Calories*10 >= goals.Calories*9 && totals.Calories*10 <= goals.Calories*11
	return caloriesOK &&
		atLeastNinetyPercent(totals.Protein, goals.Protein) &&
		atLeastNinetyPercent(totals.Fat, goals.Fat) &&
		atLeastNinetyPercent(totals.Carbs, goals.Carbs)
}

func atLeastNinetyPercent(v, goal int) bool {
	return v*10 >= goal*9
}

// ClassifyLearning decides whether one day's homework meets the goals.
func ClassifyLearning(problems, accuracy int, goals LearningGoals) bool {
	return problems > 0 && problems >= goals.DailyProblems && accuracy >= goals.TargetAccuracy
}

// FoodDay is one cell of the food calendar.
type FoodDay struct {
	Date        string         `json:"date"`
	InMonth     bool           `json:"inMonth"`
	Status      DayStatus      `json:"status"`
	EntryCount  int            `json:"entryCount"`
	TotalMacros MacroNutrients `json:"totalMacros"`
}

// LearningDay is one cell of the homework calendar.
type LearningDay struct {
	Date            string    `json:"date"`
	InMonth         bool      `json:"inMonth"`
	Status          DayStatus `json:"status"`
	TotalProblems   int       `json:"totalProblems"`
	CorrectProblems int       `json:"correctProblems"`
	Accuracy        int       `json:"accuracy"`
}

// MonthSummary counts tracked days in a calendar grid.
type MonthSummary struct {
	AchievedDays int `json:"achievedDays"`
	MissedDays   int `json:"missedDays"`
	TrackedDays  int `json:"trackedDays"`
	SuccessRate  int `json:"successRate"`
}

// FoodCalendar is the food month view.
type FoodCalendar struct {
	Year    int          `json:"year"`
	Month   time.Month   `json:"month"`
	Days    []FoodDay    `json:"days"`
	Summary MonthSummary `json:"summary"`
}

// LearningCalendar is the homework month view.
type LearningCalendar struct {
	Year            int           `json:"year"`
	Month           time.Month    `json:"month"`
	Days            []LearningDay `json:"days"`
	Summary         MonthSummary  `json:"summary"`
	TotalProblems   int           `json:"totalProblems"`
	TotalCorrect    int           `json:"totalCorrect"`
	OverallAccuracy int           `json:"overallAccuracy"`
}

// BuildFoodCalendar classifies every day of the month grid independently.
func BuildFoodCalendar(entries []FoodEntry, goals DailyGoals, year int, month time.Month, loc *time.Location) FoodCalendar {
	byDay := lo.GroupBy(entries, func(e FoodEntry) string { return dayKey(e.Timestamp, loc) })

	cal := FoodCalendar{Year: year, Month: month}
	for _, d := range CalendarDays(year, month, loc) {
		dayEntries := byDay[d.Format(dateLayout)]
		totals := TotalMacros(dayEntries)

		status := StatusNoData
		if len(dayEntries) > 0 {
			status = StatusMissed
			if ClassifyFood(totals, goals) {
				status = StatusAchieved
			}
		}

		cal.Days = append(cal.Days, FoodDay{
			Date:        d.Format(dateLayout),
			InMonth:     d.Month() == month,
			Status:      status,
			EntryCount:  len(dayEntries),
			TotalMacros: totals,
		})
	}
	cal.Summary = summarize(lo.Map(cal.Days, func(d FoodDay, _ int) DayStatus { return d.Status }))
	return cal
}

// BuildLearningCalendar classifies every day of the month grid independently.
func BuildLearningCalendar(assessments []AssessmentResult, goals LearningGoals, year int, month time.Month, loc *time.Location) LearningCalendar {
	byDay := lo.GroupBy(assessments, func(a AssessmentResult) string { return dayKey(a.Timestamp, loc) })

	cal := LearningCalendar{Year: year, Month: month}
	for _, d := range CalendarDays(year, month, loc) {
		day := byDay[d.Format(dateLayout)]
		total := len(day)
		correct := lo.CountBy(day, func(a AssessmentResult) bool { return a.IsCorrect })
		accuracy := percent(correct, total)

		status := StatusNoData
		if total > 0 {
			status = StatusMissed
			if ClassifyLearning(total, accuracy, goals) {
				status = StatusAchieved
			}
		}

		cal.Days = append(cal.Days, LearningDay{
			Date:            d.Format(dateLayout),
			InMonth:         d.Month() == month,
			Status:          status,
			TotalProblems:   total,
			CorrectProblems: correct,
			Accuracy:        accuracy,
		})
		cal.TotalProblems += total
		cal.TotalCorrect += correct
	}
	cal.OverallAccuracy = percent(cal.TotalCorrect, cal.TotalProblems)
	cal.Summary = summarize(lo.Map(cal.Days, func(d LearningDay, _ int) DayStatus { return d.Status }))
	return cal
}

func summarize(statuses []DayStatus) MonthSummary {
	s := MonthSummary{
		AchievedDays: lo.Count(statuses, StatusAchieved),
		MissedDays:   lo.Count(statuses, StatusMissed),
	}
	s.TrackedDays = s.AchievedDays + s.MissedDays
	s.SuccessRate = percent(s.AchievedDays, s.TrackedDays)
	return s
}
