package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/kalambet/lenslog/internal/analysis"
	"github.com/kalambet/lenslog/internal/storage"
	"github.com/kalambet/lenslog/internal/tracker"
)

// ErrBusy is returned when another analysis is still running.
var ErrBusy = errors.New("analysis already in progress")

// Analyzer abstracts the vision analysis for the API layer.
type Analyzer interface {
	AnalyzeFood(ctx context.Context, encoded string) (analysis.FoodAnalysis, error)
	AnalyzeHomework(ctx context.Context, encoded string) (analysis.HomeworkAnalysis, error)
}

// Service ties analysis to storage. HTTP handlers and MCP tools share one
// Service so the single-analysis gate covers both.
type Service struct {
	store    *storage.Store
	analyzer Analyzer
	gate     *semaphore.Weighted
	now      func() time.Time
}

// NewService creates a Service. A nil now defaults to time.Now.
func NewService(store *storage.Store, analyzer Analyzer, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    store,
		analyzer: analyzer,
		gate:     semaphore.NewWeighted(1),
		now:      now,
	}
}

// Store returns the underlying store.
func (s *Service) Store() *storage.Store {
	return s.store
}

func (s *Service) acquire() error {
	if !s.gate.TryAcquire(1) {
		return ErrBusy
	}
	return nil
}

// AnalyzeFood runs a food analysis without recording anything.
func (s *Service) AnalyzeFood(ctx context.Context, image string) (analysis.FoodAnalysis, error) {
	if err := s.acquire(); err != nil {
		return analysis.FoodAnalysis{}, err
	}
	defer s.gate.Release(1)
	return s.analyzer.AnalyzeFood(ctx, image)
}

// AnalyzeHomework runs a homework analysis without recording anything.
func (s *Service) AnalyzeHomework(ctx context.Context, image string) (analysis.HomeworkAnalysis, error) {
	if err := s.acquire(); err != nil {
		return analysis.HomeworkAnalysis{}, err
	}
	defer s.gate.Release(1)
	return s.analyzer.AnalyzeHomework(ctx, image)
}

// RecordFood analyses image and stores the resulting entry. Nothing is stored
// when the analysis fails. An empty id is replaced by a new UUID.
func (s *Service) RecordFood(ctx context.Context, image, id, imageURL string) (tracker.FoodEntry, error) {
	result, err := s.AnalyzeFood(ctx, image)
	if err != nil {
		return tracker.FoodEntry{}, err
	}
	if id == "" {
		id = uuid.New().String()
	}
	entry := result.Entry(id, imageURL, s.now().UTC())
	if err := s.store.SaveFoodEntry(entry); err != nil {
		return tracker.FoodEntry{}, fmt.Errorf("saving food entry: %w", err)
	}
	slog.Info("food entry recorded", "id", entry.ID, "calories", entry.Macros.Calories)
	return entry, nil
}

// RecordAssessment analyses image and stores the resulting assessment.
func (s *Service) RecordAssessment(ctx context.Context, image, id, imageURL string) (tracker.AssessmentResult, error) {
	result, err := s.AnalyzeHomework(ctx, image)
	if err != nil {
		return tracker.AssessmentResult{}, err
	}
	if id == "" {
		id = uuid.New().String()
	}
	a := result.Assessment(id, imageURL, s.now().UTC())
	if err := s.store.SaveAssessment(a); err != nil {
		return tracker.AssessmentResult{}, fmt.Errorf("saving assessment: %w", err)
	}
	slog.Info("assessment recorded", "id", a.ID, "subject", a.Subject, "correct", a.IsCorrect)
	return a, nil
}

// FoodSummary is the "today" view of the food tracker.
type FoodSummary struct {
	Totals     tracker.MacroNutrients `json:"totals"`
	Goals      tracker.DailyGoals     `json:"goals"`
	Remaining  tracker.MacroNutrients `json:"remaining"`
	EntryCount int                    `json:"entryCount"`
	Entries    []tracker.FoodEntry    `json:"entries"`
}

// FoodSummary totals the entries of the last 24 hours against the daily goals.
func (s *Service) FoodSummary() (FoodSummary, error) {
	now := s.now()
	entries, err := s.store.ListFoodEntries(storage.ListQuery{Since: now.Add(-tracker.Window), Until: now})
	if err != nil {
		return FoodSummary{}, fmt.Errorf("listing food entries: %w", err)
	}
	goals, err := s.store.GetDailyGoals()
	if err != nil {
		return FoodSummary{}, fmt.Errorf("loading daily goals: %w", err)
	}

	recent := tracker.RecentFood(entries, now)
	totals := tracker.TotalMacros(recent)
	return FoodSummary{
		Totals:     totals,
		Goals:      goals,
		Remaining:  tracker.Remaining(totals, goals),
		EntryCount: len(recent),
		Entries:    recent,
	}, nil
}

// ProgressReport is the "today" view of the homework tracker.
type ProgressReport struct {
	Progress    tracker.StudentProgress    `json:"progress"`
	Goals       tracker.LearningGoals      `json:"goals"`
	Assessments []tracker.AssessmentResult `json:"assessments"`
}

// Progress aggregates the assessments of the last 24 hours.
func (s *Service) Progress() (ProgressReport, error) {
	now := s.now()
	list, err := s.store.ListAssessments(storage.ListQuery{Since: now.Add(-tracker.Window), Until: now})
	if err != nil {
		return ProgressReport{}, fmt.Errorf("listing assessments: %w", err)
	}
	goals, err := s.store.GetLearningGoals()
	if err != nil {
		return ProgressReport{}, fmt.Errorf("loading learning goals: %w", err)
	}
	return ProgressReport{
		Progress:    tracker.CalculateStudentProgress(list, now),
		Goals:       goals,
		Assessments: tracker.RecentAssessments(list, now),
	}, nil
}

// gridRange returns the query covering every day of the month grid.
func gridRange(year int, month time.Month, loc *time.Location) storage.ListQuery {
	days := tracker.CalendarDays(year, month, loc)
	return storage.ListQuery{
		Since: days[0],
		Until: days[len(days)-1].AddDate(0, 0, 1).Add(-time.Nanosecond),
	}
}

// FoodCalendar builds the food month view for year/month in loc.
func (s *Service) FoodCalendar(year int, month time.Month, loc *time.Location) (tracker.FoodCalendar, error) {
	entries, err := s.store.ListFoodEntries(gridRange(year, month, loc))
	if err != nil {
		return tracker.FoodCalendar{}, fmt.Errorf("listing food entries: %w", err)
	}
	goals, err := s.store.GetDailyGoals()
	if err != nil {
		return tracker.FoodCalendar{}, fmt.Errorf("loading daily goals: %w", err)
	}
	return tracker.BuildFoodCalendar(entries, goals, year, month, loc), nil
}

// LearningCalendar builds the homework month view for year/month in loc.
func (s *Service) LearningCalendar(year int, month time.Month, loc *time.Location) (tracker.LearningCalendar, error) {
	list, err := s.store.ListAssessments(gridRange(year, month, loc))
	if err != nil {
		return tracker.LearningCalendar{}, fmt.Errorf("listing assessments: %w", err)
	}
	goals, err := s.store.GetLearningGoals()
	if err != nil {
		return tracker.LearningCalendar{}, fmt.Errorf("loading learning goals: %w", err)
	}
	return tracker.BuildLearningCalendar(list, goals, year, month, loc), nil
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}
