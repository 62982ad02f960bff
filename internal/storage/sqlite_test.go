package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kalambet/lenslog/internal/tracker"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	if err := s1.SaveFoodEntry(tracker.FoodEntry{ID: "keep", Description: "Toast", Timestamp: time.Now()}); err != nil {
		t.Fatalf("SaveFoodEntry: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
	if _, err := s2.GetFoodEntry("keep"); err != nil {
		t.Errorf("entry lost across reopen: %v", err)
	}
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	for _, idx := range []string{"idx_food_entries_captured", "idx_assessments_captured"} {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying index %s: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %s not found", idx)
		}
	}
}

func TestFoodEntryRoundTrip(t *testing.T) {
	s := openTestStore(t)

	at := time.Date(2025, 3, 14, 12, 30, 45, 123456789, time.FixedZone("PDT", -7*3600))
	in := tracker.FoodEntry{
		ID:          "e1",
		Description: "Grilled salmon with rice",
		Macros:      tracker.MacroNutrients{Calories: 650, Protein: 42, Fat: 20, Carbs: 70},
		ImageURL:    "blob:local/1",
		Timestamp:   at,
	}
	if err := s.SaveFoodEntry(in); err != nil {
		t.Fatalf("SaveFoodEntry: %v", err)
	}

	got, err := s.GetFoodEntry("e1")
	if err != nil {
		t.Fatalf("GetFoodEntry: %v", err)
	}
	if !got.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, at)
	}
	got.Timestamp = in.Timestamp
	if got != in {
		t.Errorf("got %+v, want %+v", got, in)
	}
}

func TestSaveFoodEntry_DuplicateID(t *testing.T) {
	s := openTestStore(t)

	e := tracker.FoodEntry{ID: "dup", Description: "Apple", Timestamp: time.Now()}
	if err := s.SaveFoodEntry(e); err != nil {
		t.Fatalf("first save: %v", err)
	}
	err := s.SaveFoodEntry(e)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("second save err = %v, want ErrDuplicateID", err)
	}

	n, err := s.CountFoodEntries()
	if err != nil {
		t.Fatalf("CountFoodEntries: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestGetFoodEntry_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetFoodEntry("missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetAssessment("missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListFoodEntries_RangeAndOrder(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	// Sub-second offsets check that ordering is chronological, not lexical on a trimmed format.
	offsets := []time.Duration{0, -500 * time.Millisecond, -time.Hour, -24 * time.Hour, -25 * time.Hour}
	for i, off := range offsets {
		e := tracker.FoodEntry{ID: fmt.Sprintf("e%d", i), Description: "meal", Timestamp: now.Add(off)}
		if err := s.SaveFoodEntry(e); err != nil {
			t.Fatalf("SaveFoodEntry: %v", err)
		}
	}

	all, err := s.ListFoodEntries(ListQuery{})
	if err != nil {
		t.Fatalf("ListFoodEntries: %v", err)
	}
	if len(all) != len(offsets) {
		t.Fatalf("len = %d, want %d", len(all), len(offsets))
	}
	for i, want := range []string{"e0", "e1", "e2", "e3", "e4"} {
		if all[i].ID != want {
			t.Errorf("all[%d] = %s, want %s", i, all[i].ID, want)
		}
	}

	recent, err := s.ListFoodEntries(ListQuery{Since: now.Add(-tracker.Window), Until: now})
	if err != nil {
		t.Fatalf("ListFoodEntries: %v", err)
	}
	if len(recent) != 4 {
		t.Errorf("24h window len = %d, want 4 (boundary inclusive)", len(recent))
	}

	page, err := s.ListFoodEntries(ListQuery{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListFoodEntries: %v", err)
	}
	if len(page) != 2 || page[0].ID != "e1" || page[1].ID != "e2" {
		t.Errorf("page = %+v", page)
	}
}

func TestListFoodEntries_EmptyIsNotNil(t *testing.T) {
	s := openTestStore(t)
	got, err := s.ListFoodEntries(ListQuery{})
	if err != nil {
		t.Fatalf("ListFoodEntries: %v", err)
	}
	if got == nil {
		t.Error("expected empty non-nil slice")
	}
}

func TestAssessmentRoundTrip(t *testing.T) {
	s := openTestStore(t)

	answer := "4"
	in := tracker.AssessmentResult{
		ID:               "a1",
		Description:      "Addition worksheet",
		Subject:          "Math",
		IsCorrect:        false,
		Completeness:     90,
		LogicCoherence:   75,
		KnowledgeAreas:   tracker.KnowledgeAreas{Arithmetic: 80, Geometry: 10, Fractions: 20, WordProblems: 30, Measurement: 40},
		WeakPoints:       []string{"carrying"},
		Strengths:        []string{"neat work"},
		ErrorAnalysis:    "one slip",
		SolutionApproach: "check sums",
		ImageURL:         "blob:local/2",
		Timestamp:        time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Questions: []tracker.QuestionAnalysis{
			{QuestionNumber: 1, QuestionText: "2+2", StudentAnswer: "5", CorrectAnswer: &answer, KnowledgeArea: "Arithmetic", Difficulty: tracker.DifficultyEasy},
		},
		TotalQuestions:     1,
		CorrectQuestions:   0,
		WeakKnowledgeAreas: []string{"Arithmetic"},
	}
	if err := s.SaveAssessment(in); err != nil {
		t.Fatalf("SaveAssessment: %v", err)
	}

	got, err := s.GetAssessment("a1")
	if err != nil {
		t.Fatalf("GetAssessment: %v", err)
	}
	if !got.Timestamp.Equal(in.Timestamp) {
		t.Errorf("Timestamp = %v", got.Timestamp)
	}
	if got.KnowledgeAreas != in.KnowledgeAreas {
		t.Errorf("KnowledgeAreas = %+v", got.KnowledgeAreas)
	}
	if len(got.Questions) != 1 || got.Questions[0].CorrectAnswer == nil || *got.Questions[0].CorrectAnswer != "4" {
		t.Errorf("Questions = %+v", got.Questions)
	}
	if got.Questions[0].Explanation != nil {
		t.Errorf("Explanation should stay nil")
	}
	if len(got.WeakPoints) != 1 || got.WeakPoints[0] != "carrying" {
		t.Errorf("WeakPoints = %v", got.WeakPoints)
	}

	if err := s.SaveAssessment(in); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate save err = %v", err)
	}

	n, err := s.CountAssessments()
	if err != nil || n != 1 {
		t.Errorf("CountAssessments = %d, %v", n, err)
	}
}

func TestSaveAssessment_NilListsStoredEmpty(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveAssessment(tracker.AssessmentResult{ID: "a", Description: "d", Subject: "s", Timestamp: time.Now()}); err != nil {
		t.Fatalf("SaveAssessment: %v", err)
	}
	list, err := s.ListAssessments(ListQuery{})
	if err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d", len(list))
	}
	a := list[0]
	if a.WeakPoints == nil || a.Strengths == nil || a.WeakKnowledgeAreas == nil {
		t.Errorf("lists should decode as empty, got %+v", a)
	}
}

func TestGoals_DefaultsAndReplace(t *testing.T) {
	s := openTestStore(t)

	daily, err := s.GetDailyGoals()
	if err != nil {
		t.Fatalf("GetDailyGoals: %v", err)
	}
	if daily != tracker.DefaultDailyGoals {
		t.Errorf("default daily goals = %+v", daily)
	}

	want := tracker.DailyGoals{Calories: 1800, Protein: 140, Fat: 60, Carbs: 180}
	if err := s.ReplaceDailyGoals(want); err != nil {
		t.Fatalf("ReplaceDailyGoals: %v", err)
	}
	if err := s.ReplaceDailyGoals(want); err != nil {
		t.Fatalf("ReplaceDailyGoals twice: %v", err)
	}
	daily, err = s.GetDailyGoals()
	if err != nil {
		t.Fatalf("GetDailyGoals: %v", err)
	}
	if daily != want {
		t.Errorf("daily goals = %+v, want %+v", daily, want)
	}

	learning, err := s.GetLearningGoals()
	if err != nil {
		t.Fatalf("GetLearningGoals: %v", err)
	}
	if learning.DailyProblems != 8 || learning.TargetAccuracy != 80 || len(learning.FocusAreas) != 2 {
		t.Errorf("default learning goals = %+v", learning)
	}

	learning.DailyProblems = 12
	learning.FocusAreas = nil
	if err := s.ReplaceLearningGoals(learning); err != nil {
		t.Fatalf("ReplaceLearningGoals: %v", err)
	}
	got, err := s.GetLearningGoals()
	if err != nil {
		t.Fatalf("GetLearningGoals: %v", err)
	}
	if got.DailyProblems != 12 || got.FocusAreas == nil || len(got.FocusAreas) != 0 {
		t.Errorf("learning goals = %+v", got)
	}
	if got.WeeklyGoals != learning.WeeklyGoals {
		t.Errorf("weekly goals = %+v", got.WeeklyGoals)
	}
}
