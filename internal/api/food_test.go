package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kalambet/lenslog/internal/tracker"
)

func TestRecordFood_StoresEntry(t *testing.T) {
	h, svc := setupGateway(t, &fakeCompleter{content: foodReply})

	rr := httptest.NewRecorder()
	body := `{"image":"` + testImage + `","imageUrl":"file:///tmp/toast.png"}`
	h.ServeHTTP(rr, authReq(http.MethodPost, "/food/entries", body, testToken))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var entry tracker.FoodEntry
	if err := json.NewDecoder(rr.Body).Decode(&entry); err != nil {
		t.Fatal(err)
	}
	if entry.ID == "" {
		t.Error("expected a generated id")
	}
	if !entry.Timestamp.Equal(testNow) {
		t.Errorf("Timestamp = %v, want %v", entry.Timestamp, testNow)
	}
	if entry.ImageURL != "file:///tmp/toast.png" {
		t.Errorf("ImageURL = %q", entry.ImageURL)
	}

	got, err := svc.Store().GetFoodEntry(entry.ID)
	if err != nil {
		t.Fatalf("GetFoodEntry: %v", err)
	}
	if got.Description != "Toast with jam" || got.Macros.Calories != 211 {
		t.Errorf("stored %+v", got)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/food/entries/"+entry.ID, "", testToken))
	if rr.Code != http.StatusOK {
		t.Errorf("GET entry status = %d", rr.Code)
	}
}

func TestRecordFood_FailureStoresNothing(t *testing.T) {
	h, svc := setupGateway(t, &fakeCompleter{content: "```json\n{\"description\": \"Toast\"\n```"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/food/entries", imageBody(testImage), testToken))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	n, err := svc.Store().CountFoodEntries()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("CountFoodEntries = %d, want 0", n)
	}
}

func TestRecordFood_DuplicateID(t *testing.T) {
	h, _ := setupGateway(t, &fakeCompleter{content: foodReply})

	body := `{"image":"` + testImage + `","id":"meal-1"}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/food/entries", body, testToken))
	if rr.Code != http.StatusCreated {
		t.Fatalf("first status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPost, "/food/entries", body, testToken))
	if rr.Code != http.StatusConflict {
		t.Errorf("second status = %d, want 409", rr.Code)
	}
}

func TestGetFood_NotFound(t *testing.T) {
	h, _ := setupGateway(t, &fakeCompleter{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/food/entries/nope", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func seedFood(t *testing.T, svc *Service, id string, at time.Time, m tracker.MacroNutrients) {
	t.Helper()
	err := svc.Store().SaveFoodEntry(tracker.FoodEntry{ID: id, Description: id, Macros: m, Timestamp: at})
	if err != nil {
		t.Fatalf("SaveFoodEntry(%s): %v", id, err)
	}
}

func TestListFood_Window(t *testing.T) {
	h, svc := setupGateway(t, &fakeCompleter{})
	seedFood(t, svc, "recent", testNow.Add(-2*time.Hour), tracker.MacroNutrients{Calories: 100})
	seedFood(t, svc, "old", testNow.Add(-48*time.Hour), tracker.MacroNutrients{Calories: 100})

	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"?window=24h", 1},
		{"?window=all", 2},
		{"?window=all&limit=1", 1},
		{"?window=all&offset=1", 1},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodGet, "/food/entries"+tt.query, "", testToken))
		if rr.Code != http.StatusOK {
			t.Fatalf("%q: status = %d", tt.query, rr.Code)
		}
		var entries []tracker.FoodEntry
		if err := json.NewDecoder(rr.Body).Decode(&entries); err != nil {
			t.Fatal(err)
		}
		if len(entries) != tt.want {
			t.Errorf("%q: got %d entries, want %d", tt.query, len(entries), tt.want)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/food/entries?window=week", "", testToken))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid window status = %d, want 400", rr.Code)
	}
}

func TestFoodSummary(t *testing.T) {
	h, svc := setupGateway(t, &fakeCompleter{})
	seedFood(t, svc, "breakfast", testNow.Add(-5*time.Hour), tracker.MacroNutrients{Calories: 500, Protein: 30, Fat: 20, Carbs: 50})
	seedFood(t, svc, "lunch", testNow.Add(-1*time.Hour), tracker.MacroNutrients{Calories: 700, Protein: 40, Fat: 25, Carbs: 80})
	seedFood(t, svc, "yesterday", testNow.Add(-25*time.Hour), tracker.MacroNutrients{Calories: 900})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/food/summary", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var s FoodSummary
	if err := json.NewDecoder(rr.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	want := tracker.MacroNutrients{Calories: 1200, Protein: 70, Fat: 45, Carbs: 130}
	if s.Totals != want {
		t.Errorf("Totals = %+v, want %+v", s.Totals, want)
	}
	if s.EntryCount != 2 {
		t.Errorf("EntryCount = %d, want 2", s.EntryCount)
	}
	if s.Goals != tracker.DefaultDailyGoals {
		t.Errorf("Goals = %+v", s.Goals)
	}
	if s.Remaining.Calories != 800 || s.Remaining.Protein != 80 {
		t.Errorf("Remaining = %+v", s.Remaining)
	}
}

func TestDailyGoals_PutAndGet(t *testing.T) {
	h, _ := setupGateway(t, &fakeCompleter{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPut, "/food/goals", `{"calories":1800,"protein":140,"fat":60,"carbs":180}`, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/food/goals", "", testToken))
	var goals tracker.DailyGoals
	if err := json.NewDecoder(rr.Body).Decode(&goals); err != nil {
		t.Fatal(err)
	}
	if goals != (tracker.DailyGoals{Calories: 1800, Protein: 140, Fat: 60, Carbs: 180}) {
		t.Errorf("goals = %+v", goals)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodPut, "/food/goals", `{"calories":-1}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("negative goals status = %d, want 400", rr.Code)
	}
}

func TestGoalPresets(t *testing.T) {
	h, _ := setupGateway(t, &fakeCompleter{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/food/goals/presets", "", testToken))
	var presets []tracker.GoalPreset
	if err := json.NewDecoder(rr.Body).Decode(&presets); err != nil {
		t.Fatal(err)
	}
	if len(presets) != 4 || presets[0].Name != "Weight Loss" {
		t.Errorf("presets = %+v", presets)
	}
}

func TestFoodCalendar(t *testing.T) {
	h, svc := setupGateway(t, &fakeCompleter{})
	goal := tracker.MacroNutrients{Calories: 2000, Protein: 150, Fat: 65, Carbs: 250}
	seedFood(t, svc, "on-target", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), goal)
	seedFood(t, svc, "too-little", time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC), tracker.MacroNutrients{Calories: 500})
	seedFood(t, svc, "next-month", time.Date(2026, 4, 20, 12, 0, 0, 0, time.UTC), goal)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/food/calendar?year=2026&month=3&tz=UTC", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var cal tracker.FoodCalendar
	if err := json.NewDecoder(rr.Body).Decode(&cal); err != nil {
		t.Fatal(err)
	}
	// March 2026 starts on a Sunday and ends on a Tuesday: five full weeks.
	if len(cal.Days) != 35 {
		t.Fatalf("got %d days, want 35", len(cal.Days))
	}
	status := map[string]tracker.DayStatus{}
	for _, d := range cal.Days {
		status[d.Date] = d.Status
	}
	for date, want := range map[string]tracker.DayStatus{
		"2026-03-10": tracker.StatusAchieved,
		"2026-03-11": tracker.StatusMissed,
		"2026-03-12": tracker.StatusNoData,
	} {
		if status[date] != want {
			t.Errorf("%s: status = %q, want %q", date, status[date], want)
		}
	}
	if cal.Summary.TrackedDays != 2 || cal.Summary.SuccessRate != 50 {
		t.Errorf("Summary = %+v", cal.Summary)
	}
}

func TestFoodCalendar_BadParams(t *testing.T) {
	h, _ := setupGateway(t, &fakeCompleter{})

	for _, q := range []string{"month=13", "tz=Mars/Olympus", "year=x"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, authReq(http.MethodGet, fmt.Sprintf("/food/calendar?%s", q), "", testToken))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rr.Code)
		}
	}
}
