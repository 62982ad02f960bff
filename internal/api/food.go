package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/lenslog/internal/storage"
	"github.com/kalambet/lenslog/internal/tracker"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// parseListQuery reads ?window (24h or all), ?limit and ?offset.
func parseListQuery(r *http.Request, now time.Time) (storage.ListQuery, error) {
	q := storage.ListQuery{
		Limit:  parseIntParam(r, "limit", defaultListLimit, maxListLimit),
		Offset: parseIntParam(r, "offset", 0, 0),
	}
	switch w := r.URL.Query().Get("window"); w {
	case "", "24h":
		q.Since = now.Add(-tracker.Window)
		q.Until = now
	case "all":
	default:
		return q, fmt.Errorf("invalid window %q: want 24h or all", w)
	}
	return q, nil
}

func handleRecordFood(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeAnalyzeRequest(w, r)
		if !ok {
			return
		}
		entry, err := svc.RecordFood(r.Context(), req.Image, req.ID, req.ImageURL)
		if err != nil {
			writeAnalysisError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

func handleListFood(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseListQuery(r, svc.Now())
		if err != nil {
			httpError(w, http.StatusBadRequest, "%v", err)
			return
		}
		entries, err := svc.Store().ListFoodEntries(q)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to list food entries: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleGetFood(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		entry, err := svc.Store().GetFoodEntry(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "food entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to get food entry: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func handleFoodSummary(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.FoodSummary()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to build summary: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func handleGetDailyGoals(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		goals, err := svc.Store().GetDailyGoals()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to get goals: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

func handlePutDailyGoals(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var goals tracker.DailyGoals
		if err := json.NewDecoder(r.Body).Decode(&goals); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}
		if goals.Calories < 0 || goals.Protein < 0 || goals.Fat < 0 || goals.Carbs < 0 {
			httpError(w, http.StatusBadRequest, "goals must not be negative")
			return
		}
		if err := svc.Store().ReplaceDailyGoals(goals); err != nil {
			httpError(w, http.StatusInternalServerError, "failed to save goals: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

func handleGoalPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tracker.GoalPresets)
}

func handleFoodCalendar(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, month, loc, err := parseMonth(r, svc.Now())
		if err != nil {
			httpError(w, http.StatusBadRequest, "%v", err)
			return
		}
		cal, err := svc.FoodCalendar(year, month, loc)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to build calendar: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, cal)
	}
}
