package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/lenslog/internal/storage"
	"github.com/kalambet/lenslog/internal/tracker"
)

func handleRecordAssessment(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeAnalyzeRequest(w, r)
		if !ok {
			return
		}
		a, err := svc.RecordAssessment(r.Context(), req.Image, req.ID, req.ImageURL)
		if err != nil {
			writeAnalysisError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func handleListAssessments(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseListQuery(r, svc.Now())
		if err != nil {
			httpError(w, http.StatusBadRequest, "%v", err)
			return
		}
		list, err := svc.Store().ListAssessments(q)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to list assessments: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetAssessment(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Store().GetAssessment(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "assessment not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to get assessment: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleProgress(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Progress()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to build progress: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func handleGetLearningGoals(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		goals, err := svc.Store().GetLearningGoals()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to get goals: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

func handlePutLearningGoals(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var goals tracker.LearningGoals
		if err := json.NewDecoder(r.Body).Decode(&goals); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}
		if goals.DailyProblems < 0 || goals.TargetAccuracy < 0 || goals.TargetAccuracy > 100 {
			httpError(w, http.StatusBadRequest, "dailyProblems must be >= 0 and targetAccuracy within 0-100")
			return
		}
		if goals.FocusAreas == nil {
			goals.FocusAreas = []string{}
		}
		if err := svc.Store().ReplaceLearningGoals(goals); err != nil {
			httpError(w, http.StatusInternalServerError, "failed to save goals: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

func handleLearningCalendar(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, month, loc, err := parseMonth(r, svc.Now())
		if err != nil {
			httpError(w, http.StatusBadRequest, "%v", err)
			return
		}
		cal, err := svc.LearningCalendar(year, month, loc)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to build calendar: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, cal)
	}
}
