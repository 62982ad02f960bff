package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/kalambet/lenslog/internal/analysis"
	"github.com/kalambet/lenslog/internal/storage"
)

// maxRequestBodySize covers an 8 MiB image after base64 expansion.
const maxRequestBodySize = 12 << 20

// Deps holds what the HTTP gateway needs.
type Deps struct {
	Service     *Service
	Token       string
	CORSOrigins []string
}

// AnalyzeRequest is the body of every analysis endpoint.
type AnalyzeRequest struct {
	Image    string `json:"image"`
	ImageURL string `json:"imageUrl,omitempty"`
	ID       string `json:"id,omitempty"`
}

// NewHandler returns the gateway router. /health is public; everything else
// requires the bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(corsHandler(deps.CORSOrigins))

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Use(limitBody)

		r.Post("/analyze/food", handleAnalyzeFood(deps.Service))
		r.Post("/analyze/homework", handleAnalyzeHomework(deps.Service))

		r.Post("/food/entries", handleRecordFood(deps.Service))
		r.Get("/food/entries", handleListFood(deps.Service))
		r.Get("/food/entries/{id}", handleGetFood(deps.Service))
		r.Get("/food/summary", handleFoodSummary(deps.Service))
		r.Get("/food/goals", handleGetDailyGoals(deps.Service))
		r.Put("/food/goals", handlePutDailyGoals(deps.Service))
		r.Get("/food/goals/presets", handleGoalPresets)
		r.Get("/food/calendar", handleFoodCalendar(deps.Service))

		r.Post("/homework/assessments", handleRecordAssessment(deps.Service))
		r.Get("/homework/assessments", handleListAssessments(deps.Service))
		r.Get("/homework/assessments/{id}", handleGetAssessment(deps.Service))
		r.Get("/homework/progress", handleProgress(deps.Service))
		r.Get("/homework/goals", handleGetLearningGoals(deps.Service))
		r.Put("/homework/goals", handlePutLearningGoals(deps.Service))
		r.Get("/homework/calendar", handleLearningCalendar(deps.Service))
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
	}).Handler
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleAnalyzeFood(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeAnalyzeRequest(w, r)
		if !ok {
			return
		}
		result, err := svc.AnalyzeFood(r.Context(), req.Image)
		if err != nil {
			writeAnalysisError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleAnalyzeHomework(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeAnalyzeRequest(w, r)
		if !ok {
			return
		}
		result, err := svc.AnalyzeHomework(r.Context(), req.Image)
		if err != nil {
			writeAnalysisError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (AnalyzeRequest, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return req, false
	}
	return req, true
}

// statusForError maps an analysis or storage error onto an HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrBusy):
		return http.StatusConflict
	case errors.Is(err, storage.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	}
	switch analysis.KindOf(err) {
	case analysis.KindInvalidInput:
		return http.StatusBadRequest
	case analysis.KindConfigurationMissing:
		return http.StatusServiceUnavailable
	case analysis.KindNetworkFailure, analysis.KindUpstreamError,
		analysis.KindFormatError, analysis.KindIncompleteResult:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeAnalysisError(w http.ResponseWriter, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	httpError(w, code, "%s", err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]string{"error": fmt.Sprintf(format, args...)})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

// parseMonth reads ?tz, ?year and ?month. Missing values default to the
// current month in the requested zone.
func parseMonth(r *http.Request, now time.Time) (int, time.Month, *time.Location, error) {
	q := r.URL.Query()

	loc := time.Local
	if tz := q.Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return 0, 0, nil, fmt.Errorf("invalid tz %q", tz)
		}
		loc = l
	}

	local := now.In(loc)
	year, month := local.Year(), local.Month()
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1 || y > 9999 {
			return 0, 0, nil, fmt.Errorf("invalid year %q", s)
		}
		year = y
	}
	if s := q.Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, nil, fmt.Errorf("invalid month %q", s)
		}
		month = time.Month(m)
	}
	return year, month, loc, nil
}
