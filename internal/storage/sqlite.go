package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kalambet/lenslog/internal/tracker"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding food entries, assessments, and goals.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "lenslog.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// rangeClause builds the WHERE/LIMIT tail shared by the list queries.
func rangeClause(q ListQuery) (string, []any) {
	var conds []string
	var args []any
	if !q.Since.IsZero() {
		conds = append(conds, "captured_at >= ?")
		args = append(args, formatTime(q.Since))
	}
	if !q.Until.IsZero() {
		conds = append(conds, "captured_at <= ?")
		args = append(args, formatTime(q.Until))
	}

	var sb strings.Builder
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY captured_at DESC, id ASC")

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	sb.WriteString(" LIMIT ? OFFSET ?")
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	return sb.String(), args
}

// --- Food entries ---

const foodColumns = `id, description, calories, protein, fat, carbs, image_url, captured_at`

// SaveFoodEntry inserts a new entry. Entries are immutable once stored.
func (s *Store) SaveFoodEntry(e tracker.FoodEntry) error {
	_, err := s.db.Exec(`INSERT INTO food_entries (`+foodColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, e.Macros.Calories, e.Macros.Protein, e.Macros.Fat, e.Macros.Carbs,
		e.ImageURL, formatTime(e.Timestamp),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("food entry %s: %w", e.ID, ErrDuplicateID)
	}
	return err
}

func scanFoodEntry(sc interface{ Scan(...any) error }) (tracker.FoodEntry, error) {
	var e tracker.FoodEntry
	var capturedAt string
	if err := sc.Scan(&e.ID, &e.Description, &e.Macros.Calories, &e.Macros.Protein, &e.Macros.Fat, &e.Macros.Carbs, &e.ImageURL, &capturedAt); err != nil {
		return tracker.FoodEntry{}, err
	}
	t, err := parseTime(capturedAt)
	if err != nil {
		return tracker.FoodEntry{}, fmt.Errorf("parsing captured_at: %w", err)
	}
	e.Timestamp = t
	return e, nil
}

// GetFoodEntry returns the entry with the given id or ErrNotFound.
func (s *Store) GetFoodEntry(id string) (tracker.FoodEntry, error) {
	e, err := scanFoodEntry(s.db.QueryRow(`SELECT `+foodColumns+` FROM food_entries WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return tracker.FoodEntry{}, ErrNotFound
	}
	return e, err
}

// ListFoodEntries returns entries newest first. The result is never nil.
func (s *Store) ListFoodEntries(q ListQuery) ([]tracker.FoodEntry, error) {
	tail, args := rangeClause(q)
	rows, err := s.db.Query(`SELECT `+foodColumns+` FROM food_entries`+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []tracker.FoodEntry{}
	for rows.Next() {
		e, err := scanFoodEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// CountFoodEntries returns the number of stored entries.
func (s *Store) CountFoodEntries() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM food_entries`).Scan(&n)
	return n, err
}

// --- Assessments ---

const assessmentColumns = `id, description, subject, is_correct, completeness, logic_coherence,
	knowledge_areas, weak_points, strengths, error_analysis, solution_approach, image_url,
	captured_at, questions, total_questions, correct_questions, weak_knowledge_areas`

// SaveAssessment inserts a new assessment. List and mapping fields are stored
// as JSON text.
func (s *Store) SaveAssessment(a tracker.AssessmentResult) error {
	areas, err := json.Marshal(a.KnowledgeAreas)
	if err != nil {
		return fmt.Errorf("marshaling knowledge areas: %w", err)
	}
	weak, err := marshalList(a.WeakPoints)
	if err != nil {
		return err
	}
	strengths, err := marshalList(a.Strengths)
	if err != nil {
		return err
	}
	questions := a.Questions
	if questions == nil {
		questions = []tracker.QuestionAnalysis{}
	}
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshaling questions: %w", err)
	}
	weakAreas, err := marshalList(a.WeakKnowledgeAreas)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`INSERT INTO assessments (`+assessmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Description, a.Subject, a.IsCorrect, a.Completeness, a.LogicCoherence,
		string(areas), weak, strengths, a.ErrorAnalysis, a.SolutionApproach, a.ImageURL,
		formatTime(a.Timestamp), string(questionsJSON), a.TotalQuestions, a.CorrectQuestions, weakAreas,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("assessment %s: %w", a.ID, ErrDuplicateID)
	}
	return err
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshaling list: %w", err)
	}
	return string(b), nil
}

func scanAssessment(sc interface{ Scan(...any) error }) (tracker.AssessmentResult, error) {
	var a tracker.AssessmentResult
	var areas, weak, strengths, capturedAt, questions, weakAreas string
	if err := sc.Scan(&a.ID, &a.Description, &a.Subject, &a.IsCorrect, &a.Completeness, &a.LogicCoherence,
		&areas, &weak, &strengths, &a.ErrorAnalysis, &a.SolutionApproach, &a.ImageURL,
		&capturedAt, &questions, &a.TotalQuestions, &a.CorrectQuestions, &weakAreas); err != nil {
		return tracker.AssessmentResult{}, err
	}

	t, err := parseTime(capturedAt)
	if err != nil {
		return tracker.AssessmentResult{}, fmt.Errorf("parsing captured_at: %w", err)
	}
	a.Timestamp = t

	for _, f := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"knowledge_areas", areas, &a.KnowledgeAreas},
		{"weak_points", weak, &a.WeakPoints},
		{"strengths", strengths, &a.Strengths},
		{"questions", questions, &a.Questions},
		{"weak_knowledge_areas", weakAreas, &a.WeakKnowledgeAreas},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return tracker.AssessmentResult{}, fmt.Errorf("decoding %s for assessment %s: %w", f.name, a.ID, err)
		}
	}
	return a, nil
}

// GetAssessment returns the assessment with the given id or ErrNotFound.
func (s *Store) GetAssessment(id string) (tracker.AssessmentResult, error) {
	a, err := scanAssessment(s.db.QueryRow(`SELECT `+assessmentColumns+` FROM assessments WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return tracker.AssessmentResult{}, ErrNotFound
	}
	return a, err
}

// ListAssessments returns assessments newest first. The result is never nil.
func (s *Store) ListAssessments(q ListQuery) ([]tracker.AssessmentResult, error) {
	tail, args := rangeClause(q)
	rows, err := s.db.Query(`SELECT `+assessmentColumns+` FROM assessments`+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []tracker.AssessmentResult{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// CountAssessments returns the number of stored assessments.
func (s *Store) CountAssessments() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM assessments`).Scan(&n)
	return n, err
}

// --- Goals ---

func (s *Store) getGoal(key string, dst any) (bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM goals WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, fmt.Errorf("decoding goal %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) putGoal(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling goal %s: %w", key, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO goals (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(b), formatTime(time.Now()),
	)
	return err
}

// GetDailyGoals returns the stored macro goals, or the defaults when none were saved.
func (s *Store) GetDailyGoals() (tracker.DailyGoals, error) {
	var g tracker.DailyGoals
	ok, err := s.getGoal(goalKeyDaily, &g)
	if err != nil {
		return tracker.DailyGoals{}, err
	}
	if !ok {
		return tracker.DefaultDailyGoals, nil
	}
	return g, nil
}

// ReplaceDailyGoals stores g as the new macro goals.
func (s *Store) ReplaceDailyGoals(g tracker.DailyGoals) error {
	return s.putGoal(goalKeyDaily, g)
}

// GetLearningGoals returns the stored learning goals, or the defaults when none were saved.
func (s *Store) GetLearningGoals() (tracker.LearningGoals, error) {
	var g tracker.LearningGoals
	ok, err := s.getGoal(goalKeyLearning, &g)
	if err != nil {
		return tracker.LearningGoals{}, err
	}
	if !ok {
		return tracker.DefaultLearningGoals(), nil
	}
	if g.FocusAreas == nil {
		g.FocusAreas = []string{}
	}
	return g, nil
}

// ReplaceLearningGoals stores g as the new learning goals.
func (s *Store) ReplaceLearningGoals(g tracker.LearningGoals) error {
	if g.FocusAreas == nil {
		g.FocusAreas = []string{}
	}
	return s.putGoal(goalKeyLearning, g)
}
