// Package tracker holds the food and homework records kept by lenslog and the
// pure reductions computed over them: 24-hour totals, student progress, and
// per-day goal classification for the calendar.
package tracker

import "time"

// MacroNutrients is the nutritional estimate for one food entry, or a sum of them.
type MacroNutrients struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Fat      int `json:"fat"`
	Carbs    int `json:"carbs"`
}

// FoodEntry is one analysed meal photo. Entries are never modified after creation.
type FoodEntry struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Macros      MacroNutrients `json:"macros"`
	ImageURL    string         `json:"imageUrl"`
	Timestamp   time.Time      `json:"timestamp"`
}

// DailyGoals are the user's macro targets.
type DailyGoals struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Fat      int `json:"fat"`
	Carbs    int `json:"carbs"`
}

// DefaultDailyGoals is used until the user saves their own targets.
var DefaultDailyGoals = DailyGoals{Calories: 2000, Protein: 150, Fat: 65, Carbs: 250}

// GoalPreset is a named starting point for DailyGoals.
type GoalPreset struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Goals       DailyGoals `json:"goals"`
}

// GoalPresets lists the built-in presets in display order.
var GoalPresets = []GoalPreset{
	{Name: "Weight Loss", Description: "Moderate calorie deficit with high protein", Goals: DailyGoals{Calories: 1800, Protein: 140, Fat: 60, Carbs: 180}},
	{Name: "Muscle Gain", Description: "Calorie surplus with high protein", Goals: DailyGoals{Calories: 2500, Protein: 180, Fat: 85, Carbs: 280}},
	{Name: "Maintenance", Description: "Balanced macros for weight maintenance", Goals: DailyGoals{Calories: 2200, Protein: 150, Fat: 75, Carbs: 220}},
	{Name: "Athletic", Description: "High carbs for performance", Goals: DailyGoals{Calories: 2800, Protein: 160, Fat: 90, Carbs: 350}},
}

// KnowledgeAreas maps the five tracked math skills to a 0-100 mastery score.
type KnowledgeAreas struct {
	Arithmetic   int `json:"arithmetic"`
	Geometry     int `json:"geometry"`
	Fractions    int `json:"fractions"`
	WordProblems int `json:"wordProblems"`
	Measurement  int `json:"measurement"`
}

// KnowledgeAreaKeys are the JSON keys of KnowledgeAreas in canonical order.
var KnowledgeAreaKeys = []string{"arithmetic", "geometry", "fractions", "wordProblems", "measurement"}

// Get returns the score stored under a JSON key, and false for unknown keys.
func (k KnowledgeAreas) Get(key string) (int, bool) {
	switch key {
	case "arithmetic":
		return k.Arithmetic, true
	case "geometry":
		return k.Geometry, true
	case "fractions":
		return k.Fractions, true
	case "wordProblems":
		return k.WordProblems, true
	case "measurement":
		return k.Measurement, true
	}
	return 0, false
}

// With returns a copy of k with the score under key replaced.
// Unknown keys return k unchanged.
func (k KnowledgeAreas) With(key string, v int) KnowledgeAreas {
	switch key {
	case "arithmetic":
		k.Arithmetic = v
	case "geometry":
		k.Geometry = v
	case "fractions":
		k.Fractions = v
	case "wordProblems":
		k.WordProblems = v
	case "measurement":
		k.Measurement = v
	}
	return k
}

// Difficulty grades a single homework question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps free text onto a Difficulty, falling back to medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s)
	}
	return DifficultyMedium
}

// QuestionAnalysis is the model's verdict on one detected homework question.
type QuestionAnalysis struct {
	QuestionNumber int        `json:"questionNumber"`
	QuestionText   string     `json:"questionText"`
	StudentAnswer  string     `json:"studentAnswer"`
	IsCorrect      bool       `json:"isCorrect"`
	CorrectAnswer  *string    `json:"correctAnswer,omitempty"`
	Explanation    *string    `json:"explanation,omitempty"`
	KnowledgeArea  string     `json:"knowledgeArea"`
	Difficulty     Difficulty `json:"difficulty"`
}

// AssessmentResult is one analysed homework photo. Never modified after creation.
type AssessmentResult struct {
	ID                 string             `json:"id"`
	Description        string             `json:"description"`
	Subject            string             `json:"subject"`
	IsCorrect          bool               `json:"isCorrect"`
	Completeness       int                `json:"completeness"`
	LogicCoherence     int                `json:"logicCoherence"`
	KnowledgeAreas     KnowledgeAreas     `json:"knowledgeAreas"`
	WeakPoints         []string           `json:"weakPoints"`
	Strengths          []string           `json:"strengths"`
	ErrorAnalysis      string             `json:"errorAnalysis"`
	SolutionApproach   string             `json:"solutionApproach"`
	ImageURL           string             `json:"imageUrl"`
	Timestamp          time.Time          `json:"timestamp"`
	Questions          []QuestionAnalysis `json:"questions,omitempty"`
	TotalQuestions     int                `json:"totalQuestions,omitempty"`
	CorrectQuestions   int                `json:"correctQuestions,omitempty"`
	WeakKnowledgeAreas []string           `json:"weakKnowledgeAreas,omitempty"`
}

// LearningGoals are the user's homework targets.
type LearningGoals struct {
	DailyProblems  int            `json:"dailyProblems"`
	TargetAccuracy int            `json:"targetAccuracy"`
	FocusAreas     []string       `json:"focusAreas"`
	WeeklyGoals    KnowledgeAreas `json:"weeklyGoals"`
}

// DefaultLearningGoals returns a fresh copy of the built-in learning goals.
func DefaultLearningGoals() LearningGoals {
	return LearningGoals{
		DailyProblems:  8,
		TargetAccuracy: 80,
		FocusAreas:     []string{"Basic Arithmetic", "Word Problems"},
		WeeklyGoals: KnowledgeAreas{
			Arithmetic:   85,
			Geometry:     60,
			Fractions:    70,
			WordProblems: 75,
			Measurement:  65,
		},
	}
}

// Trend summarises recent accuracy.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// StudentProgress is derived from recent assessments and never stored.
type StudentProgress struct {
	TotalProblems    int            `json:"totalProblems"`
	CorrectProblems  int            `json:"correctProblems"`
	Accuracy         int            `json:"accuracy"`
	KnowledgeAreas   KnowledgeAreas `json:"knowledgeAreas"`
	ImprovementTrend Trend          `json:"improvementTrend"`
}
