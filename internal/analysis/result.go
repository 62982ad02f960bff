package analysis

import (
	"time"

	"github.com/kalambet/lenslog/internal/tracker"
	"github.com/tidwall/gjson"
)

// FoodAnalysis is the validated reply for one food image.
type FoodAnalysis struct {
	Description string                 `json:"description"`
	Macros      tracker.MacroNutrients `json:"macros"`
}

// Entry turns the analysis into a FoodEntry captured at the given time.
func (f FoodAnalysis) Entry(id, imageURL string, at time.Time) tracker.FoodEntry {
	return tracker.FoodEntry{
		ID:          id,
		Description: f.Description,
		Macros:      f.Macros,
		ImageURL:    imageURL,
		Timestamp:   at,
	}
}

// HomeworkAnalysis is the validated reply for one homework image. Every list is
// non-nil.
type HomeworkAnalysis struct {
	Description        string                     `json:"description"`
	Subject            string                     `json:"subject"`
	IsCorrect          bool                       `json:"isCorrect"`
	Completeness       int                        `json:"completeness"`
	LogicCoherence     int                        `json:"logicCoherence"`
	KnowledgeAreas     tracker.KnowledgeAreas     `json:"knowledgeAreas"`
	WeakPoints         []string                   `json:"weakPoints"`
	Strengths          []string                   `json:"strengths"`
	ErrorAnalysis      string                     `json:"errorAnalysis"`
	SolutionApproach   string                     `json:"solutionApproach"`
	Questions          []tracker.QuestionAnalysis `json:"questions"`
	TotalQuestions     int                        `json:"totalQuestions"`
	CorrectQuestions   int                        `json:"correctQuestions"`
	WeakKnowledgeAreas []string                   `json:"weakKnowledgeAreas"`
}

// Assessment turns the analysis into an AssessmentResult captured at the given time.
func (h HomeworkAnalysis) Assessment(id, imageURL string, at time.Time) tracker.AssessmentResult {
	return tracker.AssessmentResult{
		ID:                 id,
		Description:        h.Description,
		Subject:            h.Subject,
		IsCorrect:          h.IsCorrect,
		Completeness:       h.Completeness,
		LogicCoherence:     h.LogicCoherence,
		KnowledgeAreas:     h.KnowledgeAreas,
		WeakPoints:         h.WeakPoints,
		Strengths:          h.Strengths,
		ErrorAnalysis:      h.ErrorAnalysis,
		SolutionApproach:   h.SolutionApproach,
		ImageURL:           imageURL,
		Timestamp:          at,
		Questions:          h.Questions,
		TotalQuestions:     h.TotalQuestions,
		CorrectQuestions:   h.CorrectQuestions,
		WeakKnowledgeAreas: h.WeakKnowledgeAreas,
	}
}

// ParseFood runs the fence strip, parse, identity check and coercion pass over
// a raw food reply.
func ParseFood(content string) (FoodAnalysis, error) {
	root, ok := parseObject(content)
	if !ok {
		return FoodAnalysis{}, newError(KindFormatError, nil, "Invalid response format from AI analysis")
	}

	desc := field(root, "description")
	macros := field(root, "macros")
	if !truthy(desc) || !macros.IsObject() {
		return FoodAnalysis{}, newError(KindIncompleteResult, nil, "Incomplete analysis result")
	}

	return FoodAnalysis{
		Description: stringify(desc),
		Macros:      coerceMacros(macros),
	}, nil
}

// ParseHomework runs the fence strip, parse, identity check and coercion pass
// over a raw homework reply.
func ParseHomework(content string) (HomeworkAnalysis, error) {
	root, ok := parseObject(content)
	if !ok {
		return HomeworkAnalysis{}, newError(KindFormatError, nil, "Invalid response format from AI analysis")
	}

	desc := field(root, "description")
	subject := field(root, "subject")
	if !truthy(desc) || !truthy(subject) {
		return HomeworkAnalysis{}, newError(KindIncompleteResult, nil, "Missing required fields in analysis result")
	}

	return HomeworkAnalysis{
		Description:        stringify(desc),
		Subject:            stringify(subject),
		IsCorrect:          truthy(field(root, "isCorrect")),
		Completeness:       coerceInt(field(root, "completeness")),
		LogicCoherence:     coerceInt(field(root, "logicCoherence")),
		KnowledgeAreas:     coerceKnowledgeAreas(objectOrEmpty(field(root, "knowledgeAreas"))),
		WeakPoints:         coerceStrings(field(root, "weakPoints")),
		Strengths:          coerceStrings(field(root, "strengths")),
		ErrorAnalysis:      coerceString(field(root, "errorAnalysis")),
		SolutionApproach:   coerceString(field(root, "solutionApproach")),
		Questions:          coerceQuestions(field(root, "questions")),
		TotalQuestions:     coerceInt(field(root, "totalQuestions")),
		CorrectQuestions:   coerceInt(field(root, "correctQuestions")),
		WeakKnowledgeAreas: coerceStrings(field(root, "weakKnowledgeAreas")),
	}, nil
}

func objectOrEmpty(r gjson.Result) gjson.Result {
	if r.IsObject() {
		return r
	}
	return gjson.Result{}
}
