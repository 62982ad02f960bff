package analysis

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/kalambet/lenslog/internal/tracker"
	"github.com/tidwall/gjson"
)

// toNumber follows JavaScript's Number(x) for JSON values. ok is false where
// Number would produce NaN.
func toNumber(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.True:
		return 1, true
	case gjson.False, gjson.Null: // absent fields also report Null
		return 0, true
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			return 0, true
		}
		return parseNumberString(s)
	case gjson.JSON:
		if !r.IsArray() {
			return 0, false
		}
		elems := r.Array()
		switch len(elems) {
		case 0:
			return 0, true
		case 1:
			if elems[0].IsArray() || elems[0].Type == gjson.String || elems[0].Type == gjson.Number || elems[0].Type == gjson.Null {
				return toNumber(elems[0])
			}
			// String([true]) is "true", which is NaN.
			return 0, false
		}
		return 0, false
	}
	return 0, false
}

// parseNumberString accepts the string forms Number understands: decimal
// literals, Infinity, and unsigned 0x/0o/0b integers. Go-only spellings such as
// "inf", "NaN", hex floats and digit underscores are rejected.
func parseNumberString(s string) (float64, bool) {
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				if errors.Is(err, strconv.ErrRange) {
					return math.MaxUint64, true
				}
				return 0, false
			}
			return float64(n), true
		}
	}

	if strings.IndexFunc(s, func(c rune) bool { return !strings.ContainsRune("0123456789+-.eE", c) }) >= 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// field returns the value stored under key in obj. A repeated key resolves to
// its last occurrence, as JSON.parse does.
func field(obj gjson.Result, key string) gjson.Result {
	var out gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			out = v
		}
		return true
	})
	return out
}

// coerceInt is round(Number(x) || 0) with the result clamped to the
// non-negative int32 range.
func coerceInt(r gjson.Result) int {
	f, ok := toNumber(r)
	if !ok || math.IsNaN(f) {
		return 0
	}
	if math.IsInf(f, 0) {
		if f > 0 {
			return math.MaxInt32
		}
		return 0
	}
	n := math.Floor(f + 0.5)
	if n <= 0 {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// truthy follows JavaScript's Boolean(x) for JSON values.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	case gjson.JSON:
		return true
	}
	return false
}

// stringify follows JavaScript's String(x) for a present JSON value, except
// that objects keep their raw JSON text.
func stringify(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return strconv.FormatFloat(r.Num, 'f', -1, 64)
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Null:
		return "null"
	case gjson.JSON:
		if r.IsArray() {
			elems := r.Array()
			parts := make([]string, len(elems))
			for i, e := range elems {
				if e.Type != gjson.Null {
					parts[i] = stringify(e)
				}
			}
			return strings.Join(parts, ",")
		}
		return r.Raw
	}
	return ""
}

// coerceString is String(x || '').
func coerceString(r gjson.Result) string {
	if !truthy(r) {
		return ""
	}
	return stringify(r)
}

// coerceStrings returns an empty slice unless r is an array. Null elements
// are dropped and everything else is stringified.
func coerceStrings(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	r.ForEach(func(_, v gjson.Result) bool {
		if v.Type != gjson.Null {
			out = append(out, stringify(v))
		}
		return true
	})
	return out
}

// coerceOptional keeps a string only when the source value is truthy.
func coerceOptional(r gjson.Result) *string {
	if !truthy(r) {
		return nil
	}
	s := stringify(r)
	return &s
}

func coerceKnowledgeAreas(r gjson.Result) tracker.KnowledgeAreas {
	var areas tracker.KnowledgeAreas
	for _, key := range tracker.KnowledgeAreaKeys {
		areas = areas.With(key, coerceInt(field(r, key)))
	}
	return areas
}

func coerceMacros(r gjson.Result) tracker.MacroNutrients {
	return tracker.MacroNutrients{
		Calories: coerceInt(field(r, "calories")),
		Protein:  coerceInt(field(r, "protein")),
		Fat:      coerceInt(field(r, "fat")),
		Carbs:    coerceInt(field(r, "carbs")),
	}
}

// coerceQuestions maps every object element of r to a QuestionAnalysis.
// Non-object elements carry no question and are skipped.
func coerceQuestions(r gjson.Result) []tracker.QuestionAnalysis {
	out := []tracker.QuestionAnalysis{}
	if !r.IsArray() {
		return out
	}
	r.ForEach(func(_, q gjson.Result) bool {
		if !q.IsObject() {
			return true
		}
		out = append(out, tracker.QuestionAnalysis{
			QuestionNumber: coerceInt(field(q, "questionNumber")),
			QuestionText:   coerceString(field(q, "questionText")),
			StudentAnswer:  coerceString(field(q, "studentAnswer")),
			IsCorrect:      truthy(field(q, "isCorrect")),
			CorrectAnswer:  coerceOptional(field(q, "correctAnswer")),
			Explanation:    coerceOptional(field(q, "explanation")),
			KnowledgeArea:  coerceString(field(q, "knowledgeArea")),
			Difficulty:     tracker.ParseDifficulty(coerceString(field(q, "difficulty"))),
		})
		return true
	})
	return out
}
