package analysis

import (
	"strings"

	"github.com/tidwall/gjson"
)

// StripCodeFence removes one optional markdown fence around a model reply:
// "```json ... ```" first, then plain "``` ... ```". Anything else is only
// trimmed.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(s, "```json") && strings.HasSuffix(s, "```"):
		return strings.TrimSpace(s[len("```json") : len(s)-3])
	case strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```"):
		if len(s) < 6 {
			return ""
		}
		return strings.TrimSpace(s[3 : len(s)-3])
	}
	return s
}

// parseObject strips the fence and returns the reply as a loosely-typed JSON
// object. ok is false when the reply is empty, invalid JSON, or not an object.
func parseObject(content string) (gjson.Result, bool) {
	clean := StripCodeFence(content)
	if clean == "" || !gjson.Valid(clean) {
		return gjson.Result{}, false
	}
	root := gjson.Parse(clean)
	if !root.IsObject() {
		return gjson.Result{}, false
	}
	return root, true
}
