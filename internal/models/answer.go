package models

import (
	"encoding/json"
	"strings"
)

// Answer is a single stored response value for one field. Callers may populate
// either Value or Text; Value takes precedence on extraction. The numeric value
// 0 (and the string "0") is a real answer, not an absence marker.
type Answer struct {
	Value json.RawMessage `json:"answer,omitempty"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
}

// Extract returns the effective raw value of the answer as a string, and
// whether the answer is present at all. Value wins over Text.
func (a Answer) Extract() (string, bool) {
	if len(a.Value) > 0 {
		var s string
		if err := json.Unmarshal(a.Value, &s); err == nil {
			if s == "" {
				return a.fallbackText()
			}
			return s, true
		}
		var n json.Number
		if err := json.Unmarshal(a.Value, &n); err == nil {
			return n.String(), true
		}
		// non-scalar payloads survive as their JSON form
		return string(a.Value), true
	}
	return a.fallbackText()
}

func (a Answer) fallbackText() (string, bool) {
	if a.Text != "" {
		return a.Text, true
	}
	return "", false
}

// IsEmpty reports whether the answer carries no usable value. "0" is never empty.
func (a Answer) IsEmpty() bool {
	v, ok := a.Extract()
	if !ok {
		return true
	}
	return strings.TrimSpace(v) == ""
}

// StringAnswer builds an Answer from a plain string value.
func StringAnswer(value string) Answer {
	raw, _ := json.Marshal(value)
	return Answer{Value: raw}
}

// TextAnswer builds an Answer populated through the text fallback channel.
func TextAnswer(text string) Answer {
	return Answer{Text: text}
}

// AnswerMap is a flat field-name keyed collection of answers.
type AnswerMap map[string]Answer

// Get returns the extracted value for a field, with presence.
func (m AnswerMap) Get(field string) (string, bool) {
	a, ok := m[field]
	if !ok {
		return "", false
	}
	return a.Extract()
}
