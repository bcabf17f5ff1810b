package validation

import (
	"strings"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// FilterVisible resolves showIf branches and duplicate question ids against a
// subject's answers. A showIf clause is a conjunction of referenced-question-id
// to expected-value pairs; a referenced question with no answer makes the
// condition false, and referenced option-index answers are mapped to option
// values before comparison. When the same id appears both unconditionally and
// behind a showIf, the conditional variant wins if its condition holds,
// otherwise the first-seen variant is kept. Never both.
func FilterVisible(questions []models.Question, answers models.AnswerMap) []models.Question {
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		if _, ok := byID[q.ID]; !ok {
			byID[q.ID] = q
		}
	}

	out := make([]models.Question, 0, len(questions))
	position := make(map[string]int, len(questions))

	for _, q := range questions {
		if q.ShowIf == nil {
			if _, seen := position[q.ID]; seen {
				continue
			}
			position[q.ID] = len(out)
			out = append(out, q)
			continue
		}
		if !conditionHolds(q.ShowIf, answers, byID) {
			continue
		}
		if at, seen := position[q.ID]; seen {
			out[at] = q
			continue
		}
		position[q.ID] = len(out)
		out = append(out, q)
	}
	return out
}

// conditionHolds evaluates a showIf conjunction. The gender key is always
// satisfied: gender branching is pre-filtered upstream. Malformed references
// resolve to condition-not-met, never to a hard failure.
func conditionHolds(showIf map[string]string, answers models.AnswerMap, byID map[string]models.Question) bool {
	for ref, expected := range showIf {
		if strings.EqualFold(ref, "gender") {
			continue
		}
		value, ok := answers.Get(ref)
		if !ok || strings.TrimSpace(value) == "" {
			return false
		}
		normalized := &value
		if refQ, known := byID[ref]; known {
			normalized = Normalize(&value, refQ)
		}
		if normalized == nil {
			return false
		}
		if strings.TrimSpace(*normalized) != strings.TrimSpace(expected) {
			return false
		}
	}
	return true
}
