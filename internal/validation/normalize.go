package validation

import (
	"strconv"
	"strings"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// Normalize maps a stored answer token to its canonical value. Rules, in order:
// a nil value stays nil; a value equal to the question's own id is a placeholder
// from the survey source's export format and becomes nil; for option-bearing
// questions a value that already equals a known option value is returned
// unchanged, otherwise a 1-based integer within option range maps to that
// option's value; anything else passes through unchanged. Idempotent by
// construction: normalizing an already-normalized value never changes it.
func Normalize(raw *string, q models.Question) *string {
	if raw == nil {
		return nil
	}
	value := *raw
	if value == q.ID {
		return nil
	}
	if !q.HasOptions() {
		return raw
	}
	for _, opt := range q.Options {
		if value == opt.Value {
			return raw
		}
	}
	trimmed := strings.TrimSpace(value)
	if index, err := strconv.Atoi(trimmed); err == nil {
		if mapped, ok := q.OptionValue(index); ok {
			return &mapped
		}
	}
	return raw
}

// NormalizeAnswer pulls the raw value for a question out of the answer map and
// normalizes it. Absent and blank answers come back nil; the literal "0" does
// not (it is a valid "not observed" code, not an absence marker).
func NormalizeAnswer(answers models.AnswerMap, q models.Question) *string {
	value, ok := answers.Get(q.ID)
	if !ok {
		return nil
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return Normalize(&value, q)
}
