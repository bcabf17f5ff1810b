package validation

import (
	"strconv"
	"strings"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// affirmative option values recognised for yes/no-shaped questions
var affirmativeValues = map[string]bool{
	"yes":  true,
	"y":    true,
	"true": true,
	"1":    true,
	"是":    true,
	"有":    true,
}

// ScoreContext carries the per-task knobs the scorer needs.
type ScoreContext struct {
	TaskID string
	// ExemptTasks are scored even without an explicit correct-answer spec:
	// their stored values are correctness codes (1 = correct).
	ExemptTasks map[string]bool
}

// Score determines correctness for one question given its normalized answer
// and the subject's full answer map (needed for text-companion lookups).
func Score(q models.Question, normalized *string, answers models.AnswerMap, sctx ScoreContext) models.ValidatedQuestion {
	vq := models.ValidatedQuestion{
		Question:      q,
		StudentAnswer: normalized,
		IsAnswered:    normalized != nil,
	}

	if q.IsTextDisplay {
		scoreTextCompanion(&vq, answers)
		return vq
	}

	switch {
	case q.IsMatrixCell:
		// trial cells: 1 is a pass, anything else (including absent) is not
		vq.IsCorrect = normalized != nil && strings.TrimSpace(*normalized) == "1"
		vq.DisplayCorrectAnswer = "1"

	case q.Scoring != nil && q.Type == TypeRadioText:
		scoreChoiceWithTextEscape(&vq, q, normalized, answers)

	case q.Scoring != nil:
		vq.DisplayCorrectAnswer = q.Scoring.CorrectAnswer
		vq.IsCorrect = normalized != nil &&
			strings.TrimSpace(*normalized) == strings.TrimSpace(q.Scoring.CorrectAnswer)

	case isYesNoShaped(q):
		vq.IsYesNo = true
		affirmative := affirmativeOption(q)
		vq.DisplayCorrectAnswer = affirmative
		vq.IsCorrect = normalized != nil && strings.TrimSpace(*normalized) == affirmative

	case isOrdinalScale(q):
		// ordinal scales only yield a display "best" label, never correctness
		vq.IsUnscored = true
		vq.DisplayCorrectAnswer = bestOrdinalLabel(q)

	case sctx.ExemptTasks[sctx.TaskID]:
		vq.IsCorrect = normalized != nil && strings.TrimSpace(*normalized) == "1"
		vq.DisplayCorrectAnswer = "1"

	default:
		vq.IsUnscored = true
	}

	return vq
}

// scoreChoiceWithTextEscape handles choice questions carrying a free-text
// escape companion. Once a choice is made the companion content is ignored:
// the correct option is correct regardless of what was typed. A blank choice
// with only the companion filled is an attempt, marked incorrect with the
// AttemptedViaText sentinel so it stays visibly distinct from "no attempt".
func scoreChoiceWithTextEscape(vq *models.ValidatedQuestion, q models.Question, normalized *string, answers models.AnswerMap) {
	vq.DisplayCorrectAnswer = q.Scoring.CorrectAnswer
	if normalized != nil {
		vq.IsCorrect = strings.TrimSpace(*normalized) == strings.TrimSpace(q.Scoring.CorrectAnswer)
		return
	}
	if text, ok := answers.Get(companionID(q)); ok && strings.TrimSpace(text) != "" {
		vq.IsAnswered = true
		vq.IsCorrect = false
		vq.AttemptedViaText = true
	}
}

// scoreTextCompanion computes the presentation-only status of a _TEXT field
// from its paired choice question. It never contributes to scoring totals.
func scoreTextCompanion(vq *models.ValidatedQuestion, answers models.AnswerMap) {
	pairedID := strings.TrimSuffix(vq.Question.ID, TextSuffix)
	pairedValue, pairedAnswered := answers.Get(pairedID)
	pairedAnswered = pairedAnswered && strings.TrimSpace(pairedValue) != ""

	textValue, hasText := answers.Get(vq.Question.ID)
	hasText = hasText && strings.TrimSpace(textValue) != ""

	switch {
	case pairedAnswered && !hasText:
		vq.TextStatus = models.TextNotAnswered
		vq.TextStatusReason = "no text provided"
	case pairedAnswered && hasText:
		vq.TextStatus = models.TextAnswered
		vq.TextStatusReason = "text field has content"
	case hasText:
		vq.TextStatus = models.TextAnswered
		vq.TextStatusReason = "attempted via text without a choice"
	default:
		vq.TextStatus = models.TextNotAnswered
		vq.TextStatusReason = "no answer provided"
	}
}

// RefineTextStatuses finalises companion statuses once their paired choice
// questions are known: a correctly answered choice makes its companion
// not-applicable regardless of content, and a choice absent from the visible
// set (filtered out by its showIf) hides the companion entirely.
func RefineTextStatuses(questions []models.ValidatedQuestion) {
	correctByID := make(map[string]bool, len(questions))
	for _, q := range questions {
		if !q.IsTextDisplay {
			correctByID[q.Question.ID] = q.IsCorrect
		}
	}
	for i := range questions {
		q := &questions[i]
		if !q.IsTextDisplay {
			continue
		}
		pairedID := strings.TrimSuffix(q.Question.ID, TextSuffix)
		correct, visible := correctByID[pairedID]
		switch {
		case pairedID != q.Question.ID && !visible:
			q.TextStatus = models.TextHidden
			q.TextStatusReason = "paired choice question is not shown"
		case correct:
			q.TextStatus = models.TextNotApplicable
			q.TextStatusReason = "correct answer selected on choice question"
		}
	}
}

func companionID(q models.Question) string {
	if q.TextID != "" {
		return q.TextID
	}
	return q.ID + TextSuffix
}

func isYesNoShaped(q models.Question) bool {
	if len(q.Options) != 2 || q.Scoring != nil {
		return false
	}
	for _, opt := range q.Options {
		if affirmativeValues[strings.ToLower(strings.TrimSpace(opt.Value))] {
			return true
		}
	}
	return false
}

func affirmativeOption(q models.Question) string {
	for _, opt := range q.Options {
		if affirmativeValues[strings.ToLower(strings.TrimSpace(opt.Value))] {
			return opt.Value
		}
	}
	return q.Options[0].Value
}

func isOrdinalScale(q models.Question) bool {
	if len(q.Options) < 3 || q.Scoring != nil {
		return false
	}
	for _, opt := range q.Options {
		if _, err := strconv.Atoi(strings.TrimSpace(opt.Value)); err != nil {
			return false
		}
	}
	return true
}

func bestOrdinalLabel(q models.Question) string {
	best := ""
	bestValue := 0
	for _, opt := range q.Options {
		n, err := strconv.Atoi(strings.TrimSpace(opt.Value))
		if err != nil {
			continue
		}
		if best == "" || n > bestValue {
			bestValue = n
			if opt.Label != "" {
				best = opt.Label
			} else {
				best = opt.Value
			}
		}
	}
	return best
}
