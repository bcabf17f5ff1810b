package models

import "time"

// TextStatus is the presentation-only state of a text-companion field.
type TextStatus string

const (
	TextAnswered      TextStatus = "answered"
	TextNotApplicable TextStatus = "not-applicable"
	TextNotAnswered   TextStatus = "not-answered"
	TextHidden        TextStatus = "hidden"
)

// TimeoutState classifies the answer tail of a timed task.
type TimeoutState string

const (
	TimeoutNotStarted  TimeoutState = "not-started"
	TimeoutComplete    TimeoutState = "complete"
	TimeoutTimedOut    TimeoutState = "timed-out"
	TimeoutMissingData TimeoutState = "missing-data"
)

// ValidatedQuestion joins a Question with one subject's answer and its score.
type ValidatedQuestion struct {
	Question
	StudentAnswer        *string    `json:"studentAnswer"`
	IsAnswered           bool       `json:"isAnswered"`
	IsCorrect            bool       `json:"isCorrect"`
	IsUnscored           bool       `json:"isUnscored,omitempty"`
	IsYesNo              bool       `json:"isYesNo,omitempty"`
	AttemptedViaText     bool       `json:"attemptedViaText,omitempty"`
	DisplayCorrectAnswer string     `json:"displayCorrectAnswer,omitempty"`
	TextStatus           TextStatus `json:"textStatus,omitempty"`
	TextStatusReason     string     `json:"textStatusReason,omitempty"`
}

// TaskResult aggregates validated questions for one task.
type TaskResult struct {
	TaskID    string              `json:"taskId"`
	Error     string              `json:"error,omitempty"`
	Questions []ValidatedQuestion `json:"questions"`

	TotalQuestions    int     `json:"totalQuestions"`
	AnsweredQuestions int     `json:"answeredQuestions"`
	CorrectQuestions  int     `json:"correctQuestions"`
	PercentAnswered   float64 `json:"percentAnswered"`
	PercentCorrect    float64 `json:"percentCorrect"`

	Terminated          bool   `json:"terminated"`
	TerminationIndex    int    `json:"terminationIndex"`
	TerminationStage    int    `json:"terminationStage,omitempty"`
	TerminationStrategy string `json:"terminationStrategy,omitempty"`

	HasPostTerminationAnswers bool `json:"hasPostTerminationAnswers"`
	HasTerminationMismatch    bool `json:"hasTerminationMismatch"`

	TimeoutState TimeoutState           `json:"timeoutState,omitempty"`
	SubResults   map[string]*TaskResult `json:"subResults,omitempty"`
	Trials       *TrialSummary          `json:"trials,omitempty"`
}

// Recount recomputes counts and percentages from the question list, honoring
// the termination index when set.
func (r *TaskResult) Recount() {
	limit := len(r.Questions)
	if r.Terminated && r.TerminationIndex >= 0 && r.TerminationIndex+1 < limit {
		limit = r.TerminationIndex + 1
	}
	total, answered, correct := 0, 0, 0
	for i := 0; i < limit; i++ {
		q := r.Questions[i]
		if q.IsTextDisplay {
			continue
		}
		total++
		if q.IsAnswered {
			answered++
		}
		if q.IsCorrect {
			correct++
		}
	}
	r.TotalQuestions = total
	r.AnsweredQuestions = answered
	r.CorrectQuestions = correct
	if total > 0 {
		r.PercentAnswered = 100 * float64(answered) / float64(total)
		r.PercentCorrect = 100 * float64(correct) / float64(total)
	} else {
		r.PercentAnswered = 0
		r.PercentCorrect = 0
	}
}

// TrialScore is one matrix criterion with its per-trial values preserved.
// Unanswered trials stay nil for display; they contribute 0 to the score.
type TrialScore struct {
	Row    string `json:"row"`
	Label  string `json:"label,omitempty"`
	Group  string `json:"group,omitempty"`
	Trial1 *int   `json:"trial1"`
	Trial2 *int   `json:"trial2"`
	Score  int    `json:"score"`
}

// GroupScore aggregates criteria belonging to one task group.
type GroupScore struct {
	Group   string `json:"group"`
	Score   int    `json:"score"`
	Maximum int    `json:"maximum"`
}

// TrialSummary is the aggregate of all matrix criteria for one task.
type TrialSummary struct {
	Criteria []TrialScore `json:"criteria"`
	Groups   []GroupScore `json:"groups"`
	Score    int          `json:"score"`
	Maximum  int          `json:"maximum"`
	Percent  float64      `json:"percent"`
}

// ValidationRun is the top-level output of validating one subject.
type ValidationRun struct {
	SubjectID   string                 `json:"subjectId"`
	Grade       int                    `json:"grade,omitempty"`
	Tasks       map[string]*TaskResult `json:"tasks"`
	GeneratedAt time.Time              `json:"generatedAt"`
}
