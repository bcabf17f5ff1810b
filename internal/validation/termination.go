package validation

import (
	"strings"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// StrategyKind is the closed set of termination strategies.
type StrategyKind int

const (
	StrategyNone StrategyKind = iota
	StrategyStage
	StrategyStreak
	StrategyThreshold
	StrategyTimeout
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyStage:
		return "stage"
	case StrategyStreak:
		return "streak"
	case StrategyThreshold:
		return "threshold"
	case StrategyTimeout:
		return "timeout"
	}
	return "none"
}

// Stage is one ordered evaluation window: an inclusive question-id range with
// a pass threshold. FlagField names the externally recorded termination flag
// reconciled against the engine's own decision.
type Stage struct {
	Number    int
	StartID   string
	EndID     string
	Threshold int
	FlagField string
}

// StageParams configures stage-based termination.
type StageParams struct {
	Stages []Stage
}

// StreakParams configures consecutive-incorrect termination.
type StreakParams struct {
	Threshold int
}

// ThresholdParams configures fixed-set minimum-correct termination.
type ThresholdParams struct {
	QuestionIDs []string
	MinCorrect  int
}

// FieldDependency ties a sub-measurement to its containing measurement: the
// sub-field being set requires the parent field to be set.
type FieldDependency struct {
	Sub    string
	Parent string
}

// ConsistencyParams configures hierarchical data-quality checks that feed the
// termination-mismatch flag. Progressive chains are ordered flag fields that
// must be set cumulatively: a later field set without its predecessors set is
// a data-quality warning.
type ConsistencyParams struct {
	Progressive  [][]string
	Dependencies []FieldDependency
}

// TerminationRule selects a strategy and its parameter record for one task.
type TerminationRule struct {
	Kind        StrategyKind
	Stage       *StageParams
	Streak      *StreakParams
	Threshold   *ThresholdParams
	Consistency *ConsistencyParams
}

// RuleSet maps canonical task ids to their termination rules.
type RuleSet map[string]TerminationRule

type applyFunc func(*models.TaskResult, TerminationRule, models.AnswerMap)

// strategyTable dispatches each strategy kind to its evaluator. A single
// generic table, no per-task handlers.
var strategyTable = map[StrategyKind]applyFunc{
	StrategyStage:     applyStage,
	StrategyStreak:    applyStreak,
	StrategyThreshold: applyThreshold,
	StrategyTimeout:   applyTimeout,
}

// ApplyTermination evaluates the task's termination rule, recomputes totals
// under exclusion, detects post-termination answers and reconciles the
// engine's decision against externally recorded flags.
func ApplyTermination(result *models.TaskResult, rule TerminationRule, answers models.AnswerMap) {
	result.TerminationIndex = -1
	if fn, ok := strategyTable[rule.Kind]; ok {
		fn(result, rule, answers)
	}
	if result.Terminated {
		result.TerminationStrategy = rule.Kind.String()
	}
	result.Recount()
	detectPostTermination(result)
	if rule.Consistency != nil {
		checkConsistency(result, rule.Consistency, answers)
	}
}

func detectPostTermination(result *models.TaskResult) {
	if !result.Terminated || result.TerminationIndex < 0 {
		return
	}
	for i := result.TerminationIndex + 1; i < len(result.Questions); i++ {
		q := result.Questions[i]
		if q.IsTextDisplay {
			continue
		}
		if q.IsAnswered {
			result.HasPostTerminationAnswers = true
			return
		}
	}
}

// applyStage evaluates ordered stages. A stage is definitely failed once
// correct + stillUnanswered < threshold (the threshold is unreachable even if
// every remaining question were correct), or when it is fully answered below
// threshold. The first failed stage terminates at its last question. A stage
// that is neither passed nor definitely failed is ambiguous: evaluation stops
// with no decision rather than guessing.
func applyStage(result *models.TaskResult, rule TerminationRule, answers models.AnswerMap) {
	if rule.Stage == nil {
		return
	}
	for _, stage := range rule.Stage.Stages {
		startIdx, endIdx, ok := stageBounds(result.Questions, stage)
		if !ok {
			continue
		}
		answered, correct, unanswered := 0, 0, 0
		for i := startIdx; i <= endIdx; i++ {
			q := result.Questions[i]
			if q.IsTextDisplay {
				continue
			}
			if q.IsAnswered {
				answered++
				if q.IsCorrect {
					correct++
				}
			} else {
				unanswered++
			}
		}

		reached := answered > 0
		failed := correct+unanswered < stage.Threshold ||
			(unanswered == 0 && correct < stage.Threshold)
		passed := correct >= stage.Threshold

		if reached {
			reconcileStageFlag(result, stage, failed, answers)
		}

		if failed {
			result.Terminated = true
			result.TerminationIndex = endIdx
			result.TerminationStage = stage.Number
			return
		}
		if !passed {
			// ambiguous: more data needed, never guess
			return
		}
	}
}

// reconcileStageFlag compares the engine's pass/fail decision for a reached
// stage against the externally recorded termination flag. Unreached stages are
// skipped by the caller to avoid false mismatches.
func reconcileStageFlag(result *models.TaskResult, stage Stage, engineFailed bool, answers models.AnswerMap) {
	if stage.FlagField == "" {
		return
	}
	raw, ok := answers.Get(stage.FlagField)
	if !ok {
		return
	}
	if flagTruthy(raw) != engineFailed {
		result.HasTerminationMismatch = true
	}
}

func stageBounds(questions []models.ValidatedQuestion, stage Stage) (int, int, bool) {
	startIdx, endIdx := -1, -1
	for i, q := range questions {
		if q.Question.ID == stage.StartID {
			startIdx = i
		}
		if q.Question.ID == stage.EndID {
			endIdx = i
		}
	}
	if startIdx < 0 || endIdx < 0 || endIdx < startIdx {
		return 0, 0, false
	}
	return startIdx, endIdx, true
}

// applyStreak terminates after a run of consecutive incorrect answered
// questions. Correct and unanswered questions both reset the streak.
func applyStreak(result *models.TaskResult, rule TerminationRule, _ models.AnswerMap) {
	if rule.Streak == nil || rule.Streak.Threshold <= 0 {
		return
	}
	streak := 0
	for i, q := range result.Questions {
		if q.IsTextDisplay {
			continue
		}
		if !q.IsAnswered || q.IsCorrect {
			streak = 0
			continue
		}
		streak++
		if streak >= rule.Streak.Threshold {
			result.Terminated = true
			result.TerminationIndex = i
			return
		}
	}
}

// applyThreshold only fires once every question in the fixed set is answered;
// a partially answered set is ambiguous and yields no decision.
func applyThreshold(result *models.TaskResult, rule TerminationRule, _ models.AnswerMap) {
	if rule.Threshold == nil || len(rule.Threshold.QuestionIDs) == 0 {
		return
	}
	wanted := make(map[string]bool, len(rule.Threshold.QuestionIDs))
	for _, id := range rule.Threshold.QuestionIDs {
		wanted[id] = true
	}
	correct, seen, lastIdx := 0, 0, -1
	for i, q := range result.Questions {
		if !wanted[q.Question.ID] {
			continue
		}
		seen++
		if !q.IsAnswered {
			return
		}
		if q.IsCorrect {
			correct++
		}
		if i > lastIdx {
			lastIdx = i
		}
	}
	if seen < len(rule.Threshold.QuestionIDs) {
		return
	}
	if correct < rule.Threshold.MinCorrect {
		result.Terminated = true
		result.TerminationIndex = lastIdx
	}
}

// applyTimeout classifies the answer sequence of a timed task by the
// contiguity of its unanswered tail. A clean tail after the last answered
// question is a proper timeout; gaps interspersed among earlier answers are
// missing data, a data-quality failure distinct from timeout.
func applyTimeout(result *models.TaskResult, _ TerminationRule, _ models.AnswerMap) {
	lastAnswered, answered, gap := -1, 0, false
	scoreable := make([]int, 0, len(result.Questions))
	for i, q := range result.Questions {
		if q.IsTextDisplay {
			continue
		}
		scoreable = append(scoreable, i)
		if q.IsAnswered {
			answered++
			lastAnswered = len(scoreable) - 1
		}
	}

	switch {
	case answered == 0:
		result.TimeoutState = models.TimeoutNotStarted
		return
	case answered == len(scoreable):
		result.TimeoutState = models.TimeoutComplete
		return
	}

	for pos := 0; pos < lastAnswered; pos++ {
		if !result.Questions[scoreable[pos]].IsAnswered {
			gap = true
			break
		}
	}

	if gap {
		result.TimeoutState = models.TimeoutMissingData
		result.HasTerminationMismatch = true
		return
	}

	result.TimeoutState = models.TimeoutTimedOut
	result.Terminated = true
	result.TerminationIndex = scoreable[lastAnswered]
}

// checkConsistency evaluates hierarchical field checks: progressive chains
// set cumulatively and sub-measurement dependencies. Violations surface as the
// generic data-quality warning, distinct from "incorrect but analyzable".
func checkConsistency(result *models.TaskResult, params *ConsistencyParams, answers models.AnswerMap) {
	for _, chain := range params.Progressive {
		for i := len(chain) - 1; i > 0; i-- {
			if !fieldSet(answers, chain[i]) {
				continue
			}
			for j := 0; j < i; j++ {
				if !fieldSet(answers, chain[j]) {
					result.HasTerminationMismatch = true
					return
				}
			}
		}
	}
	for _, dep := range params.Dependencies {
		if fieldSet(answers, dep.Sub) && !fieldSet(answers, dep.Parent) {
			result.HasTerminationMismatch = true
			return
		}
	}
}

func fieldSet(answers models.AnswerMap, field string) bool {
	v, ok := answers.Get(field)
	return ok && strings.TrimSpace(v) != ""
}

func flagTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
