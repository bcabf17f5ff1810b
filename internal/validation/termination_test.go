package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

func vq(id string, answered, correct bool) models.ValidatedQuestion {
	var answer *string
	if answered {
		answer = strPtr("x")
	}
	return models.ValidatedQuestion{
		Question:      models.Question{ID: id},
		StudentAnswer: answer,
		IsAnswered:    answered,
		IsCorrect:     correct,
	}
}

func stageRule() TerminationRule {
	return TerminationRule{
		Kind: StrategyStage,
		Stage: &StageParams{Stages: []Stage{
			{Number: 1, StartID: "ToM_Q1", EndID: "ToM_Q6", Threshold: 3, FlagField: "ToM_TERM_S1"},
			{Number: 2, StartID: "ToM_Q7", EndID: "ToM_Q12", Threshold: 3, FlagField: "ToM_TERM_S2"},
		}},
	}
}

func stageQuestions(correct1, answered1, correct2, answered2 int) []models.ValidatedQuestion {
	qs := make([]models.ValidatedQuestion, 0, 12)
	for i := 1; i <= 12; i++ {
		stageCorrect, stageAnswered := correct1, answered1
		pos := i
		if i > 6 {
			stageCorrect, stageAnswered = correct2, answered2
			pos = i - 6
		}
		qs = append(qs, vq(fmt.Sprintf("ToM_Q%d", i), pos <= stageAnswered, pos <= stageCorrect))
	}
	return qs
}

func TestApplyTerminationStageFailsSecondStage(t *testing.T) {
	// stage 1 passed (4/6 correct), stage 2 fully answered with 1 correct
	result := &models.TaskResult{TaskID: "ToM", Questions: stageQuestions(4, 6, 1, 6)}
	ApplyTermination(result, stageRule(), models.AnswerMap{})

	assert.True(t, result.Terminated)
	assert.Equal(t, 11, result.TerminationIndex)
	assert.Equal(t, 2, result.TerminationStage)
	// totals cover both stages: termination at the final question excludes nothing
	assert.Equal(t, 12, result.TotalQuestions)
	assert.Equal(t, 5, result.CorrectQuestions)
}

func TestApplyTerminationStageDefiniteEarlyFail(t *testing.T) {
	// four incorrect answers in stage 1 leave correct+unanswered = 2 < 3:
	// the threshold is unreachable, so the stage fails without full answers
	qs := stageQuestions(0, 4, 0, 0)
	result := &models.TaskResult{TaskID: "ToM", Questions: qs}
	ApplyTermination(result, stageRule(), models.AnswerMap{})

	assert.True(t, result.Terminated)
	assert.Equal(t, 5, result.TerminationIndex)
	assert.Equal(t, 1, result.TerminationStage)
}

func TestApplyTerminationStageAmbiguousNoDecision(t *testing.T) {
	// two correct out of three answered, three unanswered: could still pass
	qs := stageQuestions(2, 3, 0, 0)
	result := &models.TaskResult{TaskID: "ToM", Questions: qs}
	ApplyTermination(result, stageRule(), models.AnswerMap{})

	assert.False(t, result.Terminated)
	assert.Equal(t, -1, result.TerminationIndex)
}

func TestApplyTerminationStageFlagReconciliation(t *testing.T) {
	// engine decides stage 1 failed but the recorded flag says it did not
	qs := stageQuestions(0, 6, 0, 0)
	result := &models.TaskResult{TaskID: "ToM", Questions: qs}
	ApplyTermination(result, stageRule(), models.AnswerMap{
		"ToM_TERM_S1": models.StringAnswer("0"),
	})
	assert.True(t, result.HasTerminationMismatch)

	// agreeing flag: no mismatch
	result = &models.TaskResult{TaskID: "ToM", Questions: stageQuestions(0, 6, 0, 0)}
	ApplyTermination(result, stageRule(), models.AnswerMap{
		"ToM_TERM_S1": models.StringAnswer("1"),
	})
	assert.False(t, result.HasTerminationMismatch)
}

func TestApplyTerminationUnreachedStageFlagIgnored(t *testing.T) {
	// stage 2 never reached: its stray flag must not raise a mismatch
	qs := stageQuestions(0, 6, 0, 0)
	result := &models.TaskResult{TaskID: "ToM", Questions: qs}
	ApplyTermination(result, stageRule(), models.AnswerMap{
		"ToM_TERM_S1": models.StringAnswer("1"),
		"ToM_TERM_S2": models.StringAnswer("1"),
	})
	assert.False(t, result.HasTerminationMismatch)
}

func TestApplyTerminationStreak(t *testing.T) {
	qs := []models.ValidatedQuestion{
		vq("V1", true, true),
		vq("V2", true, false),
		vq("V3", true, false),
		vq("V4", true, true), // resets the streak
		vq("V5", true, false),
		vq("V6", true, false),
		vq("V7", true, false),
		vq("V8", true, true),
	}
	rule := TerminationRule{Kind: StrategyStreak, Streak: &StreakParams{Threshold: 3}}
	result := &models.TaskResult{TaskID: "VOCAB", Questions: qs}
	ApplyTermination(result, rule, models.AnswerMap{})

	assert.True(t, result.Terminated)
	assert.Equal(t, 6, result.TerminationIndex)
	// totals stop at the termination point
	assert.Equal(t, 7, result.TotalQuestions)
	assert.Equal(t, 2, result.CorrectQuestions)
	// V8 answered after termination
	assert.True(t, result.HasPostTerminationAnswers)
}

func TestApplyTerminationStreakResetOnUnanswered(t *testing.T) {
	qs := []models.ValidatedQuestion{
		vq("V1", true, false),
		vq("V2", true, false),
		vq("V3", false, false), // unanswered resets
		vq("V4", true, false),
	}
	rule := TerminationRule{Kind: StrategyStreak, Streak: &StreakParams{Threshold: 3}}
	result := &models.TaskResult{TaskID: "VOCAB", Questions: qs}
	ApplyTermination(result, rule, models.AnswerMap{})

	assert.False(t, result.Terminated)
}

func TestApplyTerminationThreshold(t *testing.T) {
	rule := TerminationRule{Kind: StrategyThreshold, Threshold: &ThresholdParams{
		QuestionIDs: []string{"PAT_Q1", "PAT_Q2", "PAT_Q3"},
		MinCorrect:  2,
	}}

	build := func(c1, c2, c3 bool, answeredAll bool) *models.TaskResult {
		return &models.TaskResult{TaskID: "PATTERN", Questions: []models.ValidatedQuestion{
			vq("PAT_Q1", true, c1),
			vq("PAT_Q2", true, c2),
			vq("PAT_Q3", answeredAll, c3),
			vq("PAT_Q4", false, false),
		}}
	}

	// below minimum with the full set answered: terminate after the set
	result := build(true, false, false, true)
	ApplyTermination(result, rule, models.AnswerMap{})
	assert.True(t, result.Terminated)
	assert.Equal(t, 2, result.TerminationIndex)

	// at minimum: continue
	result = build(true, true, false, true)
	ApplyTermination(result, rule, models.AnswerMap{})
	assert.False(t, result.Terminated)

	// partially answered set: ambiguous, no decision
	result = build(true, false, false, false)
	ApplyTermination(result, rule, models.AnswerMap{})
	assert.False(t, result.Terminated)
}

func TestApplyTerminationTimeoutStates(t *testing.T) {
	rule := TerminationRule{Kind: StrategyTimeout}

	run := func(qs []models.ValidatedQuestion) *models.TaskResult {
		result := &models.TaskResult{TaskID: "SYM", Questions: qs}
		ApplyTermination(result, rule, models.AnswerMap{})
		return result
	}

	// contiguous prefix then unanswered tail: a clean timeout
	result := run([]models.ValidatedQuestion{
		vq("S1", true, true),
		vq("S2", true, false),
		vq("S3", false, false),
		vq("S4", false, false),
	})
	assert.Equal(t, models.TimeoutTimedOut, result.TimeoutState)
	assert.True(t, result.Terminated)
	assert.Equal(t, 1, result.TerminationIndex)
	assert.Equal(t, 2, result.TotalQuestions)

	// gap before the last answered question: missing data, not a timeout
	result = run([]models.ValidatedQuestion{
		vq("S1", true, true),
		vq("S2", false, false),
		vq("S3", true, false),
		vq("S4", false, false),
	})
	assert.Equal(t, models.TimeoutMissingData, result.TimeoutState)
	assert.False(t, result.Terminated)
	assert.True(t, result.HasTerminationMismatch)

	// everything answered
	result = run([]models.ValidatedQuestion{vq("S1", true, true), vq("S2", true, false)})
	assert.Equal(t, models.TimeoutComplete, result.TimeoutState)

	// nothing answered
	result = run([]models.ValidatedQuestion{vq("S1", false, false), vq("S2", false, false)})
	assert.Equal(t, models.TimeoutNotStarted, result.TimeoutState)
}

func TestCheckConsistencyProgressiveChain(t *testing.T) {
	rule := TerminationRule{
		Kind: StrategyNone,
		Consistency: &ConsistencyParams{
			Progressive: [][]string{{"CM_T10", "CM_T20", "CM_T30"}},
		},
	}

	// later milestone set without the earlier ones
	result := &models.TaskResult{TaskID: "CM"}
	ApplyTermination(result, rule, models.AnswerMap{
		"CM_T30": models.StringAnswer("45"),
	})
	assert.True(t, result.HasTerminationMismatch)

	// cumulative milestones are fine
	result = &models.TaskResult{TaskID: "CM"}
	ApplyTermination(result, rule, models.AnswerMap{
		"CM_T10": models.StringAnswer("12"),
		"CM_T20": models.StringAnswer("27"),
		"CM_T30": models.StringAnswer("45"),
	})
	assert.False(t, result.HasTerminationMismatch)
}

func TestCheckConsistencyDependency(t *testing.T) {
	rule := TerminationRule{
		Kind: StrategyNone,
		Consistency: &ConsistencyParams{
			Dependencies: []FieldDependency{{Sub: "CM_SPAN_SUB", Parent: "CM_SPAN"}},
		},
	}

	result := &models.TaskResult{TaskID: "CM"}
	ApplyTermination(result, rule, models.AnswerMap{
		"CM_SPAN_SUB": models.StringAnswer("3"),
	})
	assert.True(t, result.HasTerminationMismatch)

	result = &models.TaskResult{TaskID: "CM"}
	ApplyTermination(result, rule, models.AnswerMap{
		"CM_SPAN_SUB": models.StringAnswer("3"),
		"CM_SPAN":     models.StringAnswer("5"),
	})
	assert.False(t, result.HasTerminationMismatch)
}
