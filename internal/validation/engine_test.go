package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

func stagedDefinition() *models.TaskDefinition {
	nodes := []models.QuestionNode{
		{ID: "ToM_INTRO", Type: "instruction", Kind: models.NodeInstruction},
	}
	for i := 1; i <= 6; i++ {
		nodes = append(nodes, models.QuestionNode{
			ID:   fmt.Sprintf("ToM_Q%d", i),
			Type: TypeRadio,
			Kind: models.NodeLeaf,
			Options: []models.Option{
				{Value: "a"}, {Value: "b"},
			},
			Scoring: &models.ScoringSpec{CorrectAnswer: "a"},
		})
	}
	nodes = append(nodes, models.QuestionNode{
		ID: "ToM_TERM_S1", Type: TypeText, Kind: models.NodeLeaf,
	})
	return &models.TaskDefinition{ID: "ToM", Nodes: nodes}
}

func stagedConfig() Config {
	return Config{
		Rules: RuleSet{
			"ToM": {
				Kind: StrategyStage,
				Stage: &StageParams{Stages: []Stage{
					{Number: 1, StartID: "ToM_Q1", EndID: "ToM_Q6", Threshold: 3, FlagField: "ToM_TERM_S1"},
				}},
			},
			"SYM":    {Kind: StrategyTimeout},
			"NONSYM": {Kind: StrategyTimeout},
		},
		ExemptTasks: map[string]bool{"SYM": true, "NONSYM": true},
		Pairs:       []PairSpec{{Key: "NUMCOMP", Members: []string{"SYM", "NONSYM"}}},
	}
}

func TestValidateTaskFullPipeline(t *testing.T) {
	engine := NewEngine(stagedConfig())

	// two correct then four incorrect: stage fails, flag agrees
	answers := models.AnswerMap{
		"ToM_Q1":      models.StringAnswer("a"),
		"ToM_Q2":      models.StringAnswer("a"),
		"ToM_Q3":      models.StringAnswer("b"),
		"ToM_Q4":      models.StringAnswer("b"),
		"ToM_Q5":      models.StringAnswer("b"),
		"ToM_Q6":      models.StringAnswer("b"),
		"ToM_TERM_S1": models.StringAnswer("1"),
	}
	result := engine.ValidateTask(stagedDefinition(), "ToM", answers)

	// the instruction node and the flag field never reach the question list
	require.Len(t, result.Questions, 6)
	assert.True(t, result.Terminated)
	assert.Equal(t, 1, result.TerminationStage)
	assert.Equal(t, 6, result.TotalQuestions)
	assert.Equal(t, 2, result.CorrectQuestions)
	assert.False(t, result.HasTerminationMismatch)
	assert.Nil(t, result.Trials)
}

func TestValidateTaskNormalizesOptionIndexes(t *testing.T) {
	engine := NewEngine(stagedConfig())

	// "1" is the 1-based index of option "a", the correct answer
	answers := models.AnswerMap{"ToM_Q1": models.StringAnswer("1")}
	result := engine.ValidateTask(stagedDefinition(), "ToM", answers)

	require.NotEmpty(t, result.Questions)
	q1 := result.Questions[0]
	require.NotNil(t, q1.StudentAnswer)
	assert.Equal(t, "a", *q1.StudentAnswer)
	assert.True(t, q1.IsCorrect)
}

func TestValidateTaskMatrixGetsTrialSummary(t *testing.T) {
	def := &models.TaskDefinition{ID: "TGMD", Nodes: []models.QuestionNode{
		{
			ID:   "TGMD_MATRIX",
			Type: "matrix",
			Kind: models.NodeMatrix,
			Rows: []models.MatrixRow{
				{ID: "HOP", Label: "Hop on one foot", Group: "locomotor"},
			},
			Columns: []models.MatrixColumn{{ID: "T1"}, {ID: "T2"}},
		},
	}}

	engine := NewEngine(Config{Rules: RuleSet{}})
	answers := models.AnswerMap{"HOP_T1": models.StringAnswer("1")}
	result := engine.ValidateTask(def, "TGMD", answers)

	require.NotNil(t, result.Trials)
	require.Len(t, result.Trials.Criteria, 1)
	assert.Equal(t, 1, result.Trials.Score)
	assert.Equal(t, 2, result.Trials.Maximum)
	assert.Nil(t, result.Trials.Criteria[0].Trial2)
}

func TestMissingSchemaResult(t *testing.T) {
	result := MissingSchemaResult("UNKNOWN")
	assert.Equal(t, "UNKNOWN", result.TaskID)
	assert.Equal(t, "not found", result.Error)
	assert.Empty(t, result.Questions)
	assert.Equal(t, -1, result.TerminationIndex)
	assert.False(t, result.Terminated)
}

func TestPairForAndCombinePair(t *testing.T) {
	engine := NewEngine(stagedConfig())

	pair, ok := engine.PairFor("SYM")
	require.True(t, ok)
	assert.Equal(t, "NUMCOMP", pair.Key)
	_, ok = engine.PairFor("ToM")
	assert.False(t, ok)

	sym := &models.TaskResult{
		TaskID: "SYM", TotalQuestions: 10, AnsweredQuestions: 10,
		CorrectQuestions: 8, TimeoutState: models.TimeoutComplete,
	}
	nonsym := &models.TaskResult{
		TaskID: "NONSYM", TotalQuestions: 10, AnsweredQuestions: 6,
		CorrectQuestions: 4, TimeoutState: models.TimeoutTimedOut, Terminated: true,
	}

	combined := engine.CombinePair(pair, map[string]*models.TaskResult{
		"SYM": sym, "NONSYM": nonsym,
	})
	assert.Equal(t, "NUMCOMP", combined.TaskID)
	assert.Equal(t, 20, combined.TotalQuestions)
	assert.Equal(t, 16, combined.AnsweredQuestions)
	assert.Equal(t, 12, combined.CorrectQuestions)
	assert.True(t, combined.Terminated)
	// one member timed out: the merged state degrades with it
	assert.Equal(t, models.TimeoutTimedOut, combined.TimeoutState)
	assert.Equal(t, sym, combined.SubResults["SYM"])
	assert.InDelta(t, 60.0, combined.PercentCorrect, 0.001)
}

func TestCombineTimeoutStates(t *testing.T) {
	cases := []struct {
		states []models.TimeoutState
		want   models.TimeoutState
	}{
		{nil, models.TimeoutNotStarted},
		{[]models.TimeoutState{models.TimeoutComplete, models.TimeoutComplete}, models.TimeoutComplete},
		{[]models.TimeoutState{models.TimeoutNotStarted, models.TimeoutNotStarted}, models.TimeoutNotStarted},
		{[]models.TimeoutState{models.TimeoutComplete, models.TimeoutMissingData}, models.TimeoutMissingData},
		{[]models.TimeoutState{models.TimeoutComplete, models.TimeoutTimedOut}, models.TimeoutTimedOut},
		{[]models.TimeoutState{models.TimeoutComplete, models.TimeoutNotStarted}, models.TimeoutTimedOut},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, combineTimeoutStates(tc.states))
	}
}
