package validation

import (
	"time"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// PairSpec merges two timeout-governed tasks under one logical result key.
type PairSpec struct {
	Key     string
	Members []string
}

// Config bundles the per-task knobs of the engine. All of it is injectable;
// Defaults() reflects the packaged assessment battery.
type Config struct {
	Rules RuleSet
	// ExemptTasks are scored without an explicit correct-answer spec
	// (their stored values are correctness codes).
	ExemptTasks map[string]bool
	Pairs       []PairSpec
}

// Defaults returns the packaged task configuration: stage-based theory-of-mind,
// streak-based vocabulary, threshold-based pattern reasoning, the merged
// symbolic / non-symbolic number-comparison timeout pair, and the motor-skills
// trial matrix.
func Defaults() Config {
	return Config{
		Rules: RuleSet{
			"ToM": {
				Kind: StrategyStage,
				Stage: &StageParams{Stages: []Stage{
					{Number: 1, StartID: "ToM_Q1", EndID: "ToM_Q12", Threshold: 5, FlagField: "ToM_TERM_S1"},
					{Number: 2, StartID: "ToM_Q13", EndID: "ToM_Q24", Threshold: 5, FlagField: "ToM_TERM_S2"},
				}},
				Consistency: &ConsistencyParams{
					Progressive: [][]string{{"ToM_TERM_S1", "ToM_TERM_S2"}},
				},
			},
			"VOCAB": {
				Kind:   StrategyStreak,
				Streak: &StreakParams{Threshold: 10},
			},
			"PATTERN": {
				Kind: StrategyThreshold,
				Threshold: &ThresholdParams{
					QuestionIDs: []string{"PAT_Q1", "PAT_Q2", "PAT_Q3", "PAT_Q4", "PAT_Q5", "PAT_Q6"},
					MinCorrect:  2,
				},
			},
			"SYM":    {Kind: StrategyTimeout},
			"NONSYM": {Kind: StrategyTimeout},
			"CM": {
				Kind: StrategyNone,
				Consistency: &ConsistencyParams{
					Progressive:  [][]string{{"CM_T10", "CM_T20", "CM_T30"}},
					Dependencies: []FieldDependency{{Sub: "CM_SPAN_SUB", Parent: "CM_SPAN"}},
				},
			},
		},
		ExemptTasks: map[string]bool{"SYM": true, "NONSYM": true},
		Pairs: []PairSpec{
			{Key: "NUMCOMP", Members: []string{"SYM", "NONSYM"}},
		},
	}
}

// Engine validates subjects' answers against task definitions. It is
// stateless: every call recomputes from its inputs.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine; a zero config falls back to Defaults().
func NewEngine(cfg Config) *Engine {
	if cfg.Rules == nil {
		cfg = Defaults()
	}
	return &Engine{cfg: cfg}
}

// ValidateTask runs the full per-task pipeline over one subject's answers:
// extract, filter, normalize, score, terminate, aggregate trials.
func (e *Engine) ValidateTask(def *models.TaskDefinition, taskID string, answers models.AnswerMap) *models.TaskResult {
	questions := Extract(def)
	visible := FilterVisible(questions, answers)

	sctx := ScoreContext{TaskID: taskID, ExemptTasks: e.cfg.ExemptTasks}
	validated := make([]models.ValidatedQuestion, 0, len(visible))
	hasMatrix := false
	for _, q := range visible {
		normalized := NormalizeAnswer(answers, q)
		validated = append(validated, Score(q, normalized, answers, sctx))
		if q.IsMatrixCell {
			hasMatrix = true
		}
	}
	RefineTextStatuses(validated)

	result := &models.TaskResult{
		TaskID:           taskID,
		Questions:        validated,
		TerminationIndex: -1,
	}
	ApplyTermination(result, e.cfg.Rules[taskID], answers)

	if hasMatrix {
		result.Trials = AggregateTrials(result)
	}
	return result
}

// MissingSchemaResult is the non-fatal error marker for a task whose schema
// could not be loaded. Sibling tasks are unaffected.
func MissingSchemaResult(taskID string) *models.TaskResult {
	return &models.TaskResult{
		TaskID:           taskID,
		Error:            "not found",
		Questions:        []models.ValidatedQuestion{},
		TerminationIndex: -1,
	}
}

// PairFor returns the pair spec containing the given task id, if any.
func (e *Engine) PairFor(taskID string) (PairSpec, bool) {
	for _, pair := range e.cfg.Pairs {
		for _, member := range pair.Members {
			if member == taskID {
				return pair, true
			}
		}
	}
	return PairSpec{}, false
}

// CombinePair folds independently analyzed member results into the merged
// logical task. Counts sum across members; the combined timeout state degrades
// to the worst member state.
func (e *Engine) CombinePair(pair PairSpec, members map[string]*models.TaskResult) *models.TaskResult {
	combined := &models.TaskResult{
		TaskID:           pair.Key,
		Questions:        []models.ValidatedQuestion{},
		TerminationIndex: -1,
		SubResults:       make(map[string]*models.TaskResult, len(members)),
		TimeoutState:     models.TimeoutNotStarted,
	}

	states := make([]models.TimeoutState, 0, len(members))
	for _, id := range pair.Members {
		sub, ok := members[id]
		if !ok {
			continue
		}
		combined.SubResults[id] = sub
		combined.TotalQuestions += sub.TotalQuestions
		combined.AnsweredQuestions += sub.AnsweredQuestions
		combined.CorrectQuestions += sub.CorrectQuestions
		if sub.Terminated {
			combined.Terminated = true
		}
		if sub.HasPostTerminationAnswers {
			combined.HasPostTerminationAnswers = true
		}
		if sub.HasTerminationMismatch {
			combined.HasTerminationMismatch = true
		}
		states = append(states, sub.TimeoutState)
	}

	combined.TimeoutState = combineTimeoutStates(states)
	if combined.TotalQuestions > 0 {
		combined.PercentAnswered = 100 * float64(combined.AnsweredQuestions) / float64(combined.TotalQuestions)
		combined.PercentCorrect = 100 * float64(combined.CorrectQuestions) / float64(combined.TotalQuestions)
	}
	return combined
}

func combineTimeoutStates(states []models.TimeoutState) models.TimeoutState {
	if len(states) == 0 {
		return models.TimeoutNotStarted
	}
	allComplete, allNotStarted := true, true
	for _, s := range states {
		if s == models.TimeoutMissingData {
			return models.TimeoutMissingData
		}
		if s != models.TimeoutComplete {
			allComplete = false
		}
		if s != models.TimeoutNotStarted {
			allNotStarted = false
		}
	}
	if allComplete {
		return models.TimeoutComplete
	}
	if allNotStarted {
		return models.TimeoutNotStarted
	}
	return models.TimeoutTimedOut
}

// NewRun assembles a top-level validation output for one subject.
func NewRun(subjectID string, grade int, tasks map[string]*models.TaskResult) *models.ValidationRun {
	return &models.ValidationRun{
		SubjectID:   subjectID,
		Grade:       grade,
		Tasks:       tasks,
		GeneratedAt: time.Now().UTC(),
	}
}
