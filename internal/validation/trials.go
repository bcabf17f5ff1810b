package validation

import (
	"strconv"
	"strings"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// AggregateTrials collapses a matrix task's synthetic {row}_{column} questions
// back into per-criterion and per-group scores. An unanswered trial contributes
// 0 to the score but is preserved as nil in the trial record for display. This
// is pure post-processing over an already-scored result; it never affects the
// termination index.
func AggregateTrials(result *models.TaskResult) *models.TrialSummary {
	type criterion struct {
		score models.TrialScore
		seen  int
	}
	order := make([]string, 0)
	byRow := make(map[string]*criterion)

	for _, q := range result.Questions {
		if !q.IsMatrixCell {
			continue
		}
		c, ok := byRow[q.MatrixRow]
		if !ok {
			c = &criterion{score: models.TrialScore{
				Row:   q.MatrixRow,
				Label: q.Label,
				Group: q.MatrixGroup,
			}}
			byRow[q.MatrixRow] = c
			order = append(order, q.MatrixRow)
		}
		value := trialValue(q)
		c.seen++
		switch c.seen {
		case 1:
			c.score.Trial1 = value
		case 2:
			c.score.Trial2 = value
		}
		if value != nil {
			c.score.Score += *value
		}
	}

	if len(order) == 0 {
		return nil
	}

	summary := &models.TrialSummary{}
	groupOrder := make([]string, 0)
	groups := make(map[string]*models.GroupScore)

	for _, row := range order {
		c := byRow[row]
		summary.Criteria = append(summary.Criteria, c.score)
		summary.Score += c.score.Score
		summary.Maximum += c.seen

		g, ok := groups[c.score.Group]
		if !ok {
			g = &models.GroupScore{Group: c.score.Group}
			groups[c.score.Group] = g
			groupOrder = append(groupOrder, c.score.Group)
		}
		g.Score += c.score.Score
		g.Maximum += c.seen
	}

	for _, name := range groupOrder {
		summary.Groups = append(summary.Groups, *groups[name])
	}
	if summary.Maximum > 0 {
		summary.Percent = 100 * float64(summary.Score) / float64(summary.Maximum)
	}
	return summary
}

// trialValue parses the stored trial value, keeping absence as nil rather than
// coercing it to 0.
func trialValue(q models.ValidatedQuestion) *int {
	if q.StudentAnswer == nil {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*q.StudentAnswer))
	if err != nil {
		return nil
	}
	return &n
}
