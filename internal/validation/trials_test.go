package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

func matrixCell(row, label, group, col string, answer *string) models.ValidatedQuestion {
	return models.ValidatedQuestion{
		Question: models.Question{
			ID:           row + "_" + col,
			Label:        label,
			IsMatrixCell: true,
			MatrixRow:    row,
			MatrixColumn: col,
			MatrixGroup:  group,
		},
		StudentAnswer: answer,
		IsAnswered:    answer != nil,
	}
}

func TestAggregateTrialsPreservesUnansweredTrials(t *testing.T) {
	result := &models.TaskResult{TaskID: "TGMD", Questions: []models.ValidatedQuestion{
		matrixCell("HOP", "Hop on one foot", "locomotor", "T1", strPtr("1")),
		matrixCell("HOP", "Hop on one foot", "locomotor", "T2", nil),
		matrixCell("SKIP", "Skip forward", "locomotor", "T1", strPtr("0")),
		matrixCell("SKIP", "Skip forward", "locomotor", "T2", strPtr("1")),
		matrixCell("CATCH", "Catch a ball", "object-control", "T1", strPtr("1")),
		matrixCell("CATCH", "Catch a ball", "object-control", "T2", strPtr("1")),
	}}

	summary := AggregateTrials(result)
	require.NotNil(t, summary)
	require.Len(t, summary.Criteria, 3)

	hop := summary.Criteria[0]
	assert.Equal(t, "HOP", hop.Row)
	require.NotNil(t, hop.Trial1)
	assert.Equal(t, 1, *hop.Trial1)
	// unanswered second trial stays nil, it is not coerced to 0
	assert.Nil(t, hop.Trial2)
	assert.Equal(t, 1, hop.Score)

	skip := summary.Criteria[1]
	require.NotNil(t, skip.Trial1)
	assert.Equal(t, 0, *skip.Trial1)
	assert.Equal(t, 1, skip.Score)

	assert.Equal(t, 4, summary.Score)
	assert.Equal(t, 6, summary.Maximum)

	require.Len(t, summary.Groups, 2)
	assert.Equal(t, "locomotor", summary.Groups[0].Group)
	assert.Equal(t, 2, summary.Groups[0].Score)
	assert.Equal(t, 4, summary.Groups[0].Maximum)
	assert.Equal(t, "object-control", summary.Groups[1].Group)
	assert.Equal(t, 2, summary.Groups[1].Score)
	assert.Equal(t, 2, summary.Groups[1].Maximum)
}

func TestAggregateTrialsNoMatrixCells(t *testing.T) {
	result := &models.TaskResult{TaskID: "ToM", Questions: []models.ValidatedQuestion{
		vq("ToM_Q1", true, true),
	}}
	assert.Nil(t, AggregateTrials(result))
}

func TestAggregateTrialsIgnoresNonNumericValues(t *testing.T) {
	result := &models.TaskResult{TaskID: "TGMD", Questions: []models.ValidatedQuestion{
		matrixCell("HOP", "", "locomotor", "T1", strPtr("n/a")),
		matrixCell("HOP", "", "locomotor", "T2", strPtr("1")),
	}}

	summary := AggregateTrials(result)
	require.NotNil(t, summary)
	assert.Nil(t, summary.Criteria[0].Trial1)
	assert.Equal(t, 1, summary.Criteria[0].Score)
	assert.Equal(t, 2, summary.Maximum)
}
