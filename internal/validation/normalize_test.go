package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestNormalizeNil(t *testing.T) {
	assert.Nil(t, Normalize(nil, models.Question{ID: "Q1"}))
}

func TestNormalizePlaceholderBecomesNil(t *testing.T) {
	q := models.Question{ID: "SDQ_Q7"}
	assert.Nil(t, Normalize(strPtr("SDQ_Q7"), q))
}

func TestNormalizeKnownOptionValueUnchanged(t *testing.T) {
	q := models.Question{ID: "Q1", Options: []models.Option{{Value: "1"}, {Value: "cat"}}}
	// "1" is a known option value, so it stays literal instead of being
	// reinterpreted as an index
	got := Normalize(strPtr("1"), q)
	require.NotNil(t, got)
	assert.Equal(t, "1", *got)
}

func TestNormalizeIndexMapsToOption(t *testing.T) {
	q := models.Question{ID: "Q1", Options: []models.Option{{Value: "dog"}, {Value: "cat"}, {Value: "bird"}}}
	got := Normalize(strPtr("2"), q)
	require.NotNil(t, got)
	assert.Equal(t, "cat", *got)

	// out of range passes through
	got = Normalize(strPtr("9"), q)
	require.NotNil(t, got)
	assert.Equal(t, "9", *got)
}

func TestNormalizeIdempotent(t *testing.T) {
	q := models.Question{ID: "Q1", Options: []models.Option{{Value: "dog"}, {Value: "cat"}}}
	first := Normalize(strPtr("2"), q)
	require.NotNil(t, first)
	second := Normalize(first, q)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestNormalizeAnswerZeroIsPresent(t *testing.T) {
	q := models.Question{ID: "CM_Q3"}
	answers := models.AnswerMap{"CM_Q3": models.StringAnswer("0")}
	got := NormalizeAnswer(answers, q)
	require.NotNil(t, got)
	assert.Equal(t, "0", *got)
}

func TestNormalizeAnswerBlankIsNil(t *testing.T) {
	q := models.Question{ID: "Q1"}
	answers := models.AnswerMap{"Q1": models.StringAnswer("  ")}
	assert.Nil(t, NormalizeAnswer(answers, q))
	assert.Nil(t, NormalizeAnswer(models.AnswerMap{}, q))
}

func TestNormalizeAnswerTextFallback(t *testing.T) {
	q := models.Question{ID: "Q1"}
	answers := models.AnswerMap{"Q1": models.TextAnswer("hello")}
	got := NormalizeAnswer(answers, q)
	require.NotNil(t, got)
	assert.Equal(t, "hello", *got)
}
