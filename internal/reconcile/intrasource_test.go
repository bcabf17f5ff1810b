package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

var (
	t0900 = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	t1000 = time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	t1100 = time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
)

func formRecord(externalID string, createdAt time.Time, answers map[string]string) models.RawRecord {
	m := make(models.AnswerMap, len(answers))
	for k, v := range answers {
		m[k] = models.StringAnswer(v)
	}
	return models.RawRecord{
		SubjectID:  "S1",
		ExternalID: externalID,
		Source:     models.SourceForm,
		CreatedAt:  createdAt,
		Answers:    m,
	}
}

func TestMergeIntraSourceEarliestNonEmptyWins(t *testing.T) {
	records := []models.RawRecord{
		formRecord("f2", t1000, map[string]string{"Q1": "later", "Q2": "only-here"}),
		formRecord("f1", t0900, map[string]string{"Q1": "earlier"}),
	}

	// input order must not matter: chronology decides
	merged := MergeIntraSource(records, nil)
	require.NotNil(t, merged)

	v, ok := merged.Answers.Get("Q1")
	require.True(t, ok)
	assert.Equal(t, "earlier", v)
	assert.Equal(t, t0900, merged.FieldTimes["Q1"])
	assert.Equal(t, "f1", merged.FieldIDs["Q1"])

	v, ok = merged.Answers.Get("Q2")
	require.True(t, ok)
	assert.Equal(t, "only-here", v)

	assert.Equal(t, t0900, merged.EffectiveTime)
}

func TestMergeIntraSourceNeverOverwrites(t *testing.T) {
	records := []models.RawRecord{
		formRecord("f1", t0900, map[string]string{"Q1": "first"}),
		formRecord("f2", t1000, map[string]string{"Q1": "second"}),
		formRecord("f3", t1100, map[string]string{"Q1": "third"}),
	}

	merged := MergeIntraSource(records, nil)
	v, _ := merged.Answers.Get("Q1")
	assert.Equal(t, "first", v)

	// every submission is still on the audit trail
	prov := merged.Provenance["Q1"]
	assert.Len(t, prov.Entries, 3)
	assert.Contains(t, prov.WinnerReason, "f1")
}

func TestMergeIntraSourceSkipsEmptyValues(t *testing.T) {
	records := []models.RawRecord{
		formRecord("f1", t0900, map[string]string{"Q1": "", "Q2": "0"}),
		formRecord("f2", t1000, map[string]string{"Q1": "filled"}),
	}

	merged := MergeIntraSource(records, nil)

	// blank earlier value yields to the later non-empty one
	v, ok := merged.Answers.Get("Q1")
	require.True(t, ok)
	assert.Equal(t, "filled", v)

	// "0" is a real answer, not an absence marker
	v, ok = merged.Answers.Get("Q2")
	require.True(t, ok)
	assert.Equal(t, "0", v)
	assert.Equal(t, t0900, merged.FieldTimes["Q2"])

	// the empty sighting is still recorded with Found=false
	prov := merged.Provenance["Q1"]
	require.Len(t, prov.Entries, 2)
	assert.False(t, prov.Entries[0].Found)
	assert.True(t, prov.Entries[1].Found)
}

func TestMergeIntraSourceMissingTimestampsDefault(t *testing.T) {
	fixed := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	records := []models.RawRecord{
		{SubjectID: "S1", ExternalID: "f1", Source: models.SourceForm,
			Answers: models.AnswerMap{"Q1": models.StringAnswer("v")}},
	}

	merged := MergeIntraSource(records, func() time.Time { return fixed })
	require.NotNil(t, merged)
	assert.Equal(t, fixed, merged.EffectiveTime)
	assert.Equal(t, fixed, merged.FieldTimes["Q1"])
}

func TestMergeIntraSourceEmptyInput(t *testing.T) {
	assert.Nil(t, MergeIntraSource(nil, nil))
}
