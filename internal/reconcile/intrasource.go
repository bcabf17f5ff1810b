package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// SourceRecord is the collapse of one source's submissions for a single
// (subject, grade) bucket: one answer per field with the chronology that
// produced it.
type SourceRecord struct {
	Source     models.Source
	SubjectID  string
	Answers    models.AnswerMap
	FieldTimes map[string]time.Time
	FieldIDs   map[string]string
	Provenance map[string]models.FieldProvenance
	// EffectiveTime is the earliest submission timestamp, used for
	// cross-source comparison of fields the chronology did not reach.
	EffectiveTime time.Time
}

// MergeIntraSource folds multiple submissions from one source into one record:
// submissions sort ascending by creation timestamp and for each field the
// first chronologically seen non-empty value wins and is never overwritten.
// Single-record buckets pass through unchanged. Missing timestamps default to
// now so a merge never blocks on absent metadata.
func MergeIntraSource(records []models.RawRecord, now func() time.Time) *SourceRecord {
	if len(records) == 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}

	sorted := append([]models.RawRecord(nil), records...)
	for i := range sorted {
		if sorted[i].CreatedAt.IsZero() {
			sorted[i].CreatedAt = now().UTC()
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	out := &SourceRecord{
		Source:        sorted[0].Source,
		SubjectID:     sorted[0].SubjectID,
		Answers:       make(models.AnswerMap),
		FieldTimes:    make(map[string]time.Time),
		FieldIDs:      make(map[string]string),
		Provenance:    make(map[string]models.FieldProvenance),
		EffectiveTime: sorted[0].CreatedAt,
	}

	for _, rec := range sorted {
		fields := make([]string, 0, len(rec.Answers))
		for field := range rec.Answers {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			answer := rec.Answers[field]
			entry := models.ProvenanceEntry{
				Source:     rec.Source,
				ExternalID: rec.ExternalID,
				Timestamp:  rec.CreatedAt,
				Found:      !answer.IsEmpty(),
			}

			prov, tracked := out.Provenance[field]
			if !tracked {
				prov = NewProvenance(rec.Source, "", entry)
			} else {
				prov = WithEntry(prov, entry)
			}

			if _, taken := out.Answers[field]; !taken && !answer.IsEmpty() {
				out.Answers[field] = answer
				out.FieldTimes[field] = rec.CreatedAt
				out.FieldIDs[field] = rec.ExternalID
				prov.Winner = rec.Source
				prov.WinnerReason = fmt.Sprintf("earliest non-empty value (submission %s at %s)",
					rec.ExternalID, rec.CreatedAt.Format(time.RFC3339))
			}
			out.Provenance[field] = prov
		}
	}

	return out
}
