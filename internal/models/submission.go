package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Submission is one stored raw submission row. Rows are append-only: ingestion
// never mutates earlier submissions, reconciliation reads them all.
type Submission struct {
	ID          string         `db:"id" json:"id"`
	SubjectID   string         `db:"subject_id" json:"subjectId"`
	ExternalID  string         `db:"external_id" json:"externalId"`
	Source      Source         `db:"source" json:"source"`
	SessionKey  *string        `db:"session_key" json:"sessionKey,omitempty"`
	Answers     types.JSONText `db:"answers" json:"answers"`
	SubmittedAt time.Time      `db:"submitted_at" json:"submittedAt"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// ToRawRecord decodes the stored answers payload into the in-memory form the
// reconciliation pipeline consumes.
func (s *Submission) ToRawRecord() (RawRecord, error) {
	answers := make(AnswerMap)
	if len(s.Answers) > 0 {
		if err := json.Unmarshal(s.Answers, &answers); err != nil {
			return RawRecord{}, fmt.Errorf("decode answers for submission %s: %w", s.ID, err)
		}
	}
	rec := RawRecord{
		SubjectID:  s.SubjectID,
		ExternalID: s.ExternalID,
		Source:     s.Source,
		CreatedAt:  s.SubmittedAt,
		Answers:    answers,
	}
	if s.SessionKey != nil {
		rec.SessionKey = *s.SessionKey
	}
	return rec, nil
}

// NewSubmission builds a Submission row from a raw record.
func NewSubmission(rec RawRecord) (Submission, error) {
	payload, err := json.Marshal(rec.Answers)
	if err != nil {
		return Submission{}, fmt.Errorf("encode answers for %s/%s: %w", rec.Source, rec.ExternalID, err)
	}
	sub := Submission{
		SubjectID:   rec.SubjectID,
		ExternalID:  rec.ExternalID,
		Source:      rec.Source,
		Answers:     types.JSONText(payload),
		SubmittedAt: rec.CreatedAt,
	}
	if rec.SessionKey != "" {
		key := rec.SessionKey
		sub.SessionKey = &key
	}
	return sub, nil
}
