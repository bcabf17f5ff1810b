package models

import "time"

// Source identifies which upstream system supplied a record.
type Source string

const (
	// SourceForm is the primary form-submission system.
	SourceForm Source = "source-a"
	// SourceSurvey is the secondary standalone-survey system.
	SourceSurvey Source = "source-b"
)

// RawRecord is one immutable submission from one source.
type RawRecord struct {
	SubjectID  string    `json:"subjectId"`
	ExternalID string    `json:"externalId"`
	Source     Source    `json:"source"`
	SessionKey string    `json:"sessionKey,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Answers    AnswerMap `json:"answers"`
}

// MergedRecord is the canonical per-(subject, grade) record reconciled from
// both sources. Derived, stateless output: recomputed on demand.
type MergedRecord struct {
	SubjectID       string                     `json:"subjectId"`
	Grade           int                        `json:"grade"`
	Answers         AnswerMap                  `json:"answers"`
	Sources         []Source                   `json:"_sources"`
	Orphaned        bool                       `json:"_orphaned,omitempty"`
	FieldProvenance map[string]FieldProvenance `json:"_fieldProvenance,omitempty"`
	Conflicts       []FieldConflict            `json:"conflicts,omitempty"`
	Warnings        []string                   `json:"warnings,omitempty"`
}

// HasSource reports whether the given source contributed to the record.
func (r *MergedRecord) HasSource(s Source) bool {
	for _, src := range r.Sources {
		if src == s {
			return true
		}
	}
	return false
}

// FieldConflict documents one cross-source disagreement and its resolution.
type FieldConflict struct {
	Field       string    `json:"field"`
	FormValue   string    `json:"formValue"`
	SurveyValue string    `json:"surveyValue"`
	FormTime    time.Time `json:"formTime"`
	SurveyTime  time.Time `json:"surveyTime"`
	Chosen      Source    `json:"chosen"`
}

// SubmissionFilter narrows raw submission listings.
type SubmissionFilter struct {
	SubjectID string
	Source    Source
	Page      int
	PageSize  int
}
