package models

import "time"

// ProvenanceEntry records one source consulted for a field.
type ProvenanceEntry struct {
	Source     Source    `json:"source"`
	ExternalID string    `json:"externalId"`
	Timestamp  time.Time `json:"timestamp"`
	Found      bool      `json:"found"`
}

// FieldProvenance is the immutable audit trail for one merged field: every
// source examined plus the decision that produced the final value. Updates go
// through pure functions in the reconcile package; values are never mutated
// in place.
type FieldProvenance struct {
	Entries      []ProvenanceEntry `json:"entries"`
	Winner       Source            `json:"winner"`
	WinnerReason string            `json:"winnerReason"`
}
