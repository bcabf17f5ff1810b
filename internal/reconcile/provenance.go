package reconcile

import (
	"github.com/noah-isme/survey-recon-api/internal/models"
)

// provenance values are immutable: every update builds a new record through
// these pure functions, so parallel merges of independent subjects never race
// on shared state.

// NewProvenance starts a provenance record with the given entries and winner.
func NewProvenance(winner models.Source, reason string, entries ...models.ProvenanceEntry) models.FieldProvenance {
	return models.FieldProvenance{
		Entries:      append([]models.ProvenanceEntry(nil), entries...),
		Winner:       winner,
		WinnerReason: reason,
	}
}

// MergeProvenance combines two provenance records into a new one. The entry
// set union is idempotent and order-independent; the winner always reflects
// the most recent merge decision.
func MergeProvenance(a, b models.FieldProvenance, winner models.Source, reason string) models.FieldProvenance {
	merged := models.FieldProvenance{
		Winner:       winner,
		WinnerReason: reason,
	}
	seen := make(map[models.ProvenanceEntry]bool, len(a.Entries)+len(b.Entries))
	for _, entry := range a.Entries {
		if !seen[entry] {
			seen[entry] = true
			merged.Entries = append(merged.Entries, entry)
		}
	}
	for _, entry := range b.Entries {
		if !seen[entry] {
			seen[entry] = true
			merged.Entries = append(merged.Entries, entry)
		}
	}
	return merged
}

// WithEntry returns a copy of the provenance with one more consulted source.
func WithEntry(p models.FieldProvenance, entry models.ProvenanceEntry) models.FieldProvenance {
	for _, existing := range p.Entries {
		if existing == entry {
			return p
		}
	}
	out := models.FieldProvenance{
		Entries:      append(append([]models.ProvenanceEntry(nil), p.Entries...), entry),
		Winner:       p.Winner,
		WinnerReason: p.WinnerReason,
	}
	return out
}
