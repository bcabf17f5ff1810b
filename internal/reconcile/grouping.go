// Package reconcile merges raw submissions from the two upstream sources into
// canonical per-(subject, grade) records with field-level provenance. Inputs
// are immutable; outputs are recomputed on demand with no internal state.
package reconcile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// GradeResolver derives the enrollment grade for a raw record. Form records
// carry no grade of their own, so it is inferred from the submission
// timestamp; survey records embed it in their session key.
type GradeResolver struct {
	FormGrade   func(createdAt time.Time) int
	SurveyGrade func(sessionKey string) int
}

// GradeWindow maps a submission-time interval onto a grade level.
type GradeWindow struct {
	From  time.Time
	To    time.Time
	Grade int
}

// NewGradeResolver builds a resolver from timestamp windows for the form
// source. Survey session keys carry the grade digit directly after the "K"
// prefix (e.g. "K2-7F3A…").
func NewGradeResolver(windows []GradeWindow) GradeResolver {
	return GradeResolver{
		FormGrade: func(createdAt time.Time) int {
			for _, w := range windows {
				if !createdAt.Before(w.From) && createdAt.Before(w.To) {
					return w.Grade
				}
			}
			return 0
		},
		SurveyGrade: SessionKeyGrade,
	}
}

// ParseGradeWindows reads a comma-separated list of "grade:from..to" entries
// with YYYY-MM-DD bounds, e.g. "1:2025-09-01..2026-03-01,2:2026-03-01..2026-09-01".
// The upper bound is exclusive.
func ParseGradeWindows(raw string) ([]GradeWindow, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var windows []GradeWindow
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		grade, bounds, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("grade window %q: missing grade prefix", entry)
		}
		g, err := strconv.Atoi(strings.TrimSpace(grade))
		if err != nil {
			return nil, fmt.Errorf("grade window %q: %w", entry, err)
		}
		from, to, ok := strings.Cut(bounds, "..")
		if !ok {
			return nil, fmt.Errorf("grade window %q: bounds must be from..to", entry)
		}
		start, err := time.Parse("2006-01-02", strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("grade window %q: %w", entry, err)
		}
		end, err := time.Parse("2006-01-02", strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("grade window %q: %w", entry, err)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("grade window %q: empty interval", entry)
		}
		windows = append(windows, GradeWindow{From: start, To: end, Grade: g})
	}
	return windows, nil
}

// SessionKeyGrade extracts the grade digit embedded in a survey session key.
// Unparseable keys yield grade 0, which buckets separately rather than being
// guessed into a real cohort.
func SessionKeyGrade(sessionKey string) int {
	if len(sessionKey) < 2 || (sessionKey[0] != 'K' && sessionKey[0] != 'k') {
		return 0
	}
	grade, err := strconv.Atoi(sessionKey[1:2])
	if err != nil {
		return 0
	}
	return grade
}

// SourceBucket holds same-grade records split by source.
type SourceBucket struct {
	Form   []models.RawRecord
	Survey []models.RawRecord
}

// Grouped is the full partition: subject id -> grade -> records per source.
type Grouped map[string]map[int]*SourceBucket

// Group partitions raw records from both sources by (subject, grade). Records
// with no subject identifier are dropped with a warning. A subject appearing
// at two different grades produces two independent buckets, never unioned;
// the Reconciler warns about the split during its Run.
func Group(form, survey []models.RawRecord, resolver GradeResolver, logger *zap.Logger) Grouped {
	if logger == nil {
		logger = zap.NewNop()
	}
	grouped := make(Grouped)

	add := func(rec models.RawRecord, grade int, isForm bool) {
		if rec.SubjectID == "" {
			logger.Warn("dropping record with no subject identifier",
				zap.String("source", string(rec.Source)),
				zap.String("external_id", rec.ExternalID))
			return
		}
		grades, ok := grouped[rec.SubjectID]
		if !ok {
			grades = make(map[int]*SourceBucket)
			grouped[rec.SubjectID] = grades
		}
		bucket, ok := grades[grade]
		if !ok {
			bucket = &SourceBucket{}
			grades[grade] = bucket
		}
		if isForm {
			bucket.Form = append(bucket.Form, rec)
		} else {
			bucket.Survey = append(bucket.Survey, rec)
		}
	}

	for _, rec := range form {
		grade := 0
		if resolver.FormGrade != nil {
			grade = resolver.FormGrade(rec.CreatedAt)
		}
		add(rec, grade, true)
	}
	for _, rec := range survey {
		grade := 0
		if resolver.SurveyGrade != nil {
			grade = resolver.SurveyGrade(rec.SessionKey)
		}
		add(rec, grade, false)
	}

	return grouped
}
