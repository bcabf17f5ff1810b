package reconcile

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// Reconcile merges the two sources' collapsed records for one (subject, grade).
// For every field present in the survey record: absent-or-empty fields in the
// working record are adopted outright; conflicting values resolve by comparing
// the two sources' effective timestamps and keeping the earlier one.
// Earliest-wins is the system-wide merge law; it never unconditionally prefers
// one source. Equal timestamps resolve toward the form source. A record
// present in only one source passes through flagged single-source, with
// Orphaned set when only the survey side exists.
func Reconcile(form, survey *SourceRecord, subjectID string, grade int) *models.MergedRecord {
	switch {
	case form == nil && survey == nil:
		return nil
	case survey == nil:
		return singleSource(form, subjectID, grade, false)
	case form == nil:
		return singleSource(survey, subjectID, grade, true)
	}

	merged := &models.MergedRecord{
		SubjectID:       subjectID,
		Grade:           grade,
		Answers:         make(models.AnswerMap, len(form.Answers)),
		Sources:         []models.Source{models.SourceForm, models.SourceSurvey},
		FieldProvenance: make(map[string]models.FieldProvenance, len(form.Answers)),
	}
	for field, answer := range form.Answers {
		merged.Answers[field] = answer
	}
	for field, prov := range form.Provenance {
		merged.FieldProvenance[field] = prov
	}

	fields := make([]string, 0, len(survey.Answers))
	for field := range survey.Answers {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		surveyAnswer := survey.Answers[field]
		surveyProv := survey.Provenance[field]
		existing, present := merged.Answers[field]

		if !present || existing.IsEmpty() {
			merged.Answers[field] = surveyAnswer
			merged.FieldProvenance[field] = MergeProvenance(
				merged.FieldProvenance[field], surveyProv,
				models.SourceSurvey, "only source with a value")
			continue
		}

		formValue, _ := existing.Extract()
		surveyValue, _ := surveyAnswer.Extract()
		if formValue == surveyValue {
			merged.FieldProvenance[field] = MergeProvenance(
				merged.FieldProvenance[field], surveyProv,
				models.SourceForm, "sources agree")
			continue
		}

		formTime := fieldTime(form, field)
		surveyTime := fieldTime(survey, field)

		winner := models.SourceForm
		if surveyTime.Before(formTime) {
			winner = models.SourceSurvey
			merged.Answers[field] = surveyAnswer
		}
		reason := fmt.Sprintf("conflict resolved to %s: earlier timestamp %s",
			winner, winnerTime(winner, formTime, surveyTime).Format(time.RFC3339))
		merged.FieldProvenance[field] = MergeProvenance(
			merged.FieldProvenance[field], surveyProv, winner, reason)

		merged.Conflicts = append(merged.Conflicts, models.FieldConflict{
			Field:       field,
			FormValue:   formValue,
			SurveyValue: surveyValue,
			FormTime:    formTime,
			SurveyTime:  surveyTime,
			Chosen:      winner,
		})
	}

	return merged
}

func singleSource(rec *SourceRecord, subjectID string, grade int, orphaned bool) *models.MergedRecord {
	merged := &models.MergedRecord{
		SubjectID:       subjectID,
		Grade:           grade,
		Answers:         make(models.AnswerMap, len(rec.Answers)),
		Sources:         []models.Source{rec.Source},
		Orphaned:        orphaned,
		FieldProvenance: make(map[string]models.FieldProvenance, len(rec.Provenance)),
	}
	for field, answer := range rec.Answers {
		merged.Answers[field] = answer
	}
	for field, prov := range rec.Provenance {
		merged.FieldProvenance[field] = prov
	}
	return merged
}

func fieldTime(rec *SourceRecord, field string) time.Time {
	if t, ok := rec.FieldTimes[field]; ok {
		return t
	}
	return rec.EffectiveTime
}

func winnerTime(winner models.Source, formTime, surveyTime time.Time) time.Time {
	if winner == models.SourceSurvey {
		return surveyTime
	}
	return formTime
}

// Reconciler runs the full merging pipeline: grade-aware grouping, per-source
// chronological collapse, and cross-source reconciliation.
type Reconciler struct {
	resolver GradeResolver
	logger   *zap.Logger
	now      func() time.Time

	crossGradeWarnLimit int
	conflictWarnLimit   int
}

// NewReconciler constructs a Reconciler.
func NewReconciler(resolver GradeResolver, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{resolver: resolver, logger: logger, now: time.Now}
}

// SetWarnLimits caps how many cross-grade and conflict warnings a single Run
// may log. Zero means uncapped. The merged records themselves always carry
// their full warnings and conflicts regardless of the caps.
func (r *Reconciler) SetWarnLimits(crossGrade, conflict int) {
	r.crossGradeWarnLimit = crossGrade
	r.conflictWarnLimit = conflict
}

// Run merges both sources' raw records into canonical per-(subject, grade)
// records, one per distinct pair observed in either source. Output order is
// deterministic: by subject id, then grade.
func (r *Reconciler) Run(form, survey []models.RawRecord) []models.MergedRecord {
	grouped := Group(form, survey, r.resolver, r.logger)

	subjects := make([]string, 0, len(grouped))
	for subjectID := range grouped {
		subjects = append(subjects, subjectID)
	}
	sort.Strings(subjects)

	out := make([]models.MergedRecord, 0, len(grouped))
	crossGradeWarns, conflictWarns := 0, 0
	for _, subjectID := range subjects {
		grades := grouped[subjectID]
		levels := make([]int, 0, len(grades))
		for grade := range grades {
			levels = append(levels, grade)
		}
		sort.Ints(levels)

		crossGrade := len(levels) > 1
		if crossGrade && (r.crossGradeWarnLimit == 0 || crossGradeWarns < r.crossGradeWarnLimit) {
			r.logger.Warn("subject appears at multiple grades, keeping separate records",
				zap.String("subject_id", subjectID),
				zap.Ints("grades", levels))
			crossGradeWarns++
		}
		for _, grade := range levels {
			bucket := grades[grade]
			formRec := MergeIntraSource(bucket.Form, r.now)
			surveyRec := MergeIntraSource(bucket.Survey, r.now)
			merged := Reconcile(formRec, surveyRec, subjectID, grade)
			if merged == nil {
				continue
			}
			if crossGrade {
				merged.Warnings = append(merged.Warnings,
					fmt.Sprintf("subject %s has records at %d grade levels; kept separate", subjectID, len(levels)))
			}
			if len(merged.Conflicts) > 0 && (r.conflictWarnLimit == 0 || conflictWarns < r.conflictWarnLimit) {
				r.logger.Warn("cross-source conflicts resolved by timestamp",
					zap.String("subject_id", subjectID),
					zap.Int("grade", grade),
					zap.Int("conflicts", len(merged.Conflicts)))
				conflictWarns++
			}
			out = append(out, *merged)
		}
	}
	return out
}
