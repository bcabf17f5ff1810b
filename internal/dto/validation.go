package dto

import "github.com/noah-isme/survey-recon-api/internal/models"

// ValidateRequest captures POST /validate payload: ad-hoc raw records to run
// through the full merge-and-validate pipeline without persisting anything.
type ValidateRequest struct {
	Form   []models.RawRecord `json:"form"`
	Survey []models.RawRecord `json:"survey"`
	Tasks  []string           `json:"tasks,omitempty"`
}

// SubjectValidationResponse is the validation output for one stored subject.
type SubjectValidationResponse struct {
	Runs []*models.ValidationRun `json:"runs"`
}

// ReconcileRequest optionally carries ad-hoc raw records for POST /reconcile.
// With an empty body the endpoint reconciles every stored subject instead.
type ReconcileRequest struct {
	Form   []models.RawRecord `json:"form"`
	Survey []models.RawRecord `json:"survey"`
}

// ReconcileResponse returns the merged records for a reconciliation pass.
type ReconcileResponse struct {
	Records []models.MergedRecord `json:"records"`
	Total   int                   `json:"total"`
}
