package dto

import "github.com/noah-isme/survey-recon-api/internal/models"

// IngestSubmissionRequest captures POST /submissions payload.
type IngestSubmissionRequest struct {
	SubjectID  string           `json:"subjectId" validate:"required"`
	ExternalID string           `json:"externalId" validate:"required"`
	Source     models.Source    `json:"source" validate:"required,oneof=source-a source-b"`
	SessionKey string           `json:"sessionKey,omitempty"`
	CreatedAt  string           `json:"createdAt,omitempty"`
	Answers    models.AnswerMap `json:"answers" validate:"required"`
}

// SubmissionListResponse wraps a paginated submission listing.
type SubmissionListResponse struct {
	Items []models.Submission `json:"items"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
}
