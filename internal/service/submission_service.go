package service

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/survey-recon-api/internal/dto"
	"github.com/noah-isme/survey-recon-api/internal/models"
	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
)

type submissionRepository interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	Create(ctx context.Context, sub *models.Submission) error
	Delete(ctx context.Context, id string) error
}

type submissionInvalidator interface {
	InvalidateSubject(ctx context.Context, subjectID string) error
}

// SubmissionService handles ingestion and listing of raw submissions.
type SubmissionService struct {
	repo      submissionRepository
	cache     submissionInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(repo submissionRepository, cache submissionInvalidator, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Ingest stores one raw submission and invalidates derived caches for its
// subject. Timestamps default to now when the upstream payload omits them.
func (s *SubmissionService) Ingest(ctx context.Context, req dto.IngestSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload")
	}

	createdAt := time.Now().UTC()
	if req.CreatedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.CreatedAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "createdAt must be RFC3339")
		}
		createdAt = parsed.UTC()
	}

	sub, err := models.NewSubmission(models.RawRecord{
		SubjectID:  req.SubjectID,
		ExternalID: req.ExternalID,
		Source:     req.Source,
		SessionKey: req.SessionKey,
		CreatedAt:  createdAt,
		Answers:    req.Answers,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answers payload")
	}

	if err := s.repo.Create(ctx, &sub); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateSubject(ctx, sub.SubjectID); err != nil {
			s.logger.Warn("cache invalidation failed after ingest",
				zap.String("subject_id", sub.SubjectID), zap.Error(err))
		}
	}
	return &sub, nil
}

// List returns a submission page for the given filter.
func (s *SubmissionService) List(ctx context.Context, filter models.SubmissionFilter) (*dto.SubmissionListResponse, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	if items == nil {
		items = []models.Submission{}
	}
	return &dto.SubmissionListResponse{Items: items, Total: total, Page: page}, nil
}

// Delete removes one submission and invalidates the subject's derived caches.
func (s *SubmissionService) Delete(ctx context.Context, id, subjectID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil && subjectID != "" {
		if err := s.cache.InvalidateSubject(ctx, subjectID); err != nil {
			s.logger.Warn("cache invalidation failed after delete",
				zap.String("subject_id", subjectID), zap.Error(err))
		}
	}
	return nil
}
