package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/survey-recon-api/internal/models"
	"github.com/noah-isme/survey-recon-api/internal/reconcile"
	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
)

type submissionReader interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Submission, error)
	ListAll(ctx context.Context) ([]models.Submission, error)
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidateSubject(ctx context.Context, subjectID string) error
}

// ReconcileServiceConfig tunes caching behaviour.
type ReconcileServiceConfig struct {
	CacheTTL time.Duration
}

type reconcileMetrics interface {
	ObserveReconcile(merged, conflicts, orphans int)
}

// ReconcileService merges stored submissions into canonical records. Merges
// are recomputed from the raw rows on every cache miss; nothing merged is ever
// written back to the submission store.
type ReconcileService struct {
	subs       submissionReader
	cache      resultCache
	reconciler *reconcile.Reconciler
	logger     *zap.Logger
	cacheTTL   time.Duration
	metrics    reconcileMetrics
}

// SetMetrics attaches an optional instrumentation sink.
func (s *ReconcileService) SetMetrics(m reconcileMetrics) {
	s.metrics = m
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(subs submissionReader, cache resultCache, reconciler *reconcile.Reconciler, logger *zap.Logger, cfg ReconcileServiceConfig) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ReconcileService{
		subs:       subs,
		cache:      cache,
		reconciler: reconciler,
		logger:     logger,
		cacheTTL:   ttl,
	}
}

// MergeSubject reconciles every stored submission for one subject.
func (s *ReconcileService) MergeSubject(ctx context.Context, subjectID string) ([]models.MergedRecord, error) {
	if subjectID == "" {
		return nil, appErrors.ErrNoSubjectID
	}

	key := "merged:" + subjectID
	if s.cache != nil {
		var cached []models.MergedRecord
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	subs, err := s.subs.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no submissions for subject "+subjectID)
	}

	merged := s.merge(subs)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, merged, s.cacheTTL); err != nil {
			s.logger.Warn("caching merged records failed", zap.String("subject_id", subjectID), zap.Error(err))
		}
	}
	return merged, nil
}

// MergeAll reconciles the entire submission store in one pass.
func (s *ReconcileService) MergeAll(ctx context.Context) ([]models.MergedRecord, error) {
	subs, err := s.subs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.merge(subs), nil
}

// MergeRecords reconciles caller-supplied raw records without touching the
// store. Backs the ad-hoc validation endpoint.
func (s *ReconcileService) MergeRecords(form, survey []models.RawRecord) []models.MergedRecord {
	return s.reconciler.Run(form, survey)
}

func (s *ReconcileService) merge(subs []models.Submission) []models.MergedRecord {
	form := make([]models.RawRecord, 0, len(subs))
	survey := make([]models.RawRecord, 0, len(subs))
	for i := range subs {
		rec, err := subs[i].ToRawRecord()
		if err != nil {
			s.logger.Warn("skipping undecodable submission",
				zap.String("submission_id", subs[i].ID), zap.Error(err))
			continue
		}
		switch rec.Source {
		case models.SourceSurvey:
			survey = append(survey, rec)
		default:
			form = append(form, rec)
		}
	}
	merged := s.reconciler.Run(form, survey)
	if s.metrics != nil {
		conflicts, orphans := 0, 0
		for i := range merged {
			conflicts += len(merged[i].Conflicts)
			if merged[i].Orphaned {
				orphans++
			}
		}
		s.metrics.ObserveReconcile(len(merged), conflicts, orphans)
	}
	return merged
}
