package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/survey-recon-api/internal/dto"
	"github.com/noah-isme/survey-recon-api/internal/models"
	"github.com/noah-isme/survey-recon-api/internal/validation"
	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
)

type schemaRegistry interface {
	Get(ctx context.Context, taskID string) (*models.TaskDefinition, error)
	CanonicalID(taskID string) (string, bool)
	Tasks() []string
}

type recordMerger interface {
	MergeSubject(ctx context.Context, subjectID string) ([]models.MergedRecord, error)
	MergeRecords(form, survey []models.RawRecord) []models.MergedRecord
}

// ValidationServiceConfig tunes result caching.
type ValidationServiceConfig struct {
	CacheTTL time.Duration
}

type validationMetrics interface {
	ObserveValidationRun(duration time.Duration)
	RecordCacheLookup(hit bool)
	RecordTermination(strategy string)
}

// ValidationService runs the validation engine over merged subject records.
type ValidationService struct {
	registry schemaRegistry
	merger   recordMerger
	engine   *validation.Engine
	cache    resultCache
	logger   *zap.Logger
	cacheTTL time.Duration
	metrics  validationMetrics
}

// SetMetrics attaches an optional instrumentation sink.
func (s *ValidationService) SetMetrics(m validationMetrics) {
	s.metrics = m
}

// NewValidationService constructs a ValidationService.
func NewValidationService(registry schemaRegistry, merger recordMerger, engine *validation.Engine, cache resultCache, logger *zap.Logger, cfg ValidationServiceConfig) *ValidationService {
	if engine == nil {
		engine = validation.NewEngine(validation.Config{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ValidationService{
		registry: registry,
		merger:   merger,
		engine:   engine,
		cache:    cache,
		logger:   logger,
		cacheTTL: ttl,
	}
}

// ValidateSubject merges one subject's stored submissions and validates every
// resulting (subject, grade) record. A subject enrolled at two grades yields
// two independent runs.
func (s *ValidationService) ValidateSubject(ctx context.Context, subjectID string, tasks []string) (*dto.SubjectValidationResponse, error) {
	if subjectID == "" {
		return nil, appErrors.ErrNoSubjectID
	}

	cacheable := len(tasks) == 0 && s.cache != nil
	key := fmt.Sprintf("validation:%s:full", subjectID)
	if cacheable {
		var cached dto.SubjectValidationResponse
		err := s.cache.Get(ctx, key, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(err == nil)
		}
		if err == nil {
			return &cached, nil
		}
	}

	start := time.Now()
	records, err := s.merger.MergeSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SubjectValidationResponse{Runs: make([]*models.ValidationRun, 0, len(records))}
	for i := range records {
		resp.Runs = append(resp.Runs, s.validateRecord(ctx, &records[i], tasks))
	}
	if s.metrics != nil {
		s.metrics.ObserveValidationRun(time.Since(start))
	}

	if cacheable {
		if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
			s.logger.Warn("caching validation run failed", zap.String("subject_id", subjectID), zap.Error(err))
		}
	}
	return resp, nil
}

// ValidateAdHoc merges and validates caller-supplied raw records without
// persisting or caching anything.
func (s *ValidationService) ValidateAdHoc(ctx context.Context, req dto.ValidateRequest) (*dto.SubjectValidationResponse, error) {
	if len(req.Form) == 0 && len(req.Survey) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no records supplied")
	}
	records := s.merger.MergeRecords(req.Form, req.Survey)
	resp := &dto.SubjectValidationResponse{Runs: make([]*models.ValidationRun, 0, len(records))}
	for i := range records {
		resp.Runs = append(resp.Runs, s.validateRecord(ctx, &records[i], req.Tasks))
	}
	return resp, nil
}

func (s *ValidationService) validateRecord(ctx context.Context, record *models.MergedRecord, tasks []string) *models.ValidationRun {
	if len(tasks) == 0 {
		tasks = s.registry.Tasks()
	}

	results := make(map[string]*models.TaskResult, len(tasks))
	for _, taskID := range tasks {
		canonical := taskID
		if id, ok := s.registry.CanonicalID(taskID); ok {
			canonical = id
		}
		if _, done := results[canonical]; done {
			continue
		}

		def, err := s.registry.Get(ctx, canonical)
		if err != nil {
			// a missing schema fails one task, never the whole run
			if appErrors.FromError(err).Code == appErrors.ErrSchemaNotFound.Code {
				s.logger.Warn("task schema missing, marking task failed",
					zap.String("task_id", canonical), zap.String("subject_id", record.SubjectID))
			} else {
				s.logger.Error("schema load failed", zap.String("task_id", canonical), zap.Error(err))
			}
			results[canonical] = validation.MissingSchemaResult(canonical)
			continue
		}
		result := s.engine.ValidateTask(def, canonical, record.Answers)
		if result.Terminated && s.metrics != nil {
			s.metrics.RecordTermination(result.TerminationStrategy)
		}
		results[canonical] = result
	}

	s.combinePairs(results)
	return validation.NewRun(record.SubjectID, record.Grade, results)
}

// combinePairs folds paired timeout tasks into their merged logical result.
// Member results move under the combined entry's sub-results.
func (s *ValidationService) combinePairs(results map[string]*models.TaskResult) {
	done := make(map[string]bool)
	for taskID := range results {
		pair, ok := s.engine.PairFor(taskID)
		if !ok || done[pair.Key] {
			continue
		}
		done[pair.Key] = true

		members := make(map[string]*models.TaskResult, len(pair.Members))
		for _, member := range pair.Members {
			if r, ok := results[member]; ok {
				members[member] = r
			}
		}
		if len(members) == 0 {
			continue
		}
		results[pair.Key] = s.engine.CombinePair(pair, members)
		for member := range members {
			delete(results, member)
		}
	}
}
