package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/survey-recon-api/internal/dto"
	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
	"github.com/noah-isme/survey-recon-api/pkg/export"
	"github.com/noah-isme/survey-recon-api/pkg/jobs"
)

type subjectValidator interface {
	ValidateSubject(ctx context.Context, subjectID string, tasks []string) (*dto.SubjectValidationResponse, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportServiceConfig tunes report generation.
type ReportServiceConfig struct {
	Enabled         bool
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

type reportJob struct {
	id       string
	request  dto.ReportRequest
	status   dto.ReportStatus
	path     string
	errorMsg string
}

// ReportService renders validation results into downloadable CSV/PDF files.
// Generation runs on a background queue; job state is in-memory only, reports
// are recomputable artifacts rather than records.
type ReportService struct {
	validator subjectValidator
	storage   reportStorage
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	cfg       ReportServiceConfig

	queue *jobs.Queue

	stopOnce sync.Once
	done     chan struct{}

	mu   sync.RWMutex
	jobs map[string]*reportJob
}

// NewReportService constructs a ReportService and its backing queue. Call
// Start before enqueueing.
func NewReportService(validator subjectValidator, storage reportStorage, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	s := &ReportService{
		validator: validator,
		storage:   storage,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
		cfg:       cfg,
		done:      make(chan struct{}),
		jobs:      make(map[string]*reportJob),
	}
	s.queue = jobs.NewQueue("reports", s.handle, jobs.QueueConfig{
		Workers:    2,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers and the retention sweep.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	if s.cfg.Enabled && s.storage != nil {
		go s.cleanupLoop(ctx)
	}
}

// Stop drains the queue workers and ends the retention sweep.
func (s *ReportService) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.queue.Stop()
}

func (s *ReportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

// Enqueue schedules report generation and returns the job handle.
func (s *ReportService) Enqueue(ctx context.Context, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.ErrReportDisabled
	}
	if req.SubjectID == "" {
		return nil, appErrors.ErrNoSubjectID
	}
	if req.Format != dto.ReportFormatCSV && req.Format != dto.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be CSV or PDF")
	}

	job := &reportJob{
		id:      uuid.NewString(),
		request: req,
		status:  dto.ReportStatusQueued,
	}
	s.mu.Lock()
	s.jobs[job.id] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.id, Type: "report", Payload: req}); err != nil {
		s.mu.Lock()
		delete(s.jobs, job.id)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "report queue unavailable")
	}

	return &dto.ReportJobResponse{ID: job.id, Status: job.status}, nil
}

// Status reports the current state of a report job.
func (s *ReportService) Status(jobID string) (*dto.ReportStatusResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}

	resp := &dto.ReportStatusResponse{
		ID:       job.id,
		Status:   job.status,
		Format:   job.request.Format,
		Subject:  job.request.SubjectID,
		Grade:    job.request.Grade,
		Finished: job.status == dto.ReportStatusCompleted || job.status == dto.ReportStatusFailed,
	}
	if job.path != "" {
		path := job.path
		resp.Path = &path
	}
	if job.errorMsg != "" {
		msg := job.errorMsg
		resp.Error = &msg
	}
	return resp, nil
}

// Download opens the rendered file of a completed job.
func (s *ReportService) Download(jobID string) (*os.File, dto.ReportFormat, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	var (
		status dto.ReportStatus
		path   string
		format dto.ReportFormat
	)
	if ok {
		status, path, format = job.status, job.path, job.request.Format
	}
	s.mu.RUnlock()

	if !ok {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	if status != dto.ReportStatusCompleted || path == "" {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report is not ready")
	}

	file, err := s.storage.Open(path)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file missing")
	}
	return file, format, nil
}

// Cleanup removes rendered files past their retention window.
func (s *ReportService) Cleanup() {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(deleted)))
	}
}

func (s *ReportService) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.ReportRequest)
	if !ok {
		return fmt.Errorf("report job %s has unexpected payload %T", job.ID, job.Payload)
	}

	s.setStatus(job.ID, dto.ReportStatusRunning, "", "")

	result, err := s.validator.ValidateSubject(ctx, req.SubjectID, nil)
	if err != nil {
		s.setStatus(job.ID, dto.ReportStatusFailed, "", err.Error())
		return err
	}

	dataset := buildReportDataset(result, req.Grade)
	title := fmt.Sprintf("Validation report %s", req.SubjectID)

	var payload []byte
	switch req.Format {
	case dto.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case dto.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", req.Format)
	}
	if err != nil {
		s.setStatus(job.ID, dto.ReportStatusFailed, "", err.Error())
		return err
	}

	filename := fmt.Sprintf("%s_%s.%s", req.SubjectID, job.ID, strings.ToLower(string(req.Format)))
	path, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setStatus(job.ID, dto.ReportStatusFailed, "", err.Error())
		return err
	}

	s.setStatus(job.ID, dto.ReportStatusCompleted, path, "")
	return nil
}

func (s *ReportService) setStatus(jobID string, status dto.ReportStatus, path, errorMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.status = status
	if path != "" {
		job.path = path
	}
	if errorMsg != "" {
		job.errorMsg = errorMsg
	}
}

var reportHeaders = []string{
	"subject", "grade", "task", "total", "answered", "correct",
	"percent_correct", "terminated", "termination_index", "timeout_state", "data_quality_flag",
}

// buildReportDataset flattens validation runs into one row per task. A grade
// of 0 includes every run; otherwise only the matching grade is exported.
func buildReportDataset(result *dto.SubjectValidationResponse, grade int) export.Dataset {
	dataset := export.Dataset{Headers: reportHeaders}
	for _, run := range result.Runs {
		if grade != 0 && run.Grade != grade {
			continue
		}
		taskIDs := make([]string, 0, len(run.Tasks))
		for id := range run.Tasks {
			taskIDs = append(taskIDs, id)
		}
		sort.Strings(taskIDs)

		for _, id := range taskIDs {
			task := run.Tasks[id]
			dataset.Rows = append(dataset.Rows, map[string]string{
				"subject":           run.SubjectID,
				"grade":             fmt.Sprintf("%d", run.Grade),
				"task":              task.TaskID,
				"total":             fmt.Sprintf("%d", task.TotalQuestions),
				"answered":          fmt.Sprintf("%d", task.AnsweredQuestions),
				"correct":           fmt.Sprintf("%d", task.CorrectQuestions),
				"percent_correct":   fmt.Sprintf("%.1f", task.PercentCorrect),
				"terminated":        fmt.Sprintf("%t", task.Terminated),
				"termination_index": fmt.Sprintf("%d", task.TerminationIndex),
				"timeout_state":     string(task.TimeoutState),
				"data_quality_flag": fmt.Sprintf("%t", task.HasTerminationMismatch || task.HasPostTerminationAnswers),
			})
		}
	}
	return dataset
}
