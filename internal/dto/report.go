package dto

// ReportFormat selects the rendered output type.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "CSV"
	ReportFormatPDF ReportFormat = "PDF"
)

// ReportStatus tracks an async report job through its lifecycle.
type ReportStatus string

const (
	ReportStatusQueued    ReportStatus = "QUEUED"
	ReportStatusRunning   ReportStatus = "RUNNING"
	ReportStatusCompleted ReportStatus = "COMPLETED"
	ReportStatusFailed    ReportStatus = "FAILED"
)

// ReportRequest captures POST /reports payload.
type ReportRequest struct {
	SubjectID string       `json:"subjectId,omitempty"`
	Grade     int          `json:"grade,omitempty"`
	Format    ReportFormat `json:"format" validate:"required,oneof=CSV PDF"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID     string       `json:"id"`
	Status ReportStatus `json:"status"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID       string       `json:"id"`
	Status   ReportStatus `json:"status"`
	Path     *string      `json:"path,omitempty"`
	Error    *string      `json:"error,omitempty"`
	Format   ReportFormat `json:"format"`
	Subject  string       `json:"subjectId,omitempty"`
	Grade    int          `json:"grade,omitempty"`
	Finished bool         `json:"finished"`
}
