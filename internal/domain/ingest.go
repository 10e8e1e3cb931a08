package domain

import (
	"fmt"
	"time"
)

// IngestJobStatus represents the status of a document ingest job
type IngestJobStatus string

const (
	IngestJobStatusPending    IngestJobStatus = "pending"
	IngestJobStatusProcessing IngestJobStatus = "processing"
	IngestJobStatusCompleted  IngestJobStatus = "completed"
	IngestJobStatusFailed     IngestJobStatus = "failed"
)

// IngestJob represents an async document processing job. Each job owns the
// processing -> ready/failed transition of exactly one knowledge item.
type IngestJob struct {
	ID          string
	ItemID      string
	Status      IngestJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewIngestJob creates a new IngestJob instance
func NewIngestJob(id, itemID string, status IngestJobStatus, createdAt time.Time) *IngestJob {
	return &IngestJob{
		ID:        id,
		ItemID:    itemID,
		Status:    status,
		Retries:   0,
		Error:     "",
		CreatedAt: createdAt,
	}
}

// ValidateIngestJob validates an IngestJob instance
func ValidateIngestJob(j *IngestJob) error {
	if j == nil {
		return fmt.Errorf("ingest job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("ingest job ID is required")
	}

	if j.ItemID == "" {
		return fmt.Errorf("ingest job ItemID is required")
	}

	if !isValidIngestJobStatus(j.Status) {
		return fmt.Errorf("ingest job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("ingest job Retries cannot be negative")
	}

	return nil
}

// isValidIngestJobStatus checks if an IngestJobStatus is valid
func isValidIngestJobStatus(s IngestJobStatus) bool {
	switch s {
	case IngestJobStatusPending, IngestJobStatusProcessing,
		IngestJobStatusCompleted, IngestJobStatusFailed:
		return true
	}
	return false
}
