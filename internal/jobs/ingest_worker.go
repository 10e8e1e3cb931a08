package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/service"
)

const (
	// MaxRetries is the maximum number of attempts for a failed job
	MaxRetries = 3

	claimBatchSize = 20
)

// IngestJobRepository defines the interface for ingest job persistence
type IngestJobRepository interface {
	// ClaimPending atomically claims up to limit pending jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error)

	// UpdateStatus moves a job to a new status
	UpdateStatus(ctx context.Context, id string, status domain.IngestJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error

	// Requeue puts a claimed job back to pending with an error note
	Requeue(ctx context.Context, id string, errMsg string) error
}

// ItemRepository defines the item persistence the worker needs
type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error)
	UpdateProcessed(ctx context.Context, id string, content, summary string, keywords []string, embedding []float32, metadata map[string]any) error
	MarkFailed(ctx context.Context, id, reason string) error
}

// Processor defines the document processing step
type Processor interface {
	ProcessDocument(ctx context.Context, file service.FileInput, opts service.ProcessOptions) (*service.ProcessedDocument, error)
}

// FileFetcher retrieves the original upload bytes
type FileFetcher interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// IngestWorker drains the ingest queue: it downloads the original file,
// runs extraction and enrichment, persists the results, and registers the
// embedding in the vector index.
type IngestWorker struct {
	jobs      IngestJobRepository
	items     ItemRepository
	processor Processor
	storage   FileFetcher
	index     service.IndexStore
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(jobs IngestJobRepository, items ItemRepository, processor Processor, storage FileFetcher, index service.IndexStore) *IngestWorker {
	return &IngestWorker{
		jobs:      jobs,
		items:     items,
		processor: processor,
		storage:   storage,
		index:     index,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.jobs.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending ingest jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}
	return nil
}

func (w *IngestWorker) processJob(ctx context.Context, job *domain.IngestJob) error {
	item, err := w.items.GetByID(ctx, job.ItemID)
	if err != nil {
		// An item deleted between submit and processing is not retryable.
		return w.failPermanently(ctx, job, fmt.Sprintf("item lookup failed: %v", err))
	}

	doc, err := w.runProcessor(ctx, item)
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	meta := map[string]any{
		"word_count":    doc.WordCount,
		"processing_ms": doc.ProcessingTime.Milliseconds(),
		"model":         doc.Model,
	}
	if len(doc.Degraded) > 0 {
		meta["degraded"] = doc.Degraded
	}

	if err := w.items.UpdateProcessed(ctx, item.ID, doc.Content, doc.Summary, doc.Keywords, doc.Embedding, meta); err != nil {
		return w.handleJobFailure(ctx, job, fmt.Errorf("failed to persist processed item: %w", err))
	}

	if len(doc.Embedding) > 0 {
		if err := w.index.Upsert(ctx, service.IndexRecord{
			ID:           item.ID,
			Vector:       doc.Embedding,
			WorkspaceID:  item.WorkspaceID,
			CollectionID: item.CollectionID,
			Type:         string(item.Type),
			Title:        item.Title,
			Status:       string(domain.ItemStatusReady),
		}); err != nil {
			// The item is already ready and reachable through fallback.
			log.Printf("Vector index upsert failed for item %s: %v", item.ID, err)
		}
	}

	if err := w.jobs.UpdateStatus(ctx, job.ID, domain.IngestJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed for item %s", job.ID, item.ID)
	return nil
}

func (w *IngestWorker) runProcessor(ctx context.Context, item *domain.KnowledgeItem) (*service.ProcessedDocument, error) {
	storageKey, _ := item.Metadata["storage_key"].(string)
	if storageKey == "" {
		return nil, fmt.Errorf("item %s has no storage key", item.ID)
	}
	fileName, _ := item.Metadata["file_name"].(string)
	contentType, _ := item.Metadata["content_type"].(string)

	data, err := w.storage.Download(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download original file: %w", err)
	}

	return w.processor.ProcessDocument(ctx, service.FileInput{
		Name:        fileName,
		ContentType: contentType,
		Data:        data,
	}, service.DefaultProcessOptions())
}

// handleJobFailure requeues the job until MaxRetries, then marks the job
// and its item failed.
func (w *IngestWorker) handleJobFailure(ctx context.Context, job *domain.IngestJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.jobs.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		return w.failPermanently(ctx, job, fmt.Sprintf("max retries exceeded: %v", jobErr))
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	if err := w.jobs.Requeue(ctx, job.ID, fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)); err != nil {
		return fmt.Errorf("failed to requeue job: %w", err)
	}
	return nil
}

func (w *IngestWorker) failPermanently(ctx context.Context, job *domain.IngestJob, reason string) error {
	if err := w.items.MarkFailed(ctx, job.ItemID, reason); err != nil {
		log.Printf("Failed to mark item %s failed: %v", job.ItemID, err)
	}
	if err := w.jobs.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, reason); err != nil {
		return fmt.Errorf("failed to update job status to failed: %w", err)
	}
	return nil
}
