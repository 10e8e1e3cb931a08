package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/telemetry"
)

// ItemWriter defines the repository interface ingestion needs for items
type ItemWriter interface {
	Create(ctx context.Context, item *domain.KnowledgeItem) error
}

// JobQueue defines the repository interface for enqueuing ingest jobs
type JobQueue interface {
	Create(ctx context.Context, job *domain.IngestJob) error
}

// FileStorage defines the interface for persisting original upload bytes
type FileStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// IngestService accepts uploaded documents. It records the item in the
// processing state, stores the original bytes, and queues an ingest job;
// extraction and enrichment happen asynchronously in the worker.
type IngestService struct {
	items   ItemWriter
	jobs    JobQueue
	storage FileStorage
	uuidGen UUIDGenerator
}

// NewIngestService creates a new IngestService instance
func NewIngestService(items ItemWriter, jobs JobQueue, storage FileStorage) *IngestService {
	return &IngestService{items: items, jobs: jobs, storage: storage, uuidGen: &DefaultUUIDGenerator{}}
}

// NewIngestServiceWithUUIDGen creates an IngestService with a custom UUID generator (for testing)
func NewIngestServiceWithUUIDGen(items ItemWriter, jobs JobQueue, storage FileStorage, uuidGen UUIDGenerator) *IngestService {
	return &IngestService{items: items, jobs: jobs, storage: storage, uuidGen: uuidGen}
}

// SubmitInput represents an uploaded document entering the pipeline
type SubmitInput struct {
	WorkspaceID  string
	CollectionID string
	Title        string
	Type         domain.ItemType
	FileName     string
	ContentType  string
	Data         []byte
}

// Submit registers an upload and queues it for processing. The returned
// item is in the processing state; its content, summary, and embedding are
// filled in by the worker.
func (s *IngestService) Submit(ctx context.Context, input SubmitInput) (*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Submit", telemetry.SpanAttributes{
		WorkspaceID:  input.WorkspaceID,
		CollectionID: input.CollectionID,
		Operation:    "submit",
	})
	defer span.End()

	if input.WorkspaceID == "" {
		return nil, domain.ErrMissingWorkspaceID
	}
	if len(input.Data) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "file is empty")
	}

	itemType := input.Type
	if itemType == "" {
		itemType = domain.ItemTypeDocument
	}
	title := input.Title
	if title == "" {
		title = input.FileName
	}

	now := time.Now().UTC()
	itemID := s.uuidGen.NewString()
	storageKey := fmt.Sprintf("%s/%s/%s", input.WorkspaceID, itemID, input.FileName)

	item := &domain.KnowledgeItem{
		ID:           itemID,
		WorkspaceID:  input.WorkspaceID,
		CollectionID: input.CollectionID,
		Type:         itemType,
		Status:       domain.ItemStatusProcessing,
		Title:        title,
		Metadata: map[string]any{
			"file_name":    input.FileName,
			"content_type": input.ContentType,
			"size_bytes":   len(input.Data),
			"storage_key":  storageKey,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := domain.ValidateKnowledgeItem(item); err != nil {
		return nil, err
	}

	if err := s.storage.Upload(ctx, storageKey, input.Data, input.ContentType); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to store original file", err)
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "failed to create knowledge item", err)
	}

	job := &domain.IngestJob{
		ID:        s.uuidGen.NewString(),
		ItemID:    itemID,
		Status:    domain.IngestJobStatusPending,
		CreatedAt: now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "failed to enqueue ingest job", err)
	}

	return item, nil
}
