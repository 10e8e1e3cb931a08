package service

import (
	"context"
	"time"

	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/telemetry"
)

// CollectionRepositoryInterface defines the repository interface for collection persistence
type CollectionRepositoryInterface interface {
	Create(ctx context.Context, c *domain.Collection) error
	GetByIDForWorkspace(ctx context.Context, id, workspaceID string) (*domain.Collection, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Collection, error)
	NamesByWorkspace(ctx context.Context, workspaceID string) ([]string, error)
}

// CollectionService handles business logic for collections
type CollectionService struct {
	repo    CollectionRepositoryInterface
	uuidGen UUIDGenerator
}

// NewCollectionService creates a new CollectionService instance
func NewCollectionService(repo CollectionRepositoryInterface) *CollectionService {
	return &CollectionService{repo: repo, uuidGen: &DefaultUUIDGenerator{}}
}

// NewCollectionServiceWithUUIDGen creates a CollectionService with a custom UUID generator (for testing)
func NewCollectionServiceWithUUIDGen(repo CollectionRepositoryInterface, uuidGen UUIDGenerator) *CollectionService {
	return &CollectionService{repo: repo, uuidGen: uuidGen}
}

// CreateCollectionInput represents the input for creating a collection
type CreateCollectionInput struct {
	WorkspaceID string
	Name        string
	Description string
}

// Create creates a new collection in a workspace
func (s *CollectionService) Create(ctx context.Context, input CreateCollectionInput) (*domain.Collection, error) {
	ctx, span := telemetry.StartSpan(ctx, "CollectionService.Create", telemetry.SpanAttributes{
		WorkspaceID: input.WorkspaceID,
		Operation:   "create_collection",
	})
	defer span.End()

	now := time.Now().UTC()
	collection := &domain.Collection{
		ID:          s.uuidGen.NewString(),
		WorkspaceID: input.WorkspaceID,
		Name:        input.Name,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := domain.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// Get retrieves one collection scoped to a workspace
func (s *CollectionService) Get(ctx context.Context, id, workspaceID string) (*domain.Collection, error) {
	return s.repo.GetByIDForWorkspace(ctx, id, workspaceID)
}

// List returns all collections in a workspace
func (s *CollectionService) List(ctx context.Context, workspaceID string) ([]*domain.Collection, error) {
	if workspaceID == "" {
		return nil, domain.ErrMissingWorkspaceID
	}
	return s.repo.ListByWorkspace(ctx, workspaceID)
}

// Names returns the collection names in a workspace, used to seed
// category suggestion prompts
func (s *CollectionService) Names(ctx context.Context, workspaceID string) ([]string, error) {
	return s.repo.NamesByWorkspace(ctx, workspaceID)
}
