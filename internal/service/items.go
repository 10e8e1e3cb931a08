package service

import (
	"context"

	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/pagination"
	"github.com/vantagehq/vantage/internal/telemetry"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ItemService handles reads of knowledge items outside of similarity search
type ItemService struct {
	repo ItemReader
}

// NewItemService creates a new ItemService instance
func NewItemService(repo ItemReader) *ItemService {
	return &ItemService{repo: repo}
}

// Get retrieves one item, scoped to the caller's workspace
func (s *ItemService) Get(ctx context.Context, id, workspaceID string) (*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ItemService.Get", telemetry.SpanAttributes{
		WorkspaceID: workspaceID,
		ItemID:      id,
		Operation:   "get",
	})
	defer span.End()

	return s.repo.GetByIDForWorkspace(ctx, id, workspaceID)
}

// List returns a page of a workspace's items, newest first
func (s *ItemService) List(ctx context.Context, input ListItemsInput) (*ListItemsOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "ItemService.List", telemetry.SpanAttributes{
		WorkspaceID: input.WorkspaceID,
		Operation:   "list",
	})
	defer span.End()

	if input.WorkspaceID == "" {
		return nil, domain.ErrMissingWorkspaceID
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var cursor *pagination.Cursor
	if input.Cursor != "" {
		parsed, err := pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid cursor")
		}
		cursor = parsed
	}

	page, err := s.repo.ListByWorkspaceWithCursor(ctx, input.WorkspaceID, cursor, limit)
	if err != nil {
		return nil, err
	}
	return &ListItemsOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}
