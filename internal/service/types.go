package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/pagination"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// CompletionClient defines the interface for chat completions used by enrichment
type CompletionClient interface {
	Complete(ctx context.Context, system, user string, temperature float32) (string, error)
	Model() string
}

// IndexRecord is the payload written to the vector index for one item
type IndexRecord struct {
	ID           string
	Vector       []float32
	WorkspaceID  string
	CollectionID string
	Type         string
	Title        string
	Status       string
}

// IndexCandidate is a scored hit returned by the vector index. It carries
// only the id and score that matter for hydration; any metadata the index
// returns is advisory and never trusted for workspace scoping.
type IndexCandidate struct {
	ID    string
	Score float32
}

// IndexQuery scopes a vector index query
type IndexQuery struct {
	WorkspaceID  string
	CollectionID string
	TopK         int
}

// IndexStore defines the interface for the approximate vector index.
// The index is an accelerator: callers must survive its failure.
type IndexStore interface {
	Query(ctx context.Context, vector []float32, q IndexQuery) ([]IndexCandidate, error)
	Upsert(ctx context.Context, rec IndexRecord) error
	Delete(ctx context.Context, id string) error
}

// RecordStore defines the relational interface retrieval depends on.
// It is the source of truth for existence and workspace ownership.
type RecordStore interface {
	Create(ctx context.Context, item *domain.KnowledgeItem) error
	GetManyForWorkspace(ctx context.Context, ids []string, workspaceID string) ([]*domain.KnowledgeItem, error)
	ListReadyForWorkspace(ctx context.Context, workspaceID, collectionID string, limit int) ([]*domain.KnowledgeItem, error)
	Delete(ctx context.Context, id, workspaceID string) error
}

// ItemReader defines the repository interface for item reads outside of search
type ItemReader interface {
	GetByIDForWorkspace(ctx context.Context, id, workspaceID string) (*domain.KnowledgeItem, error)
	ListByWorkspaceWithCursor(ctx context.Context, workspaceID string, cursor *pagination.Cursor, limit int) (*ItemPageResult, error)
}

type ItemPageResult struct {
	Items      []*domain.KnowledgeItem
	NextCursor string
	HasMore    bool
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// SearchInput represents a retrieval query scoped to one workspace
type SearchInput struct {
	WorkspaceID  string
	CollectionID string
	Query        string
	Limit        int
	Threshold    float32
}

// SearchResult pairs a hydrated item with its relevance score
type SearchResult struct {
	Item    *domain.KnowledgeItem
	Score   float32
	Snippet string
}

// RAGContext is a prompt-ready bundle of retrieved knowledge
type RAGContext struct {
	Results []*SearchResult
	Summary string
}

// StoreInput represents the input for storing a knowledge item
type StoreInput struct {
	WorkspaceID  string
	CollectionID string
	Type         domain.ItemType
	Title        string
	Content      string
	Summary      string
	Tags         []string
	Metadata     map[string]any
	Embedding    []float32
}

type ListItemsInput struct {
	WorkspaceID string
	Cursor      string
	Limit       int
}

type ListItemsOutput struct {
	Items   []*domain.KnowledgeItem
	Cursor  string
	HasMore bool
}
