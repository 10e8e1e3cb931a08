package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/telemetry"
)

const (
	// DefaultSearchLimit is the number of results returned when the caller
	// does not ask for a specific limit.
	DefaultSearchLimit = 10
	// MaxSearchLimit caps the number of results a single query may return.
	MaxSearchLimit = 50
	// DefaultSearchThreshold is the minimum similarity score a result must
	// reach to be returned.
	DefaultSearchThreshold = 0.7

	// candidateMultiplier over-fetches from the index so that candidates
	// lost to hydration (deleted rows, threshold misses) still leave enough
	// survivors to fill the requested limit.
	candidateMultiplier = 3

	contextLimit        = 5
	contextThreshold    = 0.6
	snippetMaxChars     = 200
	summarySnippetChars = 150
)

// RetrievalService answers similarity queries over a workspace's knowledge
// items. The vector index is used as an accelerator only: every candidate is
// re-validated against the relational store, which is the sole authority on
// existence and workspace ownership.
type RetrievalService struct {
	embedding EmbeddingClient
	index     IndexStore
	records   RecordStore
	uuidGen   UUIDGenerator
}

// NewRetrievalService creates a new RetrievalService instance
func NewRetrievalService(embedding EmbeddingClient, index IndexStore, records RecordStore) *RetrievalService {
	return &RetrievalService{
		embedding: embedding,
		index:     index,
		records:   records,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// NewRetrievalServiceWithUUIDGen creates a RetrievalService with a custom UUID generator (for testing)
func NewRetrievalServiceWithUUIDGen(embedding EmbeddingClient, index IndexStore, records RecordStore, uuidGen UUIDGenerator) *RetrievalService {
	return &RetrievalService{
		embedding: embedding,
		index:     index,
		records:   records,
		uuidGen:   uuidGen,
	}
}

// SearchDocuments runs a similarity search scoped to a single workspace.
// It embeds the query, asks the vector index for candidates, hydrates them
// from the relational store, and falls back to a relational scan with local
// cosine scoring when the index is unavailable. The returned slice is never
// nil and is sorted by score descending.
func (s *RetrievalService) SearchDocuments(ctx context.Context, input SearchInput) ([]*SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.SearchDocuments", telemetry.SpanAttributes{
		WorkspaceID:  input.WorkspaceID,
		CollectionID: input.CollectionID,
		Operation:    "search",
	})
	defer span.End()

	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if input.WorkspaceID == "" {
		return nil, domain.ErrMissingWorkspaceID
	}

	limit := normalizeLimit(input.Limit)
	threshold := normalizeThreshold(input.Threshold)

	queryVec, err := s.embedding.GenerateEmbedding(ctx, input.Query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingUnavailable, "failed to embed query", err)
	}

	results, err := s.searchIndex(ctx, queryVec, input, limit, threshold)
	if err != nil {
		log.Printf("vector index query failed, falling back to relational scan: %v", err)
		telemetry.CaptureError(ctx, err)
		results, err = s.searchFallback(ctx, queryVec, input, limit, threshold)
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *RetrievalService) searchIndex(ctx context.Context, queryVec []float32, input SearchInput, limit int, threshold float32) ([]*SearchResult, error) {
	candidates, err := s.index.Query(ctx, queryVec, IndexQuery{
		WorkspaceID:  input.WorkspaceID,
		CollectionID: input.CollectionID,
		TopK:         limit * candidateMultiplier,
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []*SearchResult{}, nil
	}

	ids := make([]string, 0, len(candidates))
	scores := make(map[string]float32, len(candidates))
	for _, c := range candidates {
		if _, seen := scores[c.ID]; seen {
			continue
		}
		ids = append(ids, c.ID)
		scores[c.ID] = c.Score
	}

	// Hydration is workspace-scoped: candidates whose rows were deleted, or
	// that the index misattributed to this workspace, simply do not come back.
	items, err := s.records.GetManyForWorkspace(ctx, ids, input.WorkspaceID)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "failed to hydrate search candidates", err)
	}

	results := make([]*SearchResult, 0, len(items))
	for _, item := range items {
		if input.CollectionID != "" && item.CollectionID != input.CollectionID {
			continue
		}
		score := scores[item.ID]
		if score < threshold {
			continue
		}
		results = append(results, &SearchResult{
			Item:    item,
			Score:   score,
			Snippet: makeSnippet(item.Content, input.Query),
		})
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// searchFallback ranks ready items by locally computed cosine similarity.
// Items without a stored embedding cannot be scored and are skipped.
func (s *RetrievalService) searchFallback(ctx context.Context, queryVec []float32, input SearchInput, limit int, threshold float32) ([]*SearchResult, error) {
	items, err := s.records.ListReadyForWorkspace(ctx, input.WorkspaceID, input.CollectionID, limit*candidateMultiplier)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "fallback scan failed", err)
	}

	results := make([]*SearchResult, 0, len(items))
	for _, item := range items {
		if len(item.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(queryVec, item.Embedding)
		if score < threshold {
			continue
		}
		results = append(results, &SearchResult{
			Item:    item,
			Score:   score,
			Snippet: makeSnippet(item.Content, input.Query),
		})
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// StoreKnowledgeItem persists an item and registers it in the vector index.
// The relational write is authoritative: an index failure after a successful
// insert is logged and swallowed, leaving the item reachable via fallback.
func (s *RetrievalService) StoreKnowledgeItem(ctx context.Context, input StoreInput) (*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.StoreKnowledgeItem", telemetry.SpanAttributes{
		WorkspaceID:  input.WorkspaceID,
		CollectionID: input.CollectionID,
		Operation:    "store",
	})
	defer span.End()

	embedding := input.Embedding
	if len(embedding) == 0 {
		var err error
		embedding, err = s.embedding.GenerateEmbedding(ctx, TruncateForModel(input.Content, EmbeddingInputMaxChars))
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingUnavailable, "failed to embed content", err)
		}
	}

	now := time.Now().UTC()
	item := &domain.KnowledgeItem{
		ID:           s.uuidGen.NewString(),
		WorkspaceID:  input.WorkspaceID,
		CollectionID: input.CollectionID,
		Type:         input.Type,
		Status:       domain.ItemStatusReady,
		Title:        input.Title,
		Content:      input.Content,
		Summary:      input.Summary,
		Embedding:    embedding,
		Tags:         input.Tags,
		Metadata:     input.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := domain.ValidateKnowledgeItem(item); err != nil {
		return nil, err
	}

	if err := s.records.Create(ctx, item); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "failed to store knowledge item", err)
	}

	if err := s.index.Upsert(ctx, IndexRecord{
		ID:           item.ID,
		Vector:       embedding,
		WorkspaceID:  item.WorkspaceID,
		CollectionID: item.CollectionID,
		Type:         string(item.Type),
		Title:        item.Title,
		Status:       string(item.Status),
	}); err != nil {
		log.Printf("vector index upsert failed for item %s: %v", item.ID, err)
		telemetry.CaptureError(ctx, err)
	}

	return item, nil
}

// DeleteKnowledgeItem removes an item from the relational store and the
// vector index. It is idempotent: deleting an absent item succeeds.
func (s *RetrievalService) DeleteKnowledgeItem(ctx context.Context, id, workspaceID string) error {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.DeleteKnowledgeItem", telemetry.SpanAttributes{
		WorkspaceID: workspaceID,
		ItemID:      id,
		Operation:   "delete",
	})
	defer span.End()

	if err := s.records.Delete(ctx, id, workspaceID); err != nil && !errors.Is(err, domain.ErrItemNotFound) {
		return domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "failed to delete knowledge item", err)
	}

	if err := s.index.Delete(ctx, id); err != nil {
		// The row is gone, which is what workspace scoping depends on.
		// A stale index point can never be hydrated back.
		log.Printf("vector index delete failed for item %s: %v", id, err)
		telemetry.CaptureError(ctx, err)
	}
	return nil
}

// GetRAGContext retrieves prompt-ready context for a query. It uses a lower
// threshold and a smaller limit than plain search and fabricates a compact
// textual summary from the winning items.
func (s *RetrievalService) GetRAGContext(ctx context.Context, workspaceID, collectionID, query string) (*RAGContext, error) {
	results, err := s.SearchDocuments(ctx, SearchInput{
		WorkspaceID:  workspaceID,
		CollectionID: collectionID,
		Query:        query,
		Limit:        contextLimit,
		Threshold:    contextThreshold,
	})
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		snippet := r.Snippet
		if len(snippet) > summarySnippetChars {
			snippet = snippet[:runeStart(snippet, summarySnippetChars)]
		}
		lines = append(lines, r.Item.Title+": "+snippet)
	}

	return &RAGContext{
		Results: results,
		Summary: strings.Join(lines, "\n\n"),
	}, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

func normalizeThreshold(threshold float32) float32 {
	if threshold <= 0 {
		return DefaultSearchThreshold
	}
	if threshold > 1 {
		return 1
	}
	return threshold
}

// sortResults orders by score descending with recency as the tiebreaker so
// that equal-score results have a stable, deterministic order.
func sortResults(results []*SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Item.UpdatedAt.After(results[j].Item.UpdatedAt)
	})
}

// makeSnippet returns a short window of content centered on the first query
// term it finds, or the head of the content when nothing matches.
func makeSnippet(content, query string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return ""
	}
	if len(clean) <= snippetMaxChars {
		return clean
	}

	lower := strings.ToLower(clean)
	pos := -1
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if idx := strings.Index(lower, term); idx >= 0 && (pos == -1 || idx < pos) {
			pos = idx
		}
	}
	if pos < 0 {
		return clean[:runeStart(clean, snippetMaxChars-3)] + "..."
	}

	start := pos - snippetMaxChars/4
	if start < 0 {
		start = 0
	}
	end := start + snippetMaxChars
	if end > len(clean) {
		end = len(clean)
		start = end - snippetMaxChars
		if start < 0 {
			start = 0
		}
	}
	start = runeStart(clean, start)
	if end < len(clean) {
		end = runeStart(clean, end)
	}
	snippet := clean[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(clean) {
		snippet = snippet + "..."
	}
	return snippet
}

// runeStart backs a byte offset up to the start of the rune containing it,
// so snippet cuts never tear a multi-byte character.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
