package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vantagehq/vantage/internal/api"
	"github.com/vantagehq/vantage/internal/api/middleware"
	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/service"
)

type SearchService interface {
	SearchDocuments(ctx context.Context, input service.SearchInput) ([]*service.SearchResult, error)
	GetRAGContext(ctx context.Context, workspaceID, collectionID, query string) (*service.RAGContext, error)
}

type SuggestService interface {
	SuggestCategories(ctx context.Context, input service.SuggestInput) (*service.CategorySuggestion, error)
}

type CollectionNamer interface {
	Names(ctx context.Context, workspaceID string) ([]string, error)
}

type SearchHandler struct {
	search      SearchService
	suggest     SuggestService
	collections CollectionNamer
}

func NewSearchHandler(search SearchService, suggest SuggestService, collections CollectionNamer) *SearchHandler {
	return &SearchHandler{search: search, suggest: suggest, collections: collections}
}

type SearchRequest struct {
	Query        string  `json:"query"`
	CollectionID string  `json:"collection_id"`
	Limit        int     `json:"limit"`
	Threshold    float32 `json:"threshold"`
}

type SearchResultResponse struct {
	Item    *ItemResponse `json:"item"`
	Score   float32       `json:"score"`
	Snippet string        `json:"snippet,omitempty"`
}

type SearchResponse struct {
	Results []*SearchResultResponse `json:"results"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := h.search.SearchDocuments(r.Context(), service.SearchInput{
		WorkspaceID:  workspaceID,
		CollectionID: req.CollectionID,
		Query:        req.Query,
		Limit:        req.Limit,
		Threshold:    req.Threshold,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: searchResultsToResponse(results)})
}

type ContextRequest struct {
	Query        string `json:"query"`
	CollectionID string `json:"collection_id"`
}

type ContextResponse struct {
	Results []*SearchResultResponse `json:"results"`
	Summary string                  `json:"summary"`
}

// Context returns a prompt-ready bundle of the most relevant items.
func (h *SearchHandler) Context(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ragCtx, err := h.search.GetRAGContext(r.Context(), workspaceID, req.CollectionID, req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ContextResponse{
		Results: searchResultsToResponse(ragCtx.Results),
		Summary: ragCtx.Summary,
	})
}

type SuggestRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	collections, err := h.collections.Names(r.Context(), workspaceID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	itemType := domain.ItemTypeDocument
	if req.Type != "" {
		itemType = domain.ItemType(req.Type)
	}

	suggestion, err := h.suggest.SuggestCategories(r.Context(), service.SuggestInput{
		Title:       req.Title,
		Content:     req.Content,
		Type:        itemType,
		Collections: collections,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, suggestion)
}

func searchResultsToResponse(results []*service.SearchResult) []*SearchResultResponse {
	out := make([]*SearchResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, &SearchResultResponse{
			Item:    itemToResponse(r.Item),
			Score:   r.Score,
			Snippet: r.Snippet,
		})
	}
	return out
}
