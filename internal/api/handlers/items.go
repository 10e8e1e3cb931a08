package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vantagehq/vantage/internal/api"
	"github.com/vantagehq/vantage/internal/api/middleware"
	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/service"
)

// maxUploadBytes caps multipart file uploads.
const maxUploadBytes = 32 << 20

type ItemStoreService interface {
	StoreKnowledgeItem(ctx context.Context, input service.StoreInput) (*domain.KnowledgeItem, error)
	DeleteKnowledgeItem(ctx context.Context, id, workspaceID string) error
}

type ItemReadService interface {
	Get(ctx context.Context, id, workspaceID string) (*domain.KnowledgeItem, error)
	List(ctx context.Context, input service.ListItemsInput) (*service.ListItemsOutput, error)
}

type UploadService interface {
	Submit(ctx context.Context, input service.SubmitInput) (*domain.KnowledgeItem, error)
}

type ItemHandler struct {
	store  ItemStoreService
	reader ItemReadService
	ingest UploadService
}

func NewItemHandler(store ItemStoreService, reader ItemReadService, ingest UploadService) *ItemHandler {
	return &ItemHandler{store: store, reader: reader, ingest: ingest}
}

type CreateItemRequest struct {
	CollectionID string         `json:"collection_id"`
	Type         string         `json:"type"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Summary      string         `json:"summary"`
	Tags         []string       `json:"tags"`
	Metadata     map[string]any `json:"metadata"`
}

type ItemResponse struct {
	ID           string         `json:"id"`
	WorkspaceID  string         `json:"workspace_id"`
	CollectionID string         `json:"collection_id,omitempty"`
	Type         string         `json:"type"`
	Status       string         `json:"status"`
	Title        string         `json:"title"`
	Content      string         `json:"content,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

func itemToResponse(k *domain.KnowledgeItem) *ItemResponse {
	return &ItemResponse{
		ID:           k.ID,
		WorkspaceID:  k.WorkspaceID,
		CollectionID: k.CollectionID,
		Type:         string(k.Type),
		Status:       string(k.Status),
		Title:        k.Title,
		Content:      k.Content,
		Summary:      k.Summary,
		Tags:         k.Tags,
		Metadata:     k.Metadata,
		CreatedAt:    k.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    k.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Create stores a text item synchronously: it is embedded and searchable as
// soon as the call returns.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	itemType := domain.ItemTypeNote
	if req.Type != "" {
		itemType = domain.ItemType(req.Type)
	}

	item, err := h.store.StoreKnowledgeItem(r.Context(), service.StoreInput{
		WorkspaceID:  workspaceID,
		CollectionID: req.CollectionID,
		Type:         itemType,
		Title:        req.Title,
		Content:      req.Content,
		Summary:      req.Summary,
		Tags:         req.Tags,
		Metadata:     req.Metadata,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, itemToResponse(item))
}

// Upload accepts a multipart file and queues it for asynchronous processing.
func (h *ItemHandler) Upload(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	item, err := h.ingest.Submit(r.Context(), service.SubmitInput{
		WorkspaceID:  workspaceID,
		CollectionID: r.FormValue("collection_id"),
		Title:        r.FormValue("title"),
		FileName:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Data:         data,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, itemToResponse(item))
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	item, err := h.reader.Get(r.Context(), id, workspaceID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, itemToResponse(item))
}

type ItemListResponse struct {
	Items   []*ItemResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	out, err := h.reader.List(r.Context(), service.ListItemsInput{
		WorkspaceID: workspaceID,
		Cursor:      r.URL.Query().Get("cursor"),
		Limit:       limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ItemResponse, 0, len(out.Items))
	for _, item := range out.Items {
		items = append(items, itemToResponse(item))
	}

	api.Success(w, http.StatusOK, ItemListResponse{
		Items:   items,
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	})
}

// Delete removes an item. Deleting an item that no longer exists returns
// 204 as well.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.store.DeleteKnowledgeItem(r.Context(), id, workspaceID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
