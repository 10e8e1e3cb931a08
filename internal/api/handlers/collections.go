package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vantagehq/vantage/internal/api"
	"github.com/vantagehq/vantage/internal/api/middleware"
	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/service"
)

type CollectionService interface {
	Create(ctx context.Context, input service.CreateCollectionInput) (*domain.Collection, error)
	Get(ctx context.Context, id, workspaceID string) (*domain.Collection, error)
	List(ctx context.Context, workspaceID string) ([]*domain.Collection, error)
}

type CollectionHandler struct {
	svc CollectionService
}

func NewCollectionHandler(svc CollectionService) *CollectionHandler {
	return &CollectionHandler{svc: svc}
}

type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CollectionResponse struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func collectionToResponse(c *domain.Collection) *CollectionResponse {
	return &CollectionResponse{
		ID:          c.ID,
		WorkspaceID: c.WorkspaceID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	var req CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	collection, err := h.svc.Create(r.Context(), service.CreateCollectionInput{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, collectionToResponse(collection))
}

func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	collection, err := h.svc.Get(r.Context(), id, workspaceID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, collectionToResponse(collection))
}

func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID := middleware.GetWorkspaceID(r.Context())

	collections, err := h.svc.List(r.Context(), workspaceID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]*CollectionResponse, 0, len(collections))
	for _, c := range collections {
		out = append(out, collectionToResponse(c))
	}

	api.Success(w, http.StatusOK, out)
}
