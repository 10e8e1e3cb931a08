package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/service"
)

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) SearchDocuments(ctx context.Context, input service.SearchInput) ([]*service.SearchResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*service.SearchResult), args.Error(1)
}

func (m *MockSearchService) GetRAGContext(ctx context.Context, workspaceID, collectionID, query string) (*service.RAGContext, error) {
	args := m.Called(ctx, workspaceID, collectionID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RAGContext), args.Error(1)
}

type MockSuggestService struct {
	mock.Mock
}

func (m *MockSuggestService) SuggestCategories(ctx context.Context, input service.SuggestInput) (*service.CategorySuggestion, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CategorySuggestion), args.Error(1)
}

type MockCollectionNamer struct {
	mock.Mock
}

func (m *MockCollectionNamer) Names(ctx context.Context, workspaceID string) ([]string, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func newSearchHandler() (*SearchHandler, *MockSearchService, *MockSuggestService, *MockCollectionNamer) {
	search := new(MockSearchService)
	suggest := new(MockSuggestService)
	namer := new(MockCollectionNamer)
	return NewSearchHandler(search, suggest, namer), search, suggest, namer
}

func TestSearchHandler_Search_Success(t *testing.T) {
	handler, search, _, _ := newSearchHandler()

	search.On("SearchDocuments", mock.Anything, service.SearchInput{
		WorkspaceID: "ws-456",
		Query:       "deploy",
		Limit:       3,
	}).Return([]*service.SearchResult{
		{Item: newTestItem(), Score: 0.91, Snippet: "how to deploy"},
	}, nil)

	body := `{"query":"deploy","limit":3}`
	req := requestWithWorkspace(http.MethodPost, "/search", []byte(body))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	results := data["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.InDelta(t, 0.91, first["score"].(float64), 1e-6)
}

func TestSearchHandler_Search_EmptyQuery(t *testing.T) {
	handler, search, _, _ := newSearchHandler()

	search.On("SearchDocuments", mock.Anything, mock.Anything).Return(nil, domain.ErrEmptyQuery)

	req := requestWithWorkspace(http.MethodPost, "/search", []byte(`{"query":""}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_Search_EmbeddingDown(t *testing.T) {
	handler, search, _, _ := newSearchHandler()

	search.On("SearchDocuments", mock.Anything, mock.Anything).
		Return(nil, domain.ErrEmbeddingUnavailable)

	req := requestWithWorkspace(http.MethodPost, "/search", []byte(`{"query":"q"}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrCodeEmbeddingUnavailable)
}

func TestSearchHandler_Context_Success(t *testing.T) {
	handler, search, _, _ := newSearchHandler()

	search.On("GetRAGContext", mock.Anything, "ws-456", "", "deploy").Return(&service.RAGContext{
		Results: []*service.SearchResult{{Item: newTestItem(), Score: 0.7}},
		Summary: "Deploy runbook: how to deploy",
	}, nil)

	req := requestWithWorkspace(http.MethodPost, "/search/context", []byte(`{"query":"deploy"}`))
	w := httptest.NewRecorder()

	handler.Context(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Deploy runbook: how to deploy", data["summary"])
}

func TestSearchHandler_Suggest_Success(t *testing.T) {
	handler, _, suggest, namer := newSearchHandler()

	namer.On("Names", mock.Anything, "ws-456").Return([]string{"Runbooks"}, nil)
	suggest.On("SuggestCategories", mock.Anything, mock.MatchedBy(func(input service.SuggestInput) bool {
		return input.Title == "Deploy guide" && len(input.Collections) == 1
	})).Return(&service.CategorySuggestion{
		Categories: []string{"Runbooks"},
		Tags:       []string{"deploy"},
		Confidence: 0.9,
	}, nil)

	body := `{"title":"Deploy guide","content":"how to deploy"}`
	req := requestWithWorkspace(http.MethodPost, "/suggest", []byte(body))
	w := httptest.NewRecorder()

	handler.Suggest(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.InDelta(t, 0.9, data["confidence"].(float64), 1e-9)
}

func TestSearchHandler_Suggest_MissingContent(t *testing.T) {
	handler, _, _, _ := newSearchHandler()

	req := requestWithWorkspace(http.MethodPost, "/suggest", []byte(`{"title":"t"}`))
	w := httptest.NewRecorder()

	handler.Suggest(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content is required")
}
