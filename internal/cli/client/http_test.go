package client

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_SetsWorkspaceHeader(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Workspace-Id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"status": "ok"}}`))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig("ws-123", server.URL)
	require.NoError(t, err)

	resp, err := api.Get("/health")
	require.NoError(t, err)
	assert.Equal(t, "ws-123", gotHeader)
	assert.NotNil(t, resp.Data)
}

func TestAPIClient_ParsesErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": "embedding provider unreachable", "code": "EMBEDDING_UNAVAILABLE"}`))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig("ws-123", server.URL)
	require.NoError(t, err)

	_, err = api.Post("/search", map[string]string{"query": "test"})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "embedding provider unreachable", apiErr.Message)
	assert.Equal(t, "EMBEDDING_UNAVAILABLE", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "EMBEDDING_UNAVAILABLE")
}

func TestAPIClient_NoContentResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig("ws-123", server.URL)
	require.NoError(t, err)

	resp, err := api.Delete("/items/item-1")
	require.NoError(t, err)
	assert.Nil(t, resp.Data)
}

func TestAPIClient_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig("ws-123", server.URL)
	require.NoError(t, err)

	_, err = api.Get("/items")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestAPIClient_UploadFile(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "report.pdf")
	require.NoError(t, os.WriteFile(filePath, []byte("%PDF-1.4 fake"), 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "ws-123", r.Header.Get("X-Workspace-Id"))
		assert.Equal(t, "col-1", r.FormValue("collection_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "report.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"data": {"id": "item-1", "status": "processing"}}`))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig("ws-123", server.URL)
	require.NoError(t, err)

	resp, err := api.UploadFile("/items/upload", filePath, "application/pdf", map[string]string{
		"collection_id": "col-1",
		"title":         "",
	})
	require.NoError(t, err)
	assert.Contains(t, string(resp.Data), "item-1")
}
