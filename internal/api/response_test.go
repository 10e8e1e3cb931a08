package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vantagehq/vantage/internal/domain"
)

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation", domain.ErrEmptyQuery, http.StatusBadRequest},
		{"not found", domain.ErrItemNotFound, http.StatusNotFound},
		{"embedding unavailable", domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable},
		{"store unavailable", domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"extraction failed", domain.ErrExtractionFailed, http.StatusUnprocessableEntity},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestHandleError_IncludesCode(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, domain.ErrItemNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrCodeNotFound)
	assert.Contains(t, w.Body.String(), "knowledge item not found")
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"abc"}}`, w.Body.String())
}
