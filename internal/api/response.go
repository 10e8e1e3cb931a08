// Package api defines the JSON envelope shared by every endpoint: data on
// success, error+code on failure.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vantagehq/vantage/internal/domain"
)

type SuccessResponse struct {
	Data interface{} `json:"data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes a JSON body with the given status. A nil payload writes the
// status line only.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Success wraps the payload in the data envelope.
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes a bare error message without a machine-readable code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// HandleError renders an error. Domain errors keep their code in the body
// so clients can branch on it; anything else is an opaque 500.
func HandleError(w http.ResponseWriter, err error) {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		JSON(w, DomainErrorToHTTP(err), ErrorResponse{
			Error: domainErr.Message,
			Code:  domainErr.Code,
		})
		return
	}
	Error(w, http.StatusInternalServerError, err.Error())
}

// DomainErrorToHTTP maps the domain error taxonomy onto HTTP statuses.
// Degraded-dependency codes surface as 503 so callers know to retry.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation, domain.ErrCodeInvalidOperation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeAlreadyExists:
		return http.StatusConflict
	case domain.ErrCodeExtractionFailed:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeEmbeddingUnavailable, domain.ErrCodeStoreUnavailable, domain.ErrCodeEnrichmentFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
