package middleware

import (
	"net/http"

	"github.com/vantagehq/vantage/internal/api"
)

// MaxBodyBytes caps request body size. A declared Content-Length over the
// cap is rejected up front; chunked bodies are wrapped in MaxBytesReader so
// the handler's read fails once the cap is crossed.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
