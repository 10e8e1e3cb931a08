package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vantagehq/vantage/internal/api"
)

type contextKey string

const WorkspaceIDKey contextKey = "workspace_id"

// WorkspaceHeader is the request header carrying the caller's workspace.
const WorkspaceHeader = "X-Workspace-Id"

// RequireWorkspace rejects requests without a workspace id. Every scoped
// route runs behind it; downstream code can assume GetWorkspaceID is
// non-empty.
func RequireWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workspaceID := strings.TrimSpace(r.Header.Get(WorkspaceHeader))
		if workspaceID == "" {
			api.Error(w, http.StatusBadRequest, "missing workspace id header")
			return
		}

		ctx := context.WithValue(r.Context(), WorkspaceIDKey, workspaceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetWorkspaceID returns the workspace id from context.
func GetWorkspaceID(ctx context.Context) string {
	workspaceID, _ := ctx.Value(WorkspaceIDKey).(string)
	return workspaceID
}
