//go:build e2e

package e2e

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemPayload struct {
	ID           string         `json:"id"`
	WorkspaceID  string         `json:"workspace_id"`
	CollectionID string         `json:"collection_id"`
	Type         string         `json:"type"`
	Status       string         `json:"status"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Summary      string         `json:"summary"`
	Tags         []string       `json:"tags"`
	Metadata     map[string]any `json:"metadata"`
}

type searchResultPayload struct {
	Item    itemPayload `json:"item"`
	Score   float32     `json:"score"`
	Snippet string      `json:"snippet"`
}

// TestE2E_Health tests that the server comes up and reports healthy
func TestE2E_Health(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.Get("/health", "")
	require.NoError(t, err)

	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &health))
	assert.Equal(t, "ok", health.Status)
}

// TestE2E_WorkspaceHeaderRequired tests that workspace routes reject
// requests without the workspace header
func TestE2E_WorkspaceHeaderRequired(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	_, err := env.Get("/items", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	_, err = env.Post("/search", map[string]string{"query": "anything"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

// TestE2E_ItemLifecycle tests knowledge item CRUD operations
func TestE2E_ItemLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	var itemID string

	t.Run("create item", func(t *testing.T) {
		resp, err := env.Post("/items", map[string]interface{}{
			"type":    "note",
			"title":   "Deploy Runbook",
			"content": "Run the deploy script, watch the dashboards, roll back on elevated error rates.",
			"summary": "How to deploy safely",
			"tags":    []string{"ops", "deploy"},
		}, env.WorkspaceID)
		require.NoError(t, err)

		var item itemPayload
		require.NoError(t, json.Unmarshal(resp.Data, &item))
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, env.WorkspaceID, item.WorkspaceID)
		assert.Equal(t, "note", item.Type)
		assert.Equal(t, "ready", item.Status)
		assert.Equal(t, "Deploy Runbook", item.Title)
		assert.Equal(t, []string{"ops", "deploy"}, item.Tags)
		itemID = item.ID
	})

	t.Run("get item", func(t *testing.T) {
		resp, err := env.Get("/items/"+itemID, env.WorkspaceID)
		require.NoError(t, err)

		var item itemPayload
		require.NoError(t, json.Unmarshal(resp.Data, &item))
		assert.Equal(t, itemID, item.ID)
		assert.Contains(t, item.Content, "roll back")
		assert.Equal(t, "How to deploy safely", item.Summary)
	})

	t.Run("list items", func(t *testing.T) {
		resp, err := env.Get("/items", env.WorkspaceID)
		require.NoError(t, err)

		var list struct {
			Items   []itemPayload `json:"items"`
			HasMore bool          `json:"has_more"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &list))
		require.Len(t, list.Items, 1)
		assert.Equal(t, itemID, list.Items[0].ID)
		assert.False(t, list.HasMore)
	})

	t.Run("other workspace cannot see item", func(t *testing.T) {
		_, err := env.Get("/items/"+itemID, uuid.NewString())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("delete item", func(t *testing.T) {
		_, err := env.Delete("/items/"+itemID, env.WorkspaceID)
		require.NoError(t, err)

		_, err = env.Get("/items/"+itemID, env.WorkspaceID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		_, err := env.Delete("/items/"+itemID, env.WorkspaceID)
		require.NoError(t, err)
	})
}

// TestE2E_Collections tests collection management and scoped search
func TestE2E_Collections(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	var collectionID string

	t.Run("create collection", func(t *testing.T) {
		resp, err := env.Post("/collections", map[string]string{
			"name":        "runbooks",
			"description": "Operational runbooks",
		}, env.WorkspaceID)
		require.NoError(t, err)

		var c struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &c))
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "runbooks", c.Name)
		collectionID = c.ID
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := env.Post("/collections", map[string]string{"name": "runbooks"}, env.WorkspaceID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "409")
	})

	t.Run("same name in another workspace is allowed", func(t *testing.T) {
		_, err := env.Post("/collections", map[string]string{"name": "runbooks"}, uuid.NewString())
		require.NoError(t, err)
	})

	t.Run("list collections", func(t *testing.T) {
		resp, err := env.Get("/collections", env.WorkspaceID)
		require.NoError(t, err)

		var list []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &list))
		require.Len(t, list, 1)
		assert.Equal(t, collectionID, list[0].ID)
	})

	t.Run("search scoped to collection", func(t *testing.T) {
		_, err := env.Post("/items", map[string]interface{}{
			"collection_id": collectionID,
			"title":         "Incident response",
			"content":       "page the on-call engineer and open an incident channel",
		}, env.WorkspaceID)
		require.NoError(t, err)

		_, err = env.Post("/items", map[string]interface{}{
			"title":   "Incident retro template",
			"content": "page structure for the incident retro document",
		}, env.WorkspaceID)
		require.NoError(t, err)

		resp, err := env.Post("/search", map[string]interface{}{
			"query":         "page the on-call engineer and open an incident channel",
			"collection_id": collectionID,
			"threshold":     0.1,
		}, env.WorkspaceID)
		require.NoError(t, err)

		var out struct {
			Results []searchResultPayload `json:"results"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		require.Len(t, out.Results, 1)
		assert.Equal(t, "Incident response", out.Results[0].Item.Title)
	})
}

// TestE2E_SearchIsolation tests that search never crosses workspaces
func TestE2E_SearchIsolation(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	wsA := env.WorkspaceID
	wsB := uuid.NewString()

	seed := func(ws, title, content string) {
		_, err := env.Post("/items", map[string]interface{}{
			"title":   title,
			"content": content,
		}, ws)
		require.NoError(t, err)
	}

	seed(wsA, "Kubernetes deploys", "kubernetes deployment rollout and rollback commands")
	seed(wsA, "Pasta notes", "boil water add salt cook the pasta eight minutes")
	seed(wsB, "Kubernetes secrets", "kubernetes secret rotation policy for the payments cluster")

	search := func(ws, query string) []searchResultPayload {
		resp, err := env.Post("/search", map[string]interface{}{
			"query":     query,
			"threshold": 0.1,
		}, ws)
		require.NoError(t, err)
		var out struct {
			Results []searchResultPayload `json:"results"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		return out.Results
	}

	t.Run("results stay inside the workspace", func(t *testing.T) {
		results := search(wsA, "kubernetes deployment rollout")
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Equal(t, wsA, r.Item.WorkspaceID)
			assert.NotEqual(t, "Kubernetes secrets", r.Item.Title)
		}
		assert.Equal(t, "Kubernetes deploys", results[0].Item.Title)
	})

	t.Run("scores are ordered descending", func(t *testing.T) {
		results := search(wsA, "kubernetes deployment rollout")
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		}
	})

	t.Run("other workspace sees only its own items", func(t *testing.T) {
		results := search(wsB, "kubernetes secret rotation policy")
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Equal(t, wsB, r.Item.WorkspaceID)
		}
	})

	t.Run("empty workspace finds nothing", func(t *testing.T) {
		results := search(uuid.NewString(), "kubernetes deployment rollout")
		assert.Empty(t, results)
	})
}

// TestE2E_ContextAndSuggest tests the context assembly and suggestion endpoints
func TestE2E_ContextAndSuggest(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	_, err := env.Post("/items", map[string]interface{}{
		"title":   "Release checklist",
		"content": "tag the release build the artifacts publish the changelog notify the team",
	}, env.WorkspaceID)
	require.NoError(t, err)

	t.Run("context returns summary and sources", func(t *testing.T) {
		resp, err := env.Post("/search/context", map[string]string{
			"query": "tag the release build the artifacts publish the changelog notify the team",
		}, env.WorkspaceID)
		require.NoError(t, err)

		var out struct {
			Results []searchResultPayload `json:"results"`
			Summary string                `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		require.NotEmpty(t, out.Results)
		assert.Contains(t, out.Summary, "Release checklist")
	})

	t.Run("suggest returns categories and tags", func(t *testing.T) {
		resp, err := env.Post("/search/suggest", map[string]string{
			"title":   "Release checklist",
			"content": "tag the release build the artifacts",
		}, env.WorkspaceID)
		require.NoError(t, err)

		var out struct {
			Categories []string `json:"categories"`
			Tags       []string `json:"tags"`
			Confidence float64  `json:"confidence"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		assert.Equal(t, []string{"notes"}, out.Categories)
		assert.Equal(t, []string{"test"}, out.Tags)
		assert.InDelta(t, 0.9, out.Confidence, 0.001)
	})
}

// TestE2E_UploadProcessing tests the asynchronous upload pipeline end to end
func TestE2E_UploadProcessing(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	content := []byte("# Oncall handbook\n\nEscalate to the secondary after fifteen minutes without acknowledgement.")

	resp, err := env.UploadItem(env.WorkspaceID, "handbook.md", "text/markdown", content, map[string]string{
		"title": "Oncall handbook",
	})
	require.NoError(t, err)

	var item itemPayload
	require.NoError(t, json.Unmarshal(resp.Data, &item))
	require.NotEmpty(t, item.ID)
	assert.Equal(t, "processing", item.Status)
	assert.Equal(t, "document", item.Type)

	// The worker downloads the file, extracts text, and marks the item ready
	env.WaitForItemStatus(env.WorkspaceID, item.ID, "ready", 15*time.Second)

	getResp, err := env.Get("/items/"+item.ID, env.WorkspaceID)
	require.NoError(t, err)

	var processed itemPayload
	require.NoError(t, json.Unmarshal(getResp.Data, &processed))
	assert.Contains(t, processed.Content, "Escalate to the secondary")
	assert.Equal(t, "handbook.md", processed.Metadata["file_name"])

	t.Run("processed item is searchable", func(t *testing.T) {
		searchResp, err := env.Post("/search", map[string]interface{}{
			"query":     "escalate to the secondary after fifteen minutes",
			"threshold": 0.1,
		}, env.WorkspaceID)
		require.NoError(t, err)

		var out struct {
			Results []searchResultPayload `json:"results"`
		}
		require.NoError(t, json.Unmarshal(searchResp.Data, &out))
		require.NotEmpty(t, out.Results)
		assert.Equal(t, item.ID, out.Results[0].Item.ID)
	})
}

// TestE2E_CLIWorkflow tests the vantage CLI against a live server
func TestE2E_CLIWorkflow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.BuildBinaries()

	projectDir, err := os.MkdirTemp("", "vantage-cli-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(projectDir)

	t.Run("vantage init creates .vantage directory", func(t *testing.T) {
		output, err := env.RunVantage(projectDir, "init")
		require.NoError(t, err, "init failed: %s", output)

		vantageDir := filepath.Join(projectDir, ".vantage")
		info, err := os.Stat(vantageDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		configPath := filepath.Join(vantageDir, "config.yaml")
		_, err = os.Stat(configPath)
		require.NoError(t, err)
	})

	t.Run("vantage add creates item from stdin", func(t *testing.T) {
		input := "The staging environment resets every sunday night at two."

		output, err := env.RunVantageWithInput(projectDir, input,
			"add", "--title", "Staging resets", "--output")
		require.NoError(t, err, "add failed: %s", output)
		assert.Contains(t, output, "id")
	})

	t.Run("vantage search finds the item", func(t *testing.T) {
		output, err := env.RunVantage(projectDir,
			"search", "staging environment resets every sunday night", "--threshold", "0.1")
		require.NoError(t, err, "search failed: %s", output)
		assert.Contains(t, output, "Staging resets")
	})

	t.Run("vantage get retrieves the item", func(t *testing.T) {
		row := env.Pool.QueryRow(env.Ctx,
			"SELECT id FROM knowledge_items WHERE workspace_id = $1 ORDER BY created_at DESC LIMIT 1",
			env.WorkspaceID)

		var itemID string
		require.NoError(t, row.Scan(&itemID))

		output, err := env.RunVantage(projectDir, "get", itemID, "--output")
		require.NoError(t, err, "get failed: %s", output)
		assert.Contains(t, output, itemID)
	})

	t.Run("vantage list shows the item", func(t *testing.T) {
		output, err := env.RunVantage(projectDir, "list")
		require.NoError(t, err, "list failed: %s", output)
		assert.Contains(t, output, "Staging resets")
	})

	t.Run("vantage delete removes the item", func(t *testing.T) {
		row := env.Pool.QueryRow(env.Ctx,
			"SELECT id FROM knowledge_items WHERE workspace_id = $1 ORDER BY created_at DESC LIMIT 1",
			env.WorkspaceID)

		var itemID string
		require.NoError(t, row.Scan(&itemID))

		output, err := env.RunVantage(projectDir, "delete", itemID)
		require.NoError(t, err, "delete failed: %s", output)

		var count int
		require.NoError(t, env.Pool.QueryRow(env.Ctx,
			"SELECT count(*) FROM knowledge_items WHERE id = $1", itemID).Scan(&count))
		assert.Zero(t, count)
	})
}
