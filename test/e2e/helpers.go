//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vantagehq/vantage/internal/api/handlers"
	"github.com/vantagehq/vantage/internal/jobs"
	"github.com/vantagehq/vantage/internal/repository"
	"github.com/vantagehq/vantage/internal/server"
	"github.com/vantagehq/vantage/internal/service"
	"github.com/vantagehq/vantage/internal/storage"
	"github.com/vantagehq/vantage/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	BinaryDir    string
	WorkspaceID  string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	// Start PostgreSQL container
	pgC := testutil.NewPostgresContainer(ctx, t)

	// Start RustFS container
	s3C := testutil.NewRustFSContainer(ctx, t)

	// Create connection pool and run migrations
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	// Create S3 client
	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-items",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}

	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	// Find free port for server
	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	// Start HTTP server
	serverURL, serverCloser := startServer(t, pool, s3Client, port)

	env := &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		WorkspaceID:  uuid.NewString(),
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}

	return env
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	// Clean up binaries
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildBinaries builds the vantage and vantaged binaries
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "vantage-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	// Build vantaged
	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "vantaged"), "./cmd/vantaged")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build vantaged: %v\n%s", err, out)
	}

	// Build vantage
	cmd = exec.Command("go", "build", "-o", filepath.Join(tmpDir, "vantage"), "./cmd/vantage")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build vantage: %v\n%s", err, out)
	}
}

// RunVantage runs the vantage CLI command
func (e *E2ETestEnv) RunVantage(workDir string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "vantage"), args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("VANTAGE_WORKSPACE_ID=%s", e.WorkspaceID),
		fmt.Sprintf("VANTAGE_API_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// RunVantageWithInput runs the vantage CLI command with stdin input
func (e *E2ETestEnv) RunVantageWithInput(workDir string, input string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "vantage"), args...)
	cmd.Dir = workDir
	cmd.Stdin = bytes.NewReader([]byte(input))
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("VANTAGE_WORKSPACE_ID=%s", e.WorkspaceID),
		fmt.Sprintf("VANTAGE_API_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// Get performs a GET request scoped to the given workspace
func (e *E2ETestEnv) Get(path, workspaceID string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil, workspaceID)
}

// Post performs a POST request scoped to the given workspace
func (e *E2ETestEnv) Post(path string, body interface{}, workspaceID string) (*APIResponse, error) {
	return e.doRequest("POST", path, body, workspaceID)
}

// Delete performs a DELETE request scoped to the given workspace
func (e *E2ETestEnv) Delete(path, workspaceID string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil, workspaceID)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, workspaceID string) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if workspaceID != "" {
		req.Header.Set("X-Workspace-Id", workspaceID)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return &APIResponse{}, nil
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// UploadItem posts a multipart file to /items/upload
func (e *E2ETestEnv) UploadItem(workspaceID, fileName, contentType string, content []byte, fields map[string]string) (*APIResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	partHeader.Set("Content-Type", contentType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", e.ServerURL+"/items/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Workspace-Id", workspaceID)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// WaitForItemStatus polls an item until it reaches the wanted status
func (e *E2ETestEnv) WaitForItemStatus(workspaceID, itemID, status string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := e.Get("/items/"+itemID, workspaceID)
		if err == nil {
			var item struct {
				Status string `json:"status"`
			}
			if json.Unmarshal(resp.Data, &item) == nil && item.Status == status {
				return
			}
			if item.Status == "failed" && status != "failed" {
				e.T.Fatalf("item %s failed while waiting for status %q", itemID, status)
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	e.T.Fatalf("item %s did not reach status %q within %v", itemID, status, timeout)
}

// startServer starts the HTTP server with all handlers and the ingest worker
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, port int) (string, func()) {
	// Initialize repositories
	itemRepo := repository.NewKnowledgeItemRepository(pool)
	collectionRepo := repository.NewCollectionRepository(pool)
	jobRepo := repository.NewIngestJobRepository(pool)

	// Deterministic model stand-ins: embeddings hash token occurrences so
	// related texts score close without calling a real model
	embedder := &hashEmbedder{dims: 1536}
	completion := &cannedCompletion{}
	index := newMemoryIndex()

	// Initialize services
	retrievalSvc := service.NewRetrievalService(embedder, index, itemRepo)
	itemSvc := service.NewItemService(itemRepo)
	collectionSvc := service.NewCollectionService(collectionRepo)
	processor := service.NewDocumentProcessor(completion, embedder)
	ingestSvc := service.NewIngestService(itemRepo, jobRepo, s3Client)

	// Ingest worker with a fast poll so upload tests settle quickly
	worker := jobs.NewWorker(
		jobs.NewIngestWorker(jobRepo, itemRepo, processor, s3Client, index),
		200*time.Millisecond,
	)
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	go worker.Start(workerCtx)

	cfg := server.RouterConfig{
		ItemHandler:       handlers.NewItemHandler(retrievalSvc, itemSvc, ingestSvc),
		SearchHandler:     handlers.NewSearchHandler(retrievalSvc, processor, collectionSvc),
		CollectionHandler: handlers.NewCollectionHandler(collectionSvc),
	}

	router := server.NewRouter(cfg)
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to start
	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		cancelWorker()
		worker.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// hashEmbedder maps each token to a dimension by hash. Texts sharing
// vocabulary get high cosine similarity, which is all search needs here.
type hashEmbedder struct {
	dims int
}

func (h *hashEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?\"'()[]")
		if tok == "" {
			continue
		}
		f := fnv.New32a()
		f.Write([]byte(tok))
		vec[int(f.Sum32())%h.dims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// cannedCompletion answers every prompt with a fixed suggestion payload
type cannedCompletion struct{}

func (c *cannedCompletion) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	return `{"categories":["notes"],"tags":["test"],"confidence":0.9}`, nil
}

func (c *cannedCompletion) Model() string {
	return "stub-model"
}

// memoryIndex is an in-process vector index for tests
type memoryIndex struct {
	mu      sync.Mutex
	records map[string]service.IndexRecord
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{records: make(map[string]service.IndexRecord)}
}

func (m *memoryIndex) Query(ctx context.Context, vector []float32, q service.IndexQuery) ([]service.IndexCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := make([]service.IndexCandidate, 0)
	for _, rec := range m.records {
		if rec.WorkspaceID != q.WorkspaceID {
			continue
		}
		if q.CollectionID != "" && rec.CollectionID != q.CollectionID {
			continue
		}
		candidates = append(candidates, service.IndexCandidate{
			ID:    rec.ID,
			Score: dot(vector, rec.Vector),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if q.TopK > 0 && len(candidates) > q.TopK {
		candidates = candidates[:q.TopK]
	}
	return candidates, nil
}

func (m *memoryIndex) Upsert(ctx context.Context, rec service.IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *memoryIndex) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
