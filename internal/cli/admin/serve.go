package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	openailib "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/vantagehq/vantage/internal/api/handlers"
	"github.com/vantagehq/vantage/internal/config"
	"github.com/vantagehq/vantage/internal/database"
	"github.com/vantagehq/vantage/internal/jobs"
	"github.com/vantagehq/vantage/internal/openai"
	"github.com/vantagehq/vantage/internal/repository"
	"github.com/vantagehq/vantage/internal/server"
	"github.com/vantagehq/vantage/internal/service"
	"github.com/vantagehq/vantage/internal/storage"
	"github.com/vantagehq/vantage/internal/telemetry"
	"github.com/vantagehq/vantage/internal/vector"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the vantage API server and the ingest worker on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the background ingest worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	itemRepo := repository.NewKnowledgeItemRepository(pool)
	collectionRepo := repository.NewCollectionRepository(pool)
	jobRepo := repository.NewIngestJobRepository(pool)

	var aiClient *openai.Client
	if cfg.HasOpenAI() {
		aiClient = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingModel:      openailib.EmbeddingModel(cfg.EmbeddingModel),
			EmbeddingDimensions: cfg.EmbeddingDimensions,
			CompletionModel:     cfg.CompletionModel,
		})
	}
	var embeddingClient service.EmbeddingClient
	var completionClient service.CompletionClient
	if aiClient != nil {
		embeddingClient = aiClient
		completionClient = aiClient
	} else {
		log.Println("OPENAI_API_KEY not set: search and enrichment endpoints will return errors")
		embeddingClient = &unconfiguredModelClient{}
		completionClient = &unconfiguredModelClient{}
	}

	var indexStore service.IndexStore = &unconfiguredIndex{}
	if cfg.HasQdrant() {
		qdrantIndex, err := vector.NewQdrantIndex(ctx, vector.Config{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			UseTLS:     cfg.QdrantUseTLS,
			Collection: cfg.QdrantCollection,
			VectorSize: uint64(cfg.EmbeddingDimensions),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to qdrant: %w", err)
		}
		defer qdrantIndex.Close()
		log.Printf("qdrant collection '%s' ready", cfg.QdrantCollection)
		indexStore = &qdrantIndexAdapter{index: qdrantIndex}
	} else {
		log.Println("QDRANT_HOST not set: search runs on the relational fallback only")
	}

	var fileStorage *storage.S3Client
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		fileStorage = s3Client
	}

	retrievalSvc := service.NewRetrievalService(embeddingClient, indexStore, itemRepo)
	itemSvc := service.NewItemService(itemRepo)
	collectionSvc := service.NewCollectionService(collectionRepo)
	processor := service.NewDocumentProcessor(completionClient, embeddingClient)

	var ingestSvc *service.IngestService
	if fileStorage != nil {
		ingestSvc = service.NewIngestService(itemRepo, jobRepo, fileStorage)
	} else {
		ingestSvc = service.NewIngestService(itemRepo, jobRepo, &unconfiguredStorage{})
	}

	var ingestWorker *jobs.Worker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if !noWorker && fileStorage != nil && aiClient != nil {
		ingestProcessor := jobs.NewIngestWorker(jobRepo, itemRepo, processor, fileStorage, indexStore)
		ingestWorker = jobs.NewWorker(ingestProcessor, time.Duration(cfg.WorkerPollSeconds)*time.Second)
		go ingestWorker.Start(ctx)
		log.Println("ingest worker started")
	} else if !noWorker {
		log.Println("ingest worker disabled: requires S3 and OpenAI configuration")
	}

	routerCfg := server.RouterConfig{
		ItemHandler:       handlers.NewItemHandler(retrievalSvc, itemSvc, ingestSvc),
		SearchHandler:     handlers.NewSearchHandler(retrievalSvc, processor, collectionSvc),
		CollectionHandler: handlers.NewCollectionHandler(collectionSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if ingestWorker != nil {
		ingestWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// qdrantIndexAdapter bridges the qdrant client to the retrieval service's
// index contract.
type qdrantIndexAdapter struct {
	index *vector.QdrantIndex
}

func (a *qdrantIndexAdapter) Query(ctx context.Context, queryVector []float32, q service.IndexQuery) ([]service.IndexCandidate, error) {
	hits, err := a.index.Query(ctx, queryVector, q.TopK, vector.QueryFilter{
		WorkspaceID:  q.WorkspaceID,
		CollectionID: q.CollectionID,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]service.IndexCandidate, 0, len(hits))
	for _, hit := range hits {
		candidates = append(candidates, service.IndexCandidate{
			ID:    hit.ID,
			Score: hit.Score,
		})
	}
	return candidates, nil
}

func (a *qdrantIndexAdapter) Upsert(ctx context.Context, rec service.IndexRecord) error {
	return a.index.Upsert(ctx, vector.Record{
		ID:           rec.ID,
		Vector:       rec.Vector,
		WorkspaceID:  rec.WorkspaceID,
		CollectionID: rec.CollectionID,
		Type:         rec.Type,
		Title:        rec.Title,
		Status:       rec.Status,
	})
}

func (a *qdrantIndexAdapter) Delete(ctx context.Context, id string) error {
	return a.index.Delete(ctx, id)
}

// unconfiguredIndex stands in when no vector backend is configured. Query
// errors push retrieval onto the relational fallback; the index writes are
// best-effort in their callers, so they succeed as no-ops.
type unconfiguredIndex struct{}

func (i *unconfiguredIndex) Query(ctx context.Context, queryVector []float32, q service.IndexQuery) ([]service.IndexCandidate, error) {
	return nil, fmt.Errorf("vector index not configured: QDRANT_HOST required")
}

func (i *unconfiguredIndex) Upsert(ctx context.Context, rec service.IndexRecord) error {
	return nil
}

func (i *unconfiguredIndex) Delete(ctx context.Context, id string) error {
	return nil
}

type unconfiguredModelClient struct{}

func (c *unconfiguredModelClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("model client not configured: OPENAI_API_KEY required")
}

func (c *unconfiguredModelClient) Complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	return "", fmt.Errorf("model client not configured: OPENAI_API_KEY required")
}

func (c *unconfiguredModelClient) Model() string {
	return "unconfigured"
}

type unconfiguredStorage struct{}

func (s *unconfiguredStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return fmt.Errorf("file storage not configured: S3_ENDPOINT required")
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
