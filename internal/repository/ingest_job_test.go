//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/testutil"
)

func createJobWithItem(ctx context.Context, t *testing.T, itemRepo *KnowledgeItemRepository, jobRepo *IngestJobRepository) *domain.IngestJob {
	t.Helper()

	item := testItem("ws-1")
	item.Status = domain.ItemStatusProcessing
	item.Embedding = nil
	require.NoError(t, itemRepo.Create(ctx, item))

	job := domain.NewIngestJob(uuid.NewString(), item.ID, domain.IngestJobStatusPending, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, job))
	return job
}

func TestIngestJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	itemRepo := NewKnowledgeItemRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	first := createJobWithItem(ctx, t, itemRepo, jobRepo)
	second := createJobWithItem(ctx, t, itemRepo, jobRepo)

	claimed, err := jobRepo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, job := range claimed {
		assert.Equal(t, domain.IngestJobStatusProcessing, job.Status)
	}

	// Claimed jobs are not claimable again.
	claimed, err = jobRepo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	_ = first
	_ = second
}

func TestIngestJobRepository_ClaimPending_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	itemRepo := NewKnowledgeItemRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	for i := 0; i < 3; i++ {
		createJobWithItem(ctx, t, itemRepo, jobRepo)
	}

	claimed, err := jobRepo.ClaimPending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, claimed, 2)

	claimed, err = jobRepo.ClaimPending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, claimed, 1)
}

func TestIngestJobRepository_RequeueAndRetries(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	itemRepo := NewKnowledgeItemRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	job := createJobWithItem(ctx, t, itemRepo, jobRepo)

	claimed, err := jobRepo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, jobRepo.IncrementRetries(ctx, job.ID))
	require.NoError(t, jobRepo.Requeue(ctx, job.ID, "retry 1: download failed"))

	reloaded, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusPending, reloaded.Status)
	assert.EqualValues(t, 1, reloaded.Retries)
	assert.Equal(t, "retry 1: download failed", reloaded.Error)

	// Requeued jobs can be claimed again.
	claimed, err = jobRepo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, claimed, 1)
}

func TestIngestJobRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	itemRepo := NewKnowledgeItemRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	job := createJobWithItem(ctx, t, itemRepo, jobRepo)

	require.NoError(t, jobRepo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusCompleted, ""))

	reloaded, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusCompleted, reloaded.Status)
	assert.NotNil(t, reloaded.ProcessedAt)

	err = jobRepo.UpdateStatus(ctx, uuid.NewString(), domain.IngestJobStatusFailed, "boom")
	assert.ErrorIs(t, err, domain.ErrIngestJobNotFound)
}

func TestIngestJobRepository_DeletedItemCascades(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	itemRepo := NewKnowledgeItemRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	job := createJobWithItem(ctx, t, itemRepo, jobRepo)

	require.NoError(t, itemRepo.Delete(ctx, job.ItemID, "ws-1"))

	_, err := jobRepo.GetByID(ctx, job.ID)
	assert.ErrorIs(t, err, domain.ErrIngestJobNotFound)
}
