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

func testCollection(workspaceID, name string) *domain.Collection {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Collection{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		Description: "A collection",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCollectionRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCollectionRepository(pool)

	c := testCollection("ws-1", "runbooks")
	require.NoError(t, repo.Create(ctx, c))

	retrieved, err := repo.GetByIDForWorkspace(ctx, c.ID, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, c.Name, retrieved.Name)
	assert.Equal(t, c.Description, retrieved.Description)

	_, err = repo.GetByIDForWorkspace(ctx, c.ID, "ws-2")
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestCollectionRepository_ListAndNames(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCollectionRepository(pool)

	require.NoError(t, repo.Create(ctx, testCollection("ws-1", "beta")))
	require.NoError(t, repo.Create(ctx, testCollection("ws-1", "alpha")))
	require.NoError(t, repo.Create(ctx, testCollection("ws-2", "gamma")))

	collections, err := repo.ListByWorkspace(ctx, "ws-1")
	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, "alpha", collections[0].Name)
	assert.Equal(t, "beta", collections[1].Name)

	names, err := repo.NamesByWorkspace(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
}

func TestCollectionRepository_DuplicateNameRejected(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewCollectionRepository(pool)

	require.NoError(t, repo.Create(ctx, testCollection("ws-1", "runbooks")))
	err := repo.Create(ctx, testCollection("ws-1", "runbooks"))
	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeAlreadyExists, domainErr.Code)

	// Same name in another workspace is fine.
	require.NoError(t, repo.Create(ctx, testCollection("ws-2", "runbooks")))
}
