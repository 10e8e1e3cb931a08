package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vantagehq/vantage/internal/domain"
)

type CollectionRepository struct {
	db dbtx
}

func NewCollectionRepository(pool *pgxpool.Pool) *CollectionRepository {
	return &CollectionRepository{db: pool}
}

func (r *CollectionRepository) Create(ctx context.Context, c *domain.Collection) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO collections (id, workspace_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.WorkspaceID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.NewDomainError(domain.ErrCodeAlreadyExists, "collection name already exists in workspace")
	}
	return err
}

func (r *CollectionRepository) GetByIDForWorkspace(ctx context.Context, id, workspaceID string) (*domain.Collection, error) {
	var c domain.Collection
	err := r.db.QueryRow(ctx,
		`SELECT id, workspace_id, name, description, created_at, updated_at
		 FROM collections WHERE id = $1 AND workspace_id = $2`,
		id, workspaceID,
	).Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CollectionRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Collection, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, workspace_id, name, description, created_at, updated_at
		 FROM collections WHERE workspace_id = $1 ORDER BY name ASC`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*domain.Collection
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		collections = append(collections, &c)
	}
	return collections, rows.Err()
}

// NamesByWorkspace returns collection names for category suggestion prompts.
func (r *CollectionRepository) NamesByWorkspace(ctx context.Context, workspaceID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name FROM collections WHERE workspace_id = $1 ORDER BY name ASC`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
