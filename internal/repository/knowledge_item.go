package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/vantagehq/vantage/internal/domain"
	"github.com/vantagehq/vantage/internal/pagination"
	"github.com/vantagehq/vantage/internal/service"
)

const itemColumns = `id, workspace_id, collection_id, type, status, title, content, summary, embedding, tags, metadata, created_at, updated_at`

type KnowledgeItemRepository struct {
	db dbtx
}

func NewKnowledgeItemRepository(pool *pgxpool.Pool) *KnowledgeItemRepository {
	return &KnowledgeItemRepository{db: pool}
}

func NewKnowledgeItemRepositoryWithTx(tx pgx.Tx) *KnowledgeItemRepository {
	return &KnowledgeItemRepository{db: tx}
}

func (r *KnowledgeItemRepository) Create(ctx context.Context, k *domain.KnowledgeItem) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO knowledge_items (id, workspace_id, collection_id, type, status, title, content, summary, embedding, tags, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		k.ID, k.WorkspaceID, nullableString(k.CollectionID), k.Type, k.Status, k.Title, k.Content, k.Summary,
		nullableVector(k.Embedding), k.Tags, k.Metadata, k.CreatedAt, k.UpdatedAt,
	)
	return err
}

// GetByID fetches an item without workspace scoping. Reserved for the
// ingest worker; request paths must use GetByIDForWorkspace.
func (r *KnowledgeItemRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM knowledge_items WHERE id = $1`,
		id,
	)
	return scanItemRow(row)
}

// GetByIDForWorkspace fetches an item scoped by workspace. This is the
// authoritative tenant-isolation read: an id that exists under another
// workspace behaves exactly like a missing row.
func (r *KnowledgeItemRepository) GetByIDForWorkspace(ctx context.Context, id, workspaceID string) (*domain.KnowledgeItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM knowledge_items WHERE id = $1 AND workspace_id = $2`,
		id, workspaceID,
	)
	return scanItemRow(row)
}

// GetManyForWorkspace fetches the given ids scoped by workspace. Ids with
// no matching row are silently absent from the result.
func (r *KnowledgeItemRepository) GetManyForWorkspace(ctx context.Context, ids []string, workspaceID string) ([]*domain.KnowledgeItem, error) {
	if len(ids) == 0 {
		return []*domain.KnowledgeItem{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM knowledge_items WHERE id = ANY($1) AND workspace_id = $2`,
		ids, workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItemRows(rows)
}

// ListReadyForWorkspace returns ready items for the fallback scan,
// optionally scoped to a collection.
func (r *KnowledgeItemRepository) ListReadyForWorkspace(ctx context.Context, workspaceID, collectionID string, limit int) ([]*domain.KnowledgeItem, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows pgx.Rows
	var err error
	if collectionID != "" {
		rows, err = r.db.Query(ctx,
			`SELECT `+itemColumns+` FROM knowledge_items
			 WHERE workspace_id = $1 AND collection_id = $2 AND status = $3
			 ORDER BY updated_at DESC
			 LIMIT $4`,
			workspaceID, collectionID, domain.ItemStatusReady, limit,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+itemColumns+` FROM knowledge_items
			 WHERE workspace_id = $1 AND status = $2
			 ORDER BY updated_at DESC
			 LIMIT $3`,
			workspaceID, domain.ItemStatusReady, limit,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItemRows(rows)
}

func (r *KnowledgeItemRepository) ListByWorkspaceWithCursor(ctx context.Context, workspaceID string, cursor *pagination.Cursor, limit int) (*service.ItemPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+itemColumns+` FROM knowledge_items
			 WHERE workspace_id = $1 AND (updated_at, id) < ($2, $3)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $4`,
			workspaceID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+itemColumns+` FROM knowledge_items
			 WHERE workspace_id = $1
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $2`,
			workspaceID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanItemRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.UpdatedAt)
	}

	return &service.ItemPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// UpdateProcessed writes the processor's output and flips the item to
// ready. The status guard keeps terminal states terminal.
func (r *KnowledgeItemRepository) UpdateProcessed(ctx context.Context, id string, content, summary string, keywords []string, embedding []float32, metadata map[string]any) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_items
		 SET content = $1, summary = $2, tags = $3, embedding = $4, metadata = metadata || $5, status = $6, updated_at = $7
		 WHERE id = $8 AND status = $9`,
		content, summary, keywords, nullableVector(embedding), metadata,
		domain.ItemStatusReady, time.Now().UTC(), id, domain.ItemStatusProcessing,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// MarkFailed flips a processing item to failed with a reason.
func (r *KnowledgeItemRepository) MarkFailed(ctx context.Context, id, reason string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_items
		 SET status = $1, metadata = metadata || jsonb_build_object('error', $2::text), updated_at = $3
		 WHERE id = $4 AND status = $5`,
		domain.ItemStatusFailed, reason, time.Now().UTC(), id, domain.ItemStatusProcessing,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *KnowledgeItemRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE knowledge_items SET embedding = $1, updated_at = $2 WHERE id = $3`,
		pgvector.NewVector(embedding), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *KnowledgeItemRepository) Delete(ctx context.Context, id, workspaceID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM knowledge_items WHERE id = $1 AND workspace_id = $2`,
		id, workspaceID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func scanItemRow(row pgx.Row) (*domain.KnowledgeItem, error) {
	var k domain.KnowledgeItem
	var collectionID *string
	var embedding *pgvector.Vector
	err := row.Scan(&k.ID, &k.WorkspaceID, &collectionID, &k.Type, &k.Status, &k.Title, &k.Content, &k.Summary,
		&embedding, &k.Tags, &k.Metadata, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	if collectionID != nil {
		k.CollectionID = *collectionID
	}
	if embedding != nil {
		k.Embedding = embedding.Slice()
	}
	return &k, nil
}

func scanItemRows(rows pgx.Rows) ([]*domain.KnowledgeItem, error) {
	var results []*domain.KnowledgeItem
	for rows.Next() {
		var k domain.KnowledgeItem
		var collectionID *string
		var embedding *pgvector.Vector
		if err := rows.Scan(&k.ID, &k.WorkspaceID, &collectionID, &k.Type, &k.Status, &k.Title, &k.Content, &k.Summary,
			&embedding, &k.Tags, &k.Metadata, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, err
		}
		if collectionID != nil {
			k.CollectionID = *collectionID
		}
		if embedding != nil {
			k.Embedding = embedding.Slice()
		}
		results = append(results, &k)
	}
	return results, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableVector(v []float32) *pgvector.Vector {
	if len(v) == 0 {
		return nil
	}
	vec := pgvector.NewVector(v)
	return &vec
}
