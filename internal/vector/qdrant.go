// Package vector provides the qdrant-backed vector index client.
// The index is a cache over embeddings; the relational store stays the
// source of truth and every hit is re-validated there.
package vector

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

const (
	payloadWorkspaceID  = "workspace_id"
	payloadCollectionID = "collection_id"
	payloadType         = "type"
	payloadTitle        = "title"
	payloadStatus       = "status"
)

// Config holds connection parameters for a Qdrant instance.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	VectorSize uint64
}

// Record is a point stored in the index: the item's embedding plus the
// denormalized metadata used for candidate filtering.
type Record struct {
	ID           string
	Vector       []float32
	WorkspaceID  string
	CollectionID string
	Type         string
	Title        string
	Status       string
}

// Candidate is a scored nearest-neighbor hit returned by Query.
type Candidate struct {
	ID           string
	Score        float32
	WorkspaceID  string
	CollectionID string
	Type         string
	Title        string
}

// QueryFilter narrows a nearest-neighbor query by payload. The workspace
// condition here is a performance optimization only; tenant isolation is
// enforced against the relational store by the caller.
type QueryFilter struct {
	WorkspaceID  string
	CollectionID string
}

// QdrantIndex implements the vector index against a Qdrant instance.
type QdrantIndex struct {
	client *qdrant.Client
	cfg    Config
}

// NewQdrantIndex creates a QdrantIndex, ensuring the target collection
// exists (creating it with cosine distance if necessary).
func NewQdrantIndex(ctx context.Context, cfg Config) (*QdrantIndex, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	idx := &QdrantIndex{client: client, cfg: cfg}
	if err := idx.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return idx, nil
}

// ensureCollection creates the collection if it does not already exist.
func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", q.cfg.Collection, err)
	}

	return nil
}

// Upsert stores or replaces a record keyed by its item id.
func (q *QdrantIndex) Upsert(ctx context.Context, rec Record) error {
	payload := map[string]any{
		payloadWorkspaceID: rec.WorkspaceID,
		payloadType:        rec.Type,
		payloadTitle:       rec.Title,
		payloadStatus:      rec.Status,
	}
	if rec.CollectionID != "" {
		payload[payloadCollectionID] = rec.CollectionID
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.Collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(rec.ID),
				Vectors: qdrant.NewVectors(rec.Vector...),
				Payload: qdrant.NewValueMap(payload),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return nil
}

// Query returns up to topK nearest neighbors of the query vector.
func (q *QdrantIndex) Query(ctx context.Context, queryVector []float32, topK int, filter QueryFilter) ([]Candidate, error) {
	limit := uint64(topK)

	var qf *qdrant.Filter
	if filter.WorkspaceID != "" || filter.CollectionID != "" {
		qf = &qdrant.Filter{}
		if filter.WorkspaceID != "" {
			qf.Must = append(qf.Must, qdrant.NewMatch(payloadWorkspaceID, filter.WorkspaceID))
		}
		if filter.CollectionID != "" {
			qf.Must = append(qf.Must, qdrant.NewMatch(payloadCollectionID, filter.CollectionID))
		}
	}

	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.cfg.Collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		Filter:         qf,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		cand := Candidate{
			ID:    r.Id.GetUuid(),
			Score: r.Score,
		}
		if p := r.Payload; p != nil {
			if v, ok := p[payloadWorkspaceID]; ok {
				cand.WorkspaceID = v.GetStringValue()
			}
			if v, ok := p[payloadCollectionID]; ok {
				cand.CollectionID = v.GetStringValue()
			}
			if v, ok := p[payloadType]; ok {
				cand.Type = v.GetStringValue()
			}
			if v, ok := p[payloadTitle]; ok {
				cand.Title = v.GetStringValue()
			}
		}
		candidates = append(candidates, cand)
	}

	return candidates, nil
}

// Delete removes a record by item id. Deleting a missing id is not an error.
func (q *QdrantIndex) Delete(ctx context.Context, id string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.cfg.Collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(id)),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete failed: %w", err)
	}

	return nil
}

// Close releases the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}
