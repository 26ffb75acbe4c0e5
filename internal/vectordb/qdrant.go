// ABOUTME: Qdrant vector index adapter over grpc
// ABOUTME: Deterministic point IDs from chunk IDs make upsert idempotent across re-ingests
package vectordb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/harper/bookbrain/internal/llm"
	"github.com/harper/bookbrain/internal/models"
)

// Config holds connection details for the Qdrant backend
type Config struct {
	Addr       string // grpc address, e.g. "localhost:6334"
	APIKey     string
	Collection string
}

// DB is the vector index client. All operations return the backend error
// unwrapped; the pipeline boundary translates them to the error taxonomy.
type DB struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	collection  string
}

// Connect dials Qdrant and ensures the collection exists with the expected
// vector size and cosine distance.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial qdrant: %w", err)
	}

	db := &DB{
		conn:        conn,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		collection:  cfg.Collection,
	}

	if err := db.ensureCollection(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the grpc connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) ensureCollection(ctx context.Context) error {
	_, err := db.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: db.collection,
	})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("get collection: %w", err)
	}

	_, err = db.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: db.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(llm.EmbeddingDimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// PointID derives the deterministic point UUID for a chunk ID. Re-running the
// chunker on unchanged content therefore overwrites index entries in place.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(chunkID)).String()
}

// Upsert writes one batch of chunks with their vectors. The batch either all
// succeeds or is reported failed as a whole.
func (db *DB) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, ch := range chunks {
		vec := make([]float32, len(vectors[i]))
		for j, v := range vectors[i] {
			vec[j] = float32(v)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(ch.ChunkID)),
			Vectors: qdrant.NewVectors(vec...),
			Payload: map[string]*qdrant.Value{
				"section_id":    strVal(ch.SectionID),
				"chunk_id":      strVal(ch.ChunkID),
				"content":       strVal(ch.Content),
				"title":         strVal(ch.Metadata.Title),
				"heading_level": intVal(ch.Metadata.HeadingLevel),
				"source_path":   strVal(ch.Metadata.SourcePath),
				"chunk_index":   intVal(ch.Metadata.ChunkIndex),
				"total_chunks":  intVal(ch.Metadata.TotalChunks),
				"module":        strVal(ch.Metadata.Module),
				"difficulty":    strVal(ch.Metadata.Difficulty),
				"language":      strVal(ch.Metadata.Language),
			},
		}
	}

	resp, err := db.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}

	st := resp.GetResult().GetStatus()
	if st != qdrant.UpdateStatus_Acknowledged && st != qdrant.UpdateStatus_Completed {
		return fmt.Errorf("upsert not acknowledged, status: %s", st)
	}
	return nil
}

// Search returns the top-k nearest chunks to the query vector, optionally
// restricted by conjunctive equality filters on payload fields.
func (db *DB) Search(ctx context.Context, vector []float64, topK int, filters map[string]string) ([]models.SearchResult, error) {
	vec := make([]float32, len(vector))
	for i, v := range vector {
		vec[i] = float32(v)
	}

	req := &qdrant.SearchPoints{
		CollectionName: db.collection,
		Vector:         vec,
		Limit:          uint64(topK),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if len(filters) > 0 {
		req.Filter = equalityFilter(filters)
	}

	resp, err := db.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	results := make([]models.SearchResult, 0, len(resp.GetResult()))
	for _, hit := range resp.GetResult() {
		payload := hit.GetPayload()
		if payload == nil {
			continue
		}
		results = append(results, models.SearchResult{
			ID:        hit.GetId().GetUuid(),
			Score:     float64(hit.GetScore()),
			SectionID: payloadStr(payload, "section_id"),
			Content:   payloadStr(payload, "content"),
			Metadata: models.ChunkMetadata{
				Title:        payloadStr(payload, "title"),
				HeadingLevel: payloadInt(payload, "heading_level"),
				SourcePath:   payloadStr(payload, "source_path"),
				ChunkIndex:   payloadInt(payload, "chunk_index"),
				TotalChunks:  payloadInt(payload, "total_chunks"),
				Module:       payloadStr(payload, "module"),
				Difficulty:   payloadStr(payload, "difficulty"),
				Language:     payloadStr(payload, "language"),
			},
		})
	}
	return results, nil
}

// DeleteWhere removes every point whose payload field equals value. Used for
// section-level purges when content changes.
func (db *DB) DeleteWhere(ctx context.Context, field, value string) error {
	_, err := db.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: db.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: equalityFilter(map[string]string{field: value}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	return nil
}

// Count returns the exact number of points in the collection
func (db *DB) Count(ctx context.Context) (uint64, error) {
	exact := true
	resp, err := db.points.Count(ctx, &qdrant.CountPoints{
		CollectionName: db.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return resp.GetResult().GetCount(), nil
}

func equalityFilter(filters map[string]string) *qdrant.Filter {
	conditions := make([]*qdrant.Condition, 0, len(filters))
	for key, value := range filters {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: key,
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{Keyword: value},
					},
				},
			},
		})
	}
	return &qdrant.Filter{Must: conditions}
}

func strVal(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func intVal(i int) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(i)}}
}

func payloadStr(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func payloadInt(payload map[string]*qdrant.Value, key string) int {
	if v, ok := payload[key]; ok {
		return int(v.GetIntegerValue())
	}
	return 0
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any,
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
