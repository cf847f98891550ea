package index

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"

	"github.com/bull/insights-rag-server/internal/document"
)

// QdrantStore keeps the index in a Qdrant collection. Existence of the
// collection is the load-vs-build signal for this backend; the data
// itself stays server-side, so Load is a connectivity check only.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  uint64
}

// NewQdrantStore connects to Qdrant and verifies health with retry,
// failing fast when the server is unreachable.
func NewQdrantStore(host string, port int, collection string, dimension int) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &QdrantStore{
		client:     client,
		collection: collection,
		dimension:  uint64(dimension),
	}

	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	return s, nil
}

// healthCheckWithRetry probes the server with exponential backoff:
// 500ms initial, 10s max interval, 30s max elapsed.
func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		result, err := s.client.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		if result == nil || result.Title == "" {
			return fmt.Errorf("health check returned invalid response")
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

// Exists reports whether the index collection is present.
func (s *QdrantStore) Exists(ctx context.Context) (bool, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return true, nil
		}
	}
	return false, nil
}

// Load verifies the collection is reachable; points already live in
// Qdrant.
func (s *QdrantStore) Load(ctx context.Context) error {
	if _, err := s.client.GetCollectionInfo(ctx, s.collection); err != nil {
		return fmt.Errorf("get collection: %w", err)
	}
	return nil
}

// Persist creates the collection and upserts all units in batches of
// 100 with retry.
func (s *QdrantStore) Persist(ctx context.Context, units []document.Unit, vectors [][]float32) error {
	if len(units) != len(vectors) {
		return fmt.Errorf("units and vectors length mismatch: %d != %d", len(units), len(vectors))
	}

	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	const batchSize = 100
	for i := 0; i < len(units); i += batchSize {
		end := i + batchSize
		if end > len(units) {
			end = len(units)
		}

		points := make([]*qdrant.PointStruct, 0, end-i)
		for j := i; j < end; j++ {
			u := units[j]
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(u.ID),
				Vectors: qdrant.NewVectors(vectors[j]...),
				Payload: qdrant.NewValueMap(map[string]any{
					"source":      u.Metadata.Source,
					"unit_type":   string(u.Metadata.UnitType),
					"range_start": u.Metadata.RangeStart,
					"range_end":   u.Metadata.RangeEnd,
					"sheet":       u.Metadata.Sheet,
					"content":     u.Content,
				}),
			})
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search runs vector similarity search and rebuilds units from point
// payloads. Result order is the server's descending-score order.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		payload := point.Payload
		results = append(results, SearchResult{
			Unit: document.Unit{
				ID:      point.Id.GetUuid(),
				Content: payload["content"].GetStringValue(),
				Metadata: document.Metadata{
					Source:     payload["source"].GetStringValue(),
					UnitType:   document.UnitType(payload["unit_type"].GetStringValue()),
					RangeStart: int(payload["range_start"].GetIntegerValue()),
					RangeEnd:   int(payload["range_end"].GetIntegerValue()),
					Sheet:      payload["sheet"].GetStringValue(),
				},
			},
			Score: float64(point.Score),
		})
	}
	return results, nil
}

// Count returns the collection's point count.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	collection, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return int(collection.GetPointsCount()), nil
}

// Drop deletes the collection if it exists.
func (s *QdrantStore) Drop(ctx context.Context) error {
	exists, err := s.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// Close closes the client connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
