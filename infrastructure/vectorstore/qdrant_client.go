package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
)

const qdrantUpsertBatch = 256

// QdrantClient implements the domain.VectorStore interface using Qdrant.
type QdrantClient struct {
	conn           *grpc.ClientConn
	client         qdrant.PointsClient
	collectionName string
	logger         *slog.Logger
}

var _ domain.VectorStore = (*QdrantClient)(nil)

// NewQdrantClient connects to cfg.Addr and makes sure the collection exists
// with vectors of the given size.
func NewQdrantClient(ctx context.Context, cfg config.QdrantConfig, dims int, logger *slog.Logger) (*QdrantClient, error) {
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("could not connect to Qdrant: %w", err)
	}

	client := &QdrantClient{
		conn:           conn,
		client:         qdrant.NewPointsClient(conn),
		collectionName: cfg.Collection,
		logger:         logger,
	}

	if err := client.ensureCollectionExists(ctx, qdrant.NewCollectionsClient(conn), uint64(dims)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure collection exists: %w", err)
	}

	return client, nil
}

// Name implements domain.VectorStore.
func (c *QdrantClient) Name() string { return config.BackendQdrant }

// ensureCollectionExists checks if the collection exists and creates it if it doesn't.
func (c *QdrantClient) ensureCollectionExists(ctx context.Context, collectionsClient qdrant.CollectionsClient, size uint64) error {
	_, err := collectionsClient.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: c.collectionName,
	})
	if err == nil {
		return nil
	}

	c.logger.Info("creating qdrant collection", "collection", c.collectionName, "size", size)
	_, err = collectionsClient.Create(ctx, &qdrant.CreateCollection{
		CollectionName: c.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// mapToPayload converts payload fields to Qdrant values.
func mapToPayload(data map[string]interface{}) (map[string]*qdrant.Value, error) {
	payload := make(map[string]*qdrant.Value, len(data))
	for key, val := range data {
		switch v := val.(type) {
		case string:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		case int:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
		case int64:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
		case float64:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
		case bool:
			payload[key] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
		default:
			return nil, fmt.Errorf("unsupported type for payload field '%s': %T", key, v)
		}
	}
	return payload, nil
}

// Upsert adds or updates players in the Qdrant collection. Point ids are
// derived from the player id.
func (c *QdrantClient) Upsert(ctx context.Context, docs []*domain.Document) error {
	for _, batch := range chunks(withVectors(docs), qdrantUpsertBatch) {
		points := make([]*qdrant.PointStruct, 0, len(batch))
		for _, d := range batch {
			payload, err := mapToPayload(payloadFields(d))
			if err != nil {
				return fmt.Errorf("failed to convert payload for %s: %w", d.PlayerID, err)
			}
			points = append(points, &qdrant.PointStruct{
				Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: pointID(d.PlayerID)}},
				Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: d.Embeddings}}},
				Payload: payload,
			})
		}

		_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: c.collectionName,
			Points:         points,
			Wait:           proto.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("failed to upsert points to Qdrant: %w", err)
		}
	}
	return nil
}

// Query returns the k players nearest to embedding.
func (c *QdrantClient) Query(ctx context.Context, embedding domain.Embedding, k int) ([]domain.SearchHit, error) {
	searchResult, err := c.client.Search(ctx, &qdrant.SearchPoints{
		CollectionName: c.collectionName,
		Vector:         embedding,
		Limit:          uint64(k),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points in Qdrant: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(searchResult.GetResult()))
	for _, point := range searchResult.GetResult() {
		hits = append(hits, hitFromPayload(len(hits)+1, float64(point.GetScore()), point.GetPayload()))
	}
	return hits, nil
}

func hitFromPayload(rank int, score float64, payload map[string]*qdrant.Value) domain.SearchHit {
	return domain.SearchHit{
		Rank:            rank,
		PlayerID:        payload["playerID"].GetStringValue(),
		Score:           score,
		NameFirst:       payload["nameFirst"].GetStringValue(),
		NameLast:        payload["nameLast"].GetStringValue(),
		PrimaryPosition: payload["primary_position"].GetStringValue(),
		Category:        payload["category"].GetStringValue(),
	}
}

// Close implements domain.VectorStore.
func (c *QdrantClient) Close() error { return c.conn.Close() }
