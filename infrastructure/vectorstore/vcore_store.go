package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	vcoreIndexName   = "vectorSearchIndex"
	vcoreUpsertBatch = 100
)

// VCoreStore keeps full player documents in a Cosmos DB Mongo vCore
// collection and searches them with the cosmosSearch aggregation stage.
type VCoreStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	cfg    config.VCoreConfig
	dims   int
}

var _ domain.VectorStore = (*VCoreStore)(nil)

// NewVCoreStore connects with cfg.ConnString.
func NewVCoreStore(ctx context.Context, cfg config.VCoreConfig, dims int) (*VCoreStore, error) {
	if cfg.ConnString == "" {
		return nil, fmt.Errorf("AZURE_COSMOSDB_MONGO_VCORE_CONN_STR is not set")
	}
	opts := options.Client().ApplyURI(cfg.ConnString)
	if cfg.Timeout > 0 {
		opts.SetTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to vcore: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging vcore: %w", err)
	}
	return &VCoreStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		cfg:    cfg,
		dims:   dims,
	}, nil
}

// Name implements domain.VectorStore.
func (s *VCoreStore) Name() string { return config.BackendVCore }

// Upsert replaces each player's document, keyed by playerID.
func (s *VCoreStore) Upsert(ctx context.Context, docs []*domain.Document) error {
	for _, group := range chunks(withVectors(docs), vcoreUpsertBatch) {
		models := make([]mongo.WriteModel, 0, len(group))
		for _, d := range group {
			replacement, err := toBSON(d)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", d.PlayerID, err)
			}
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.D{{Key: "playerID", Value: d.PlayerID}}).
				SetReplacement(replacement).
				SetUpsert(true))
		}
		if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("bulk upsert: %w", err)
		}
	}
	return nil
}

// EnsureIndex creates the IVF vector index on the embeddings field.
func (s *VCoreStore) EnsureIndex(ctx context.Context) error {
	cmd := createIndexCommand(s.cfg.Collection, s.cfg.NumLists, s.dims)
	if err := s.coll.Database().RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}
	return nil
}

type vcoreDocument struct {
	PlayerID        string `bson:"playerID"`
	NameFirst       string `bson:"nameFirst"`
	NameLast        string `bson:"nameLast"`
	PrimaryPosition string `bson:"primary_position"`
	Category        string `bson:"category"`
}

type vcoreResult struct {
	Score    float64       `bson:"similarityScore"`
	Document vcoreDocument `bson:"document"`
}

// Query runs a cosmosSearch stage for the k nearest documents.
func (s *VCoreStore) Query(ctx context.Context, embedding domain.Embedding, k int) ([]domain.SearchHit, error) {
	cur, err := s.coll.Aggregate(ctx, searchPipeline(embedding, k))
	if err != nil {
		return nil, fmt.Errorf("aggregating: %w", err)
	}
	defer cur.Close(ctx)

	var hits []domain.SearchHit
	for cur.Next(ctx) {
		var r vcoreResult
		if err := cur.Decode(&r); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
		hits = append(hits, domain.SearchHit{
			Rank:            len(hits) + 1,
			PlayerID:        r.Document.PlayerID,
			Score:           r.Score,
			NameFirst:       r.Document.NameFirst,
			NameLast:        r.Document.NameLast,
			PrimaryPosition: r.Document.PrimaryPosition,
			Category:        r.Document.Category,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("reading cursor: %w", err)
	}
	return hits, nil
}

// Close implements domain.VectorStore.
func (s *VCoreStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// toBSON converts a document through its JSON form so stored field names
// match the documents file.
func toBSON(doc *domain.Document) (bson.D, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out bson.D
	if err := bson.UnmarshalExtJSON(data, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func searchPipeline(embedding domain.Embedding, k int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$search", Value: bson.D{
			{Key: "cosmosSearch", Value: bson.D{
				{Key: "vector", Value: []float32(embedding)},
				{Key: "path", Value: "embeddings"},
				{Key: "k", Value: k},
			}},
			{Key: "returnStoredSource", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "similarityScore", Value: bson.D{{Key: "$meta", Value: "searchScore"}}},
			{Key: "document", Value: "$$ROOT"},
		}}},
	}
}

func createIndexCommand(collection string, numLists, dims int) bson.D {
	return bson.D{
		{Key: "createIndexes", Value: collection},
		{Key: "indexes", Value: bson.A{
			bson.D{
				{Key: "name", Value: vcoreIndexName},
				{Key: "key", Value: bson.D{{Key: "embeddings", Value: "cosmosSearch"}}},
				{Key: "cosmosSearchOptions", Value: bson.D{
					{Key: "kind", Value: "vector-ivf"},
					{Key: "numLists", Value: numLists},
					{Key: "similarity", Value: "COS"},
					{Key: "dimensions", Value: dims},
				}},
			},
		}},
	}
}
