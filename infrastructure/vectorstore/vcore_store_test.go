package vectorstore

import (
	"testing"

	"baseball-vector-search/domain"

	"go.mongodb.org/mongo-driver/bson"
)

func TestToBSONKeepsDocumentFieldNames(t *testing.T) {
	doc := &domain.Document{
		PlayerID:        "henderi01",
		NameLast:        "Henderson",
		BirthYear:       1958,
		PrimaryPosition: "LF",
		Category:        domain.CategoryFielder,
		Embeddings:      domain.Embedding{0.5, 0.25},
	}
	d, err := toBSON(doc)
	if err != nil {
		t.Fatalf("toBSON: %v", err)
	}
	m := d.Map()
	if m["playerID"] != "henderi01" || m["primary_position"] != "LF" {
		t.Errorf("fields = %v", m)
	}
	vec, ok := m["embeddings"].(bson.A)
	if !ok || len(vec) != 2 {
		t.Errorf("embeddings = %#v", m["embeddings"])
	}
}

func TestSearchPipeline(t *testing.T) {
	p := searchPipeline(domain.Embedding{1, 2}, 10)
	if len(p) != 2 {
		t.Fatalf("pipeline has %d stages, want 2", len(p))
	}
	search := p[0].Map()["$search"].(bson.D).Map()
	cs := search["cosmosSearch"].(bson.D).Map()
	if cs["path"] != "embeddings" || cs["k"] != 10 {
		t.Errorf("cosmosSearch = %v", cs)
	}
	if search["returnStoredSource"] != true {
		t.Error("returnStoredSource should be set")
	}
}

func TestCreateIndexCommand(t *testing.T) {
	cmd := createIndexCommand("baseball_players", 1, 1536).Map()
	if cmd["createIndexes"] != "baseball_players" {
		t.Errorf("createIndexes = %v", cmd["createIndexes"])
	}
	idx := cmd["indexes"].(bson.A)[0].(bson.D).Map()
	opts := idx["cosmosSearchOptions"].(bson.D).Map()
	if opts["kind"] != "vector-ivf" || opts["dimensions"] != 1536 || opts["similarity"] != "COS" {
		t.Errorf("cosmosSearchOptions = %v", opts)
	}
}
