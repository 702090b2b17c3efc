package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"
)

const (
	cogSearchUploadBatch = 100
	cogSearchVectorField = "embeddings"
	cogSearchSelect      = "id,playerID,nameFirst,nameLast,primary_position,category"
)

// CogSearchClient is a client for the Azure AI Search REST API. Documents
// are uploaded with mergeOrUpload and searched with a vector query on the
// embeddings field.
type CogSearchClient struct {
	cfg        config.CogSearchConfig
	dims       int
	httpClient *http.Client
	indexReady bool
}

var _ domain.VectorStore = (*CogSearchClient)(nil)

// NewCogSearchClient creates a client for cfg.URL and cfg.Index. The admin
// key is required so the client can create the index and upload documents.
func NewCogSearchClient(cfg config.CogSearchConfig, dims int) (*CogSearchClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("AZURE_SEARCH_URL is not set")
	}
	if cfg.AdminKey == "" {
		return nil, fmt.Errorf("AZURE_SEARCH_ADMIN_KEY is not set")
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &CogSearchClient{
		cfg:        cfg,
		dims:       dims,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name implements domain.VectorStore.
func (c *CogSearchClient) Name() string { return config.BackendCogSearch }

// cogSearchField is one field of an index schema.
type cogSearchField struct {
	Name                      string `json:"name"`
	Type                      string `json:"type"`
	Key                       bool   `json:"key,omitempty"`
	Searchable                bool   `json:"searchable"`
	Filterable                bool   `json:"filterable"`
	Sortable                  bool   `json:"sortable"`
	Retrievable               bool   `json:"retrievable"`
	Dimensions                int    `json:"dimensions,omitempty"`
	VectorSearchConfiguration string `json:"vectorSearchConfiguration,omitempty"`
}

func (c *CogSearchClient) indexSchema() map[string]any {
	text := func(name string) cogSearchField {
		return cogSearchField{Name: name, Type: "Edm.String", Searchable: true, Filterable: true, Sortable: true, Retrievable: true}
	}
	number := func(name string) cogSearchField {
		return cogSearchField{Name: name, Type: "Edm.Int32", Filterable: true, Sortable: true, Retrievable: true}
	}
	id := text("id")
	id.Key = true
	return map[string]any{
		"name": c.cfg.Index,
		"fields": []cogSearchField{
			id,
			text("playerID"),
			text("nameFirst"),
			text("nameLast"),
			text("primary_position"),
			text("category"),
			text("primary_team"),
			number("total_games"),
			number("debut_year"),
			text("embeddings_str"),
			{
				Name:                      cogSearchVectorField,
				Type:                      "Collection(Edm.Single)",
				Searchable:                true,
				Retrievable:               true,
				Dimensions:                c.dims,
				VectorSearchConfiguration: "vector-config",
			},
		},
		"vectorSearch": map[string]any{
			"algorithmConfigurations": []map[string]any{{
				"name": "vector-config",
				"kind": "hnsw",
				"hnswParameters": map[string]any{
					"m":              4,
					"efConstruction": 400,
					"efSearch":       500,
					"metric":         "cosine",
				},
			}},
		},
	}
}

// EnsureIndex creates or updates the index definition.
func (c *CogSearchClient) EnsureIndex(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPut, c.endpoint("indexes", c.cfg.Index), c.cfg.AdminKey, c.indexSchema(), nil); err != nil {
		return err
	}
	c.indexReady = true
	return nil
}

// Upsert uploads documents in batches with the mergeOrUpload action. The
// index is defined first if this client has not done so yet.
func (c *CogSearchClient) Upsert(ctx context.Context, docs []*domain.Document) error {
	if !c.indexReady {
		if err := c.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("defining index %s: %w", c.cfg.Index, err)
		}
	}
	for _, group := range chunks(withVectors(docs), cogSearchUploadBatch) {
		values := make([]map[string]any, 0, len(group))
		for _, d := range group {
			v := payloadFields(d)
			v["@search.action"] = "mergeOrUpload"
			v["id"] = documentID(d)
			v[cogSearchVectorField] = d.Embeddings
			values = append(values, v)
		}
		var resp cogSearchIndexResponse
		err := c.do(ctx, http.MethodPost, c.endpoint("indexes", c.cfg.Index, "docs", "index"), c.cfg.AdminKey,
			map[string]any{"value": values}, &resp)
		if err != nil {
			return fmt.Errorf("uploading documents: %w", err)
		}
		if failed := resp.failures(); len(failed) > 0 {
			return fmt.Errorf("uploading documents: %d rejected (first %s)", len(failed), failed[0])
		}
	}
	return nil
}

type cogSearchIndexResponse struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"value"`
}

func (r cogSearchIndexResponse) failures() []string {
	var out []string
	for _, v := range r.Value {
		if !v.Status {
			out = append(out, fmt.Sprintf("%s: %s", v.Key, v.ErrorMessage))
		}
	}
	return out
}

// cogSearchResponse is the subset of a search response the client reads.
type cogSearchResponse struct {
	Value []struct {
		Score           float64 `json:"@search.score"`
		PlayerID        string  `json:"playerID"`
		NameFirst       string  `json:"nameFirst"`
		NameLast        string  `json:"nameLast"`
		PrimaryPosition string  `json:"primary_position"`
		Category        string  `json:"category"`
	} `json:"value"`
}

// Query runs a vector search for the k nearest documents, ranked by score.
func (c *CogSearchClient) Query(ctx context.Context, embedding domain.Embedding, k int) ([]domain.SearchHit, error) {
	body := map[string]any{
		"count":  true,
		"select": cogSearchSelect,
		"top":    k,
		"vectors": []map[string]any{{
			"value":  embedding,
			"fields": cogSearchVectorField,
			"k":      k,
		}},
	}
	key := c.cfg.QueryKey
	if key == "" {
		key = c.cfg.AdminKey
	}

	var resp cogSearchResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint("indexes", c.cfg.Index, "docs", "search"), key, body, &resp); err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(resp.Value))
	for _, v := range resp.Value {
		hits = append(hits, domain.SearchHit{
			Rank:            len(hits) + 1,
			PlayerID:        v.PlayerID,
			Score:           v.Score,
			NameFirst:       v.NameFirst,
			NameLast:        v.NameLast,
			PrimaryPosition: v.PrimaryPosition,
			Category:        v.Category,
		})
	}
	return hits, nil
}

// Close implements domain.VectorStore.
func (c *CogSearchClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *CogSearchClient) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	params := url.Values{}
	params.Add("api-version", c.cfg.APIVersion)
	return c.cfg.URL + "/" + strings.Join(escaped, "/") + "?" + params.Encode()
}

// do sends a JSON request and decodes a JSON response into out when out is non-nil.
func (c *CogSearchClient) do(ctx context.Context, method, endpoint, key string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status code %d): %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
