package embedding

import (
	"context"
	"errors"
	"fmt"

	"baseball-vector-search/domain"
	"baseball-vector-search/infrastructure/config"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbeddingClient implements the domain.EmbeddingClient interface using
// the OpenAI API or an Azure OpenAI deployment.
type OpenAIEmbeddingClient struct {
	client *openai.Client
	model  openai.EmbeddingModel // e.g., text-embedding-ada-002
}

var _ domain.EmbeddingClient = (*OpenAIEmbeddingClient)(nil)

// NewOpenAIEmbeddingClient creates a client for cfg.Provider. The azure
// provider needs the resource URL and routes every model to cfg.Deployment
// (or the model name when no deployment is set).
func NewOpenAIEmbeddingClient(cfg config.EmbeddingConfig) (*OpenAIEmbeddingClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embedding api key not set (AZURE_OPENAI_KEY1 or OPENAI_API_KEY)")
	}

	var clientConfig openai.ClientConfig
	switch cfg.Provider {
	case "azure":
		if cfg.URL == "" {
			return nil, errors.New("AZURE_OPENAI_URL environment variable not set")
		}
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, cfg.URL)
		if cfg.APIVersion != "" {
			clientConfig.APIVersion = cfg.APIVersion
		}
		deployment := cfg.Deployment
		if deployment == "" {
			deployment = cfg.Model
		}
		clientConfig.AzureModelMapperFunc = func(string) string { return deployment }
	case "openai":
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.URL != "" {
			clientConfig.BaseURL = cfg.URL
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	return &OpenAIEmbeddingClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  openai.EmbeddingModel(cfg.Model),
	}, nil
}

// GenerateEmbeddings generates embeddings for the given texts using the configured model.
// The result has one entry per text, in input order.
func (c *OpenAIEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating embeddings: %w", err)
	}

	embeddings := make([]domain.Embedding, len(texts))
	for i, data := range resp.Data {
		idx := data.Index
		if idx < 0 || idx >= len(texts) {
			idx = i
		}
		embeddings[idx] = domain.Embedding(data.Embedding)
	}

	return embeddings, nil
}
