package retrieval

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// EmbeddingClient wraps an OpenAI-compatible embeddings endpoint. A nil
// *EmbeddingClient is a valid "not configured" collaborator.
type EmbeddingClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewEmbeddingClient builds a client against endpoint using model. Returns
// nil when endpoint is empty so callers can degrade gracefully.
func NewEmbeddingClient(endpoint, model, apiKey string, logger *zap.Logger) *EmbeddingClient {
	if endpoint == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(endpoint, "/")
	return &EmbeddingClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.Named("embedding"),
	}
}

// Embed returns the embedding vector for text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		c.logger.Warn("embedding request failed", zap.Error(err))
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0].Embedding, nil
}
