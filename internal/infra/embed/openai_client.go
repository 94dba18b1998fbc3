package embed

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient adapts go-openai's embeddings endpoint to EmbeddingClient,
// the same dependency the teacher's summarizer.OpenAI wraps for chat
// completions.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient constructs an OpenAIClient from an API key.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{client: openai.NewClient(apiKey)}
}

// CreateEmbedding implements EmbeddingClient.
func (c *OpenAIClient) CreateEmbedding(ctx context.Context, model, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings api error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings api returned empty response")
	}
	return resp.Data[0].Embedding, nil
}
