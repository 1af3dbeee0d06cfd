package embedding

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aqua777/docrag/ragerr"
)

// OpenAIProvider wraps github.com/sashabaranov/go-openai's embedding
// endpoint, grounded on the teacher's OpenAIEmbedding.
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIProvider builds a provider against the OpenAI embeddings
// API. An empty model falls back to text-embedding-3-small.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	m := openai.SmallEmbedding3
	if model != "" {
		m = openai.EmbeddingModel(model)
	}
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: m}
}

// NewOpenAIProviderWithClient builds a provider from a pre-constructed
// client, letting callers share one client across components or inject
// a test double's HTTP transport.
func NewOpenAIProviderWithClient(client *openai.Client, model string) *OpenAIProvider {
	m := openai.SmallEmbedding3
	if model != "" {
		m = openai.EmbeddingModel(model)
	}
	return &OpenAIProvider{client: client, model: m}
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: p.model,
	})
	if err != nil {
		return nil, ragerr.New(ragerr.EmbeddingFailure, "openai embedding request failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, ragerr.New(ragerr.EmbeddingFailure, "openai returned no embeddings", nil)
	}
	return resp.Data[0].Embedding, nil
}

// TestConnection performs a cheap one-token embed ping.
func (p *OpenAIProvider) TestConnection(ctx context.Context) error {
	_, err := p.Embed(ctx, "ping")
	if err != nil {
		return ragerr.New(ragerr.EmbeddingFailure, "connection test failed", err)
	}
	return nil
}

var _ Provider = (*OpenAIProvider)(nil)
