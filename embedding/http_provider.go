package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aqua777/docrag/diagnostics"
	"github.com/aqua777/docrag/ragerr"
	"github.com/aqua777/docrag/textsplitter"
)

// HTTPProvider implements the abstract embedding provider contract
// directly: POST <base>/embeddings {model, prompt} -> {embedding}.
// Grounded on the teacher's OllamaEmbedding, generalized to the literal
// wire contract the specification names instead of Ollama's
// /api/embeddings path.
type HTTPProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	sink       diagnostics.Sink
	tokenizer  *textsplitter.TikTokenTokenizer
}

// HTTPProviderOption configures an HTTPProvider.
type HTTPProviderOption func(*HTTPProvider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPProviderOption {
	return func(p *HTTPProvider) { p.httpClient = client }
}

// WithSink overrides the diagnostics sink.
func WithSink(sink diagnostics.Sink) HTTPProviderOption {
	return func(p *HTTPProvider) { p.sink = sink }
}

// NewHTTPProvider builds a provider against baseURL for model. The
// tiktoken encoding is best-effort: if it fails to load (offline,
// unknown model), truncation still happens on character count alone
// and no token estimate is logged.
func NewHTTPProvider(baseURL, model string, opts ...HTTPProviderOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL:    baseURL,
		model:      model,
		httpClient: http.DefaultClient,
		sink:       diagnostics.Noop(),
	}
	if tok, err := textsplitter.NewTikTokenTokenizer(); err == nil {
		p.tokenizer = tok
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type httpEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type httpEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *HTTPProvider) truncate(text string) string {
	if len(text) <= MaxInputChars {
		return text
	}
	fields := []any{"original_chars", len(text), "truncated_chars", MaxInputChars}
	if p.tokenizer != nil {
		fields = append(fields, "original_tokens", p.tokenizer.CountTokens(text))
	}
	p.sink.Warn("embedding input truncated", fields...)
	return text[:MaxInputChars]
}

// Embed performs the embedding request.
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(httpEmbeddingRequest{Model: p.model, Prompt: p.truncate(text)})
	if err != nil {
		return nil, ragerr.New(ragerr.EmbeddingFailure, "failed to marshal embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, ragerr.New(ragerr.EmbeddingFailure, "failed to build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, ragerr.New(ragerr.EmbeddingFailure, "embedding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, ragerr.New(ragerr.EmbeddingFailure, fmt.Sprintf("embedding provider returned %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var result httpEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, ragerr.New(ragerr.EmbeddingFailure, "failed to decode embedding response", err)
	}
	return result.Embedding, nil
}

// TestConnection performs a cheap, zero-length-safe embed ping.
func (p *HTTPProvider) TestConnection(ctx context.Context) error {
	_, err := p.Embed(ctx, "ping")
	if err != nil {
		return ragerr.New(ragerr.EmbeddingFailure, "connection test failed", err)
	}
	return nil
}

var _ Provider = (*HTTPProvider)(nil)
