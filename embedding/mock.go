package embedding

import (
	"context"
	"sync"
)

// MockProvider is a hand-rolled test double: no mocking framework,
// matching the teacher's test style. EmbedFunc, when set, overrides the
// default deterministic embedding.
type MockProvider struct {
	mu        sync.Mutex
	Calls     []string
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
	FailOn    map[string]error
}

// NewMockProvider returns a provider whose embeddings are deterministic
// functions of the input text's characters and their positions, useful for asserting retrieval ranking
// without a live embedding service.
func NewMockProvider() *MockProvider {
	return &MockProvider{FailOn: map[string]error{}}
}

func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, text)
	fn := m.EmbedFunc
	failErr, shouldFail := m.FailOn[text]
	m.mu.Unlock()

	if shouldFail {
		return nil, failErr
	}
	if fn != nil {
		return fn(ctx, text)
	}
	return deterministicVector(text), nil
}

func (m *MockProvider) TestConnection(ctx context.Context) error {
	return nil
}

// deterministicVector derives a small fixed-dimension vector from text
// so tests can assert similarity ordering without a real model.
func deterministicVector(text string) []float32 {
	const dims = 8
	vec := make([]float32, dims)
	for i, r := range text {
		vec[i%dims] += float32(r%31) + 1
	}
	return vec
}

var _ Provider = (*MockProvider)(nil)
