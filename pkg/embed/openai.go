package embed

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Wolfe-Jam/faf-go/pkg/fafb"
)

// DefaultBaseURL is the default OpenAI API base URL.
const DefaultBaseURL = "https://api.openai.com/v1"

// Defaults for the OpenAI embedding provider.
const (
	DefaultModel      = "text-embedding-3-small"
	DefaultDimensions = 1536
)

// OpenAIProvider computes embeddings through the OpenAI embeddings API
// or any compatible endpoint (Azure, Ollama, local gateways).
type OpenAIProvider struct {
	client     openai.Client
	model      string
	baseURL    string
	apiKey     string
	dimensions int
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithModel sets the embedding model.
func WithModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.model = model
	}
}

// WithBaseURL points the provider at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.baseURL = baseURL
	}
}

// WithAPIKey sets the API key explicitly instead of reading the
// environment.
func WithAPIKey(key string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.apiKey = key
	}
}

// WithDimensions requests vectors of the given width from models that
// support shortened embeddings.
func WithDimensions(n int) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.dimensions = n
	}
}

// NewOpenAIProvider builds a provider. If no key is given it falls back
// to OPENAI_API_KEY; if no base URL is given it falls back to
// OPENAI_BASE_URL, then to the public API.
func NewOpenAIProvider(opts ...OpenAIOption) (*OpenAIProvider, error) {
	p := &OpenAIProvider{
		model:      DefaultModel,
		baseURL:    DefaultBaseURL,
		dimensions: DefaultDimensions,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.apiKey == "" {
		p.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if p.apiKey == "" {
		return nil, fmt.Errorf("embed: OpenAI API key is required (provide via WithAPIKey or OPENAI_API_KEY)")
	}
	if p.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			p.baseURL = envBaseURL
		}
	}
	if p.dimensions < 1 || p.dimensions > fafb.MaxEmbeddingDim {
		return nil, fmt.Errorf("embed: dimensions %d outside 1-%d", p.dimensions, fafb.MaxEmbeddingDim)
	}
	p.client = openai.NewClient(
		option.WithAPIKey(p.apiKey),
		option.WithBaseURL(p.baseURL),
	)
	return p, nil
}

func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Dimensions() int { return p.dimensions }

// Embed sends one batched request for all texts.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:      openai.EmbeddingModel(p.model),
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Dimensions: openai.Int(int64(p.dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("embed: create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || int(item.Index) >= len(out) {
			return nil, fmt.Errorf("embed: response index %d out of range", item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		out[item.Index] = vec
	}
	return out, nil
}
