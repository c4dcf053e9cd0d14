package rag

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/trishiras/botly-v3-rag/internal/rag/providers"
)

// EmbedderConfig holds the configuration for creating an Embedder.
type EmbedderConfig struct {
	Provider string
	Options  map[string]interface{}
}

// EmbedderOption configures an EmbedderConfig.
type EmbedderOption func(*EmbedderConfig)

// SetProvider selects the embedding provider ("ollama", "openai").
func SetProvider(provider string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Provider = provider
	}
}

// SetModel selects the embedding model.
func SetModel(model string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options["model"] = model
	}
}

// SetBaseURL sets the provider endpoint base URL.
func SetBaseURL(baseURL string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options["base_url"] = baseURL
	}
}

// SetAPIKey sets the provider API key.
func SetAPIKey(apiKey string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options["api_key"] = apiKey
	}
}

// SetOption sets a provider-specific option.
func SetOption(key string, value interface{}) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options[key] = value
	}
}

// NewEmbedder creates an Embedder from the registered provider factories.
func NewEmbedder(opts ...EmbedderOption) (providers.Embedder, error) {
	config := &EmbedderConfig{
		Options: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.Provider == "" {
		return nil, fmt.Errorf("provider must be specified")
	}
	factory, err := providers.GetEmbedderFactory(config.Provider)
	if err != nil {
		return nil, err
	}
	return factory(config.Options)
}

// EmbeddedChunk is a chunk of text together with its embedding vector.
type EmbeddedChunk struct {
	Text      string
	Embedding []float64
	Metadata  map[string]interface{}
}

// EmbeddingService drives an Embedder over chunk batches, optionally rate
// limiting requests so bulk ingestion does not overwhelm a local backend.
type EmbeddingService struct {
	embedder providers.Embedder
	limiter  *rate.Limiter
}

// EmbeddingServiceOption configures an EmbeddingService.
type EmbeddingServiceOption func(*EmbeddingService)

// WithRateLimit caps embedding requests at rps requests per second.
func WithRateLimit(rps float64) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewEmbeddingService creates an EmbeddingService around embedder.
func NewEmbeddingService(embedder providers.Embedder, opts ...EmbeddingServiceOption) *EmbeddingService {
	s := &EmbeddingService{embedder: embedder}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed generates the embedding for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("error embedding text: %w", err)
	}
	return embedding, nil
}

// EmbedChunks embeds a slice of chunks in order. Any failure aborts the
// whole batch.
func (s *EmbeddingService) EmbedChunks(ctx context.Context, chunks []Chunk) ([]EmbeddedChunk, error) {
	embeddedChunks := make([]EmbeddedChunk, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("error embedding chunk %d: %w", i+1, err)
		}
		embeddedChunks = append(embeddedChunks, EmbeddedChunk{
			Text:      chunk.Text,
			Embedding: embedding,
			Metadata: map[string]interface{}{
				"token_size":     chunk.TokenSize,
				"page":           chunk.Page,
				"start_sentence": chunk.StartSentence,
				"end_sentence":   chunk.EndSentence,
				"chunk_index":    i,
			},
		})
	}
	return embeddedChunks, nil
}
