package botly

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/trishiras/botly-v3-rag/internal/rag"
	"github.com/trishiras/botly-v3-rag/internal/rag/providers"
)

// MarkerToken is the literal substring that selects the document-grounded
// pipeline. Matching is case-insensitive.
const MarkerToken = "@pdf"

// RefusalReply is returned when a query mentions the marker token but no
// document has been attached, or retrieval comes back empty. The model is
// never invoked in that case.
const RefusalReply = "Sorry, I cannot find any attached PDF to this conversation."

// ApologyReply is returned when an inner pipeline stage fails. Reply never
// surfaces an error to the caller.
const ApologyReply = "Sorry, something went wrong while generating the response. Please try again."

// Chunking strategies.
const (
	ChunkStrategySemantic = "semantic"
	ChunkStrategyToken    = "token"
)

// Config holds all Bot settings. It is fixed at construction.
type Config struct {
	// Model is the model invocation configuration
	Model rag.ModelConfig

	// Embedding provider settings
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingBaseURL  string
	EmbeddingAPIKey   string
	// EmbeddingRate caps embedding requests per second during ingestion;
	// zero means unlimited
	EmbeddingRate float64

	// TopK is the number of chunks retrieved per RAG query
	TopK int

	// Chunking settings
	ChunkStrategy   string
	BreakPercentile float64
	ChunkSize       int
	ChunkOverlap    int
}

// DefaultConfig returns the stock Botly settings: a local Ollama backend
// for both chat and embeddings, top-3 retrieval and semantic chunking.
func DefaultConfig() Config {
	return Config{
		Model:             rag.DefaultModelConfig(),
		EmbeddingProvider: "ollama",
		EmbeddingModel:    "nomic-embed-text",
		EmbeddingBaseURL:  "http://localhost:11434",
		TopK:              DefaultTopK,
		ChunkStrategy:     ChunkStrategySemantic,
		BreakPercentile:   95,
		ChunkSize:         200,
		ChunkOverlap:      50,
	}
}

// Option configures a Bot.
type Option func(*Bot)

// WithConfig replaces the entire configuration.
func WithConfig(cfg Config) Option {
	return func(b *Bot) {
		b.cfg = cfg
	}
}

// WithModel sets the chat model name.
func WithModel(model string) Option {
	return func(b *Bot) {
		b.cfg.Model.Model = model
	}
}

// WithBaseURL sets the Ollama endpoint for chat.
func WithBaseURL(baseURL string) Option {
	return func(b *Bot) {
		b.cfg.Model.BaseURL = baseURL
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(b *Bot) {
		b.cfg.Model.Temperature = t
	}
}

// WithTopP sets nucleus sampling diversity.
func WithTopP(p float64) Option {
	return func(b *Bot) {
		b.cfg.Model.TopP = p
	}
}

// WithModelTopK sets the model's token sampling pool size.
func WithModelTopK(k int) Option {
	return func(b *Bot) {
		b.cfg.Model.TopK = k
	}
}

// WithMaxTokens caps the number of generated tokens.
func WithMaxTokens(n int) Option {
	return func(b *Bot) {
		b.cfg.Model.NumPredict = n
	}
}

// WithKeepAlive sets how long the backend keeps the model loaded.
func WithKeepAlive(d time.Duration) Option {
	return func(b *Bot) {
		b.cfg.Model.KeepAlive = d
	}
}

// WithModelTimeout bounds each model invocation.
func WithModelTimeout(d time.Duration) Option {
	return func(b *Bot) {
		b.cfg.Model.Timeout = d
	}
}

// WithCache enables the in-memory reply cache.
func WithCache(enabled bool) Option {
	return func(b *Bot) {
		b.cfg.Model.Cache = enabled
	}
}

// WithVerbose enables debug logging of prompts and replies.
func WithVerbose(enabled bool) Option {
	return func(b *Bot) {
		b.cfg.Model.Verbose = enabled
	}
}

// WithEmbedding selects the embedding provider and model.
func WithEmbedding(provider, model string) Option {
	return func(b *Bot) {
		b.cfg.EmbeddingProvider = provider
		b.cfg.EmbeddingModel = model
	}
}

// WithEmbeddingAPIKey sets the embedding provider API key.
func WithEmbeddingAPIKey(key string) Option {
	return func(b *Bot) {
		b.cfg.EmbeddingAPIKey = key
	}
}

// WithRetrievalTopK sets the number of chunks retrieved per RAG query.
func WithRetrievalTopK(k int) Option {
	return func(b *Bot) {
		b.cfg.TopK = k
	}
}

// WithChunkStrategy selects semantic or token-window chunking.
func WithChunkStrategy(strategy string) Option {
	return func(b *Bot) {
		b.cfg.ChunkStrategy = strategy
	}
}

// WithChatClient injects a chat client, replacing the Ollama default.
func WithChatClient(client rag.ChatClient) Option {
	return func(b *Bot) {
		b.chat = client
	}
}

// WithEmbedder injects an embedder, replacing the configured provider.
func WithEmbedder(embedder providers.Embedder) Option {
	return func(b *Bot) {
		b.embedder = embedder
	}
}

// Bot is the chat orchestrator. It classifies each query as plain or
// document-grounded and drives the corresponding pipeline. All methods are
// safe for concurrent use; the vector index is swapped atomically on
// (re)ingestion so queries never observe a half-built index.
type Bot struct {
	cfg       Config
	chat      rag.ChatClient
	embedder  providers.Embedder
	embedding *rag.EmbeddingService
	parser    *rag.ParserManager
	retriever *Retriever

	mu          sync.RWMutex
	index       *rag.VectorIndex
	lastContext string
}

// New creates a Bot. Without options it talks to a local Ollama instance
// using the original Botly defaults.
func New(opts ...Option) (*Bot, error) {
	b := &Bot{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(b)
	}

	if b.chat == nil {
		b.chat = rag.NewOllamaClient(b.cfg.Model)
	}

	if b.embedder == nil {
		embedder, err := rag.NewEmbedder(
			rag.SetProvider(b.cfg.EmbeddingProvider),
			rag.SetModel(b.cfg.EmbeddingModel),
			rag.SetBaseURL(b.cfg.EmbeddingBaseURL),
			rag.SetAPIKey(b.cfg.EmbeddingAPIKey),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		b.embedder = embedder
	}

	var serviceOpts []rag.EmbeddingServiceOption
	if b.cfg.EmbeddingRate > 0 {
		serviceOpts = append(serviceOpts, rag.WithRateLimit(b.cfg.EmbeddingRate))
	}
	b.embedding = rag.NewEmbeddingService(b.embedder, serviceOpts...)
	b.parser = rag.NewParserManager()
	b.retriever = NewRetriever(WithTopK(b.cfg.TopK))

	rag.GlobalLogger.Info("botly initialized", "model", b.cfg.Model.Model, "embedding", b.cfg.EmbeddingModel)
	return b, nil
}

// AttachDocument ingests the document at path: parse, chunk, embed and
// build a fresh vector index. The build is all-or-nothing; on failure the
// previously attached document (if any) remains active. Attaching a new
// document replaces the old index.
func (b *Bot) AttachDocument(ctx context.Context, path string) error {
	rag.GlobalLogger.Info("ingesting document", "path", path)

	doc, err := b.parser.Parse(path)
	if err != nil {
		return newError(ErrorKindIngest, fmt.Sprintf("failed to ingest %s", path), err)
	}

	chunks, err := b.chunkDocument(ctx, doc)
	if err != nil {
		return newError(ErrorKindIndexing, "failed to chunk document", err)
	}
	if len(chunks) == 0 {
		return newError(ErrorKindIndexing, "document produced no indexable chunks", nil)
	}

	index, err := rag.BuildIndex(ctx, "document", chunks, b.embedding.Embed)
	if err != nil {
		return newError(ErrorKindIndexing, "failed to build vector index", err)
	}

	b.mu.Lock()
	b.index = index
	b.mu.Unlock()

	rag.GlobalLogger.Info("document attached", "path", path, "chunks", len(chunks))
	return nil
}

func (b *Bot) chunkDocument(ctx context.Context, doc rag.Document) ([]rag.Chunk, error) {
	switch b.cfg.ChunkStrategy {
	case ChunkStrategyToken:
		chunker, err := rag.NewTextChunker(
			rag.ChunkSize(b.cfg.ChunkSize),
			rag.ChunkOverlap(b.cfg.ChunkOverlap),
		)
		if err != nil {
			return nil, err
		}
		var chunks []rag.Chunk
		for _, page := range doc.Pages {
			pageChunks := chunker.Chunk(page.Text)
			for i := range pageChunks {
				pageChunks[i].Page = page.Number
			}
			chunks = append(chunks, pageChunks...)
		}
		return chunks, nil

	case ChunkStrategySemantic, "":
		chunker, err := rag.NewSemanticChunker(
			b.embedding.Embed,
			rag.WithBreakPercentile(b.cfg.BreakPercentile),
		)
		if err != nil {
			return nil, err
		}
		return chunker.ChunkDocument(ctx, doc)

	default:
		return nil, fmt.Errorf("unknown chunk strategy: %s", b.cfg.ChunkStrategy)
	}
}

// HasDocument reports whether a document has been attached and indexed.
func (b *Bot) HasDocument() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index != nil
}

// LastContext returns the most recent formatted context block passed to
// the model, for display alongside a RAG reply.
func (b *Bot) LastContext() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastContext
}

// Reply answers a query. A query mentioning the marker token runs the RAG
// pipeline when a document is attached, and returns the fixed refusal
// otherwise; any other query runs the plain pipeline. Reply always returns
// a non-empty string and never an error: inner failures are logged and
// surface as a fixed apology.
func (b *Bot) Reply(ctx context.Context, query string) string {
	q := strings.ToLower(query)

	if !strings.Contains(q, MarkerToken) {
		reply, err := b.plainReply(ctx, q)
		if err != nil {
			rag.GlobalLogger.Error("plain pipeline failed", "error", err)
			return ApologyReply
		}
		return reply
	}

	b.mu.RLock()
	index := b.index
	b.mu.RUnlock()

	if index == nil {
		rag.GlobalLogger.Info("marker query without attached document")
		return RefusalReply
	}

	reply, err := b.ragReply(ctx, index, q)
	if err != nil {
		rag.GlobalLogger.Error("rag pipeline failed", "error", err)
		return ApologyReply
	}
	return reply
}

func (b *Bot) plainReply(ctx context.Context, query string) (string, error) {
	messages, err := RenderPrompt(PromptPlain, map[string]string{"message": query})
	if err != nil {
		return "", err
	}
	reply, err := b.chat.Chat(ctx, messages)
	if err != nil {
		return "", newError(ErrorKindModel, "chat invocation failed", err)
	}
	return reply, nil
}

func (b *Bot) ragReply(ctx context.Context, index *rag.VectorIndex, query string) (string, error) {
	results, err := b.retriever.Retrieve(ctx, index, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		rag.GlobalLogger.Info("retrieval returned no chunks, refusing")
		return RefusalReply, nil
	}

	contextBlock := FormatContext(results)
	b.mu.Lock()
	b.lastContext = contextBlock
	b.mu.Unlock()

	messages, err := RenderPrompt(PromptRAG, map[string]string{
		"context":  contextBlock,
		"question": query,
	})
	if err != nil {
		return "", err
	}

	reply, err := b.chat.Chat(ctx, messages)
	if err != nil {
		return "", newError(ErrorKindModel, "chat invocation failed", err)
	}
	return reply, nil
}
