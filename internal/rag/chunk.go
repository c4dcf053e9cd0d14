package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Chunk is a contiguous span of document text treated as one retrieval unit.
type Chunk struct {
	// Text contains the chunk content
	Text string
	// TokenSize is the number of tokens in this chunk
	TokenSize int
	// Page is the document page the chunk came from (0 when unknown)
	Page int
	// StartSentence is the index of the first sentence in this chunk
	StartSentence int
	// EndSentence is the index of the last sentence (exclusive)
	EndSentence int
}

// TokenCounter counts tokens in a string.
type TokenCounter interface {
	Count(text string) int
}

// EmbedFunc maps text to a fixed-size vector.
type EmbedFunc func(ctx context.Context, text string) ([]float64, error)

// SemanticChunker splits text at points of low semantic continuity: each
// sentence is embedded, and a chunk boundary is placed wherever the cosine
// distance between adjacent sentence embeddings exceeds a percentile
// threshold over all adjacent distances.
type SemanticChunker struct {
	// Embed produces the sentence embeddings used for boundary detection
	Embed EmbedFunc
	// BreakPercentile is the distance percentile above which a boundary is
	// placed, in (0, 100]
	BreakPercentile float64
	// TokenCounter is used to record chunk token sizes
	TokenCounter TokenCounter
	// SentenceSplitter splits text into sentences
	SentenceSplitter func(string) []string
}

// SemanticChunkerOption configures a SemanticChunker.
type SemanticChunkerOption func(*SemanticChunker)

// WithBreakPercentile sets the boundary percentile threshold.
func WithBreakPercentile(p float64) SemanticChunkerOption {
	return func(sc *SemanticChunker) {
		sc.BreakPercentile = p
	}
}

// WithTokenCounter sets the token counter used for chunk sizes.
func WithTokenCounter(tc TokenCounter) SemanticChunkerOption {
	return func(sc *SemanticChunker) {
		sc.TokenCounter = tc
	}
}

// WithSentenceSplitter sets the sentence splitting function.
func WithSentenceSplitter(split func(string) []string) SemanticChunkerOption {
	return func(sc *SemanticChunker) {
		sc.SentenceSplitter = split
	}
}

// NewSemanticChunker creates a SemanticChunker with a 95th-percentile
// breakpoint, word-based token counting and the smart sentence splitter.
func NewSemanticChunker(embed EmbedFunc, opts ...SemanticChunkerOption) (*SemanticChunker, error) {
	if embed == nil {
		return nil, fmt.Errorf("semantic chunker requires an embedding function")
	}
	sc := &SemanticChunker{
		Embed:            embed,
		BreakPercentile:  95,
		TokenCounter:     &DefaultTokenCounter{},
		SentenceSplitter: SmartSentenceSplitter,
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.BreakPercentile <= 0 || sc.BreakPercentile > 100 {
		return nil, fmt.Errorf("break percentile must be in (0, 100], got %v", sc.BreakPercentile)
	}
	return sc, nil
}

// ChunkDocument chunks a parsed document page by page, tagging each chunk
// with its page number.
func (sc *SemanticChunker) ChunkDocument(ctx context.Context, doc Document) ([]Chunk, error) {
	var chunks []Chunk
	for _, page := range doc.Pages {
		pageChunks, err := sc.Chunk(ctx, page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk page %d: %w", page.Number, err)
		}
		for i := range pageChunks {
			pageChunks[i].Page = page.Number
		}
		chunks = append(chunks, pageChunks...)
	}
	return chunks, nil
}

// Chunk splits text into semantically coherent chunks. Whitespace-only
// sentences and chunks are dropped.
func (sc *SemanticChunker) Chunk(ctx context.Context, text string) ([]Chunk, error) {
	sentences := make([]string, 0)
	for _, s := range sc.SentenceSplitter(text) {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	if len(sentences) == 0 {
		return nil, nil
	}
	if len(sentences) == 1 {
		return []Chunk{sc.newChunk(sentences, 0, 1)}, nil
	}

	embeddings := make([][]float64, len(sentences))
	for i, sentence := range sentences {
		embedding, err := sc.Embed(ctx, sentence)
		if err != nil {
			return nil, fmt.Errorf("failed to embed sentence %d: %w", i, err)
		}
		embeddings[i] = embedding
	}

	distances := make([]float64, len(sentences)-1)
	for i := 0; i < len(sentences)-1; i++ {
		distances[i] = 1 - cosineSimilarity(embeddings[i], embeddings[i+1])
	}
	threshold := percentile(distances, sc.BreakPercentile)

	var chunks []Chunk
	start := 0
	for i, d := range distances {
		if d > threshold {
			chunks = append(chunks, sc.newChunk(sentences, start, i+1))
			start = i + 1
		}
	}
	chunks = append(chunks, sc.newChunk(sentences, start, len(sentences)))

	GlobalLogger.Debug("semantic chunking complete", "sentences", len(sentences), "chunks", len(chunks), "threshold", threshold)
	return chunks, nil
}

func (sc *SemanticChunker) newChunk(sentences []string, start, end int) Chunk {
	text := strings.TrimSpace(strings.Join(sentences[start:end], " "))
	return Chunk{
		Text:          text,
		TokenSize:     sc.TokenCounter.Count(text),
		StartSentence: start,
		EndSentence:   end,
	}
}

// cosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched or zero-norm vectors yield 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// percentile computes the p-th percentile of values using linear
// interpolation between ranks.
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// TextChunker is a token-window chunker with overlap, used when semantic
// chunking is disabled.
type TextChunker struct {
	ChunkSize        int
	ChunkOverlap     int
	TokenCounter     TokenCounter
	SentenceSplitter func(string) []string
}

// TextChunkerOption configures a TextChunker.
type TextChunkerOption func(*TextChunker)

// ChunkSize sets the target chunk size in tokens.
func ChunkSize(size int) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.ChunkSize = size
	}
}

// ChunkOverlap sets the token overlap between adjacent chunks.
func ChunkOverlap(overlap int) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.ChunkOverlap = overlap
	}
}

// NewTextChunker creates a TextChunker with 200-token chunks and 50-token
// overlap.
func NewTextChunker(opts ...TextChunkerOption) (*TextChunker, error) {
	tc := &TextChunker{
		ChunkSize:        200,
		ChunkOverlap:     50,
		TokenCounter:     &DefaultTokenCounter{},
		SentenceSplitter: SmartSentenceSplitter,
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc, nil
}

// Chunk splits text into chunks of roughly ChunkSize tokens, preserving
// sentence boundaries and overlapping adjacent chunks by ChunkOverlap tokens.
func (tc *TextChunker) Chunk(text string) []Chunk {
	sentences := make([]string, 0)
	for _, s := range tc.SentenceSplitter(text) {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}

	var chunks []Chunk
	var current Chunk
	currentTokens := 0

	for i, sentence := range sentences {
		sentenceTokens := tc.TokenCounter.Count(sentence)

		if currentTokens+sentenceTokens > tc.ChunkSize && currentTokens > 0 {
			current.Text = strings.TrimSpace(current.Text)
			chunks = append(chunks, current)

			overlapStart := current.StartSentence
			if back := current.EndSentence - tc.overlapSentences(sentences, current.EndSentence); back > overlapStart {
				overlapStart = back
			}
			current = Chunk{
				Text:          strings.Join(sentences[overlapStart:i+1], " "),
				StartSentence: overlapStart,
				EndSentence:   i + 1,
			}
			currentTokens = 0
			for j := overlapStart; j <= i; j++ {
				currentTokens += tc.TokenCounter.Count(sentences[j])
			}
		} else {
			if currentTokens == 0 {
				current.StartSentence = i
			}
			current.Text += sentence + " "
			current.EndSentence = i + 1
			currentTokens += sentenceTokens
		}
		current.TokenSize = currentTokens
	}

	if current.TokenSize > 0 {
		current.Text = strings.TrimSpace(current.Text)
		chunks = append(chunks, current)
	}

	return chunks
}

func (tc *TextChunker) overlapSentences(sentences []string, endSentence int) int {
	overlapTokens := 0
	count := 0
	for i := endSentence - 1; i >= 0 && overlapTokens < tc.ChunkOverlap; i-- {
		overlapTokens += tc.TokenCounter.Count(sentences[i])
		count++
	}
	return count
}

// SmartSentenceSplitter splits text on sentence-ending punctuation while
// keeping quoted sentences together.
func SmartSentenceSplitter(text string) []string {
	var sentences []string
	var current strings.Builder
	inQuote := false

	for _, r := range text {
		current.WriteRune(r)

		if r == '"' {
			inQuote = !inQuote
		}

		if (r == '.' || r == '!' || r == '?') && !inQuote {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// DefaultTokenCounter approximates token counts by splitting on whitespace.
type DefaultTokenCounter struct{}

func (dtc *DefaultTokenCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// TikTokenCounter counts tokens exactly using tiktoken encodings such as
// "cl100k_base".
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter creates a TikTokenCounter for the given encoding.
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

func (ttc *TikTokenCounter) Count(text string) int {
	return len(ttc.tke.Encode(text, nil, nil))
}
