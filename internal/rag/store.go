package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

// SearchResult is a single retrieval hit, ranked by cosine similarity.
type SearchResult struct {
	Content  string
	Score    float64
	Metadata map[string]string
}

// VectorIndex is an in-process vector index over the chunks of one document.
// It is immutable once built; replacing a document means building a new index.
type VectorIndex struct {
	col   *chromem.Collection
	count int
}

// BuildIndex embeds chunks and builds a searchable index over them. The
// build is all-or-nothing: if any chunk fails to embed, no index is
// returned. An empty chunk sequence is an error.
func BuildIndex(ctx context.Context, name string, chunks []Chunk, embed EmbedFunc) (*VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("cannot build index from empty chunk sequence")
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(name, nil, chromemEmbedding(embed))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("chunk-%06d", i),
			Content: chunk.Text,
			Metadata: map[string]string{
				"chunk":      strconv.Itoa(i),
				"page":       strconv.Itoa(chunk.Page),
				"token_size": strconv.Itoa(chunk.TokenSize),
			},
		}
	}

	// Sequential insert keeps ingestion deterministic and lets a single
	// embedding failure abort the whole build.
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	GlobalLogger.Info("vector index built", "name", name, "chunks", len(chunks))
	return &VectorIndex{col: col, count: len(chunks)}, nil
}

// Len returns the number of indexed chunks.
func (idx *VectorIndex) Len() int {
	return idx.count
}

// Search returns up to topK chunks ordered by descending cosine similarity
// to the query. Ties are broken by chunk insertion order. topK is clamped
// to the index size.
func (idx *VectorIndex) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if topK > idx.count {
		topK = idx.count
	}

	// Rank the whole index, not just topK hits. Chromem scores documents
	// concurrently, so the cutoff between equally-scored chunks would
	// otherwise vary from query to query.
	hits, err := idx.col.Query(ctx, query, idx.count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("index query failed: %w", err)
	}

	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{
			Content:  hit.Content,
			Score:    float64(hit.Similarity),
			Metadata: hit.Metadata,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return chunkIndex(results[i]) < chunkIndex(results[j])
	})

	return results[:topK], nil
}

func chunkIndex(r SearchResult) int {
	n, _ := strconv.Atoi(r.Metadata["chunk"])
	return n
}

// chromemEmbedding adapts an EmbedFunc to chromem's embedding signature,
// normalizing vectors to unit length so similarity scores are cosine.
func chromemEmbedding(embed EmbedFunc) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vec, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("embedding is empty")
		}

		var magnitude float64
		for _, v := range vec {
			magnitude += v * v
		}
		magnitude = math.Sqrt(magnitude)
		if magnitude == 0 {
			return nil, fmt.Errorf("embedding has zero magnitude")
		}

		out := make([]float32, len(vec))
		for i, v := range vec {
			out[i] = float32(v / magnitude)
		}
		return out, nil
	}
}
