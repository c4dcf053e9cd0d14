package botly

import (
	"context"

	"github.com/trishiras/botly-v3-rag/internal/rag"
)

// DefaultTopK is the number of chunks fetched for each RAG query.
const DefaultTopK = 3

// Retriever wraps a vector index search with a fixed top-k count and the
// index's cosine similarity metric.
type Retriever struct {
	topK int
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets how many chunks each retrieval returns.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		r.topK = k
	}
}

// NewRetriever creates a Retriever fetching DefaultTopK chunks per query.
func NewRetriever(opts ...RetrieverOption) *Retriever {
	r := &Retriever{topK: DefaultTopK}
	for _, opt := range opts {
		opt(r)
	}
	if r.topK <= 0 {
		r.topK = DefaultTopK
	}
	return r
}

// Retrieve returns up to topK chunks from index ranked by descending
// similarity to query. Querying a nil index is a retrieval error.
func (r *Retriever) Retrieve(ctx context.Context, index *rag.VectorIndex, query string) ([]rag.SearchResult, error) {
	if index == nil {
		return nil, newError(ErrorKindRetrieval, "no index has been built", nil)
	}
	results, err := index.Search(ctx, query, r.topK)
	if err != nil {
		return nil, newError(ErrorKindRetrieval, "index search failed", err)
	}
	return results, nil
}
