package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaEmbedderEmbed(t *testing.T) {
	var gotReq ollamaEmbeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{
			Embedding: []float64{0.1, 0.2, 0.3},
		})
	}))
	defer server.Close()

	embedder, err := NewOllamaEmbedder(map[string]interface{}{
		"base_url": server.URL,
		"model":    "all-minilm",
	})
	if err != nil {
		t.Fatalf("NewOllamaEmbedder: %v", err)
	}

	vec, err := embedder.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3 components, got %d", len(vec))
	}
	if gotReq.Model != "all-minilm" || gotReq.Prompt != "hello world" {
		t.Errorf("unexpected request %+v", gotReq)
	}
}

func TestOllamaEmbedderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	embedder, err := NewOllamaEmbedder(map[string]interface{}{"base_url": server.URL})
	if err != nil {
		t.Fatalf("NewOllamaEmbedder: %v", err)
	}
	if _, err := embedder.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestOllamaEmbedderEmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{})
	}))
	defer server.Close()

	embedder, err := NewOllamaEmbedder(map[string]interface{}{"base_url": server.URL})
	if err != nil {
		t.Fatalf("NewOllamaEmbedder: %v", err)
	}
	if _, err := embedder.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}

func TestOllamaEmbedderDimensions(t *testing.T) {
	tests := []struct {
		model string
		dim   int
	}{
		{"nomic-embed-text", 768},
		{"mxbai-embed-large", 1024},
		{"all-minilm", 384},
	}
	for _, tt := range tests {
		embedder, err := NewOllamaEmbedder(map[string]interface{}{"model": tt.model})
		if err != nil {
			t.Fatalf("NewOllamaEmbedder(%s): %v", tt.model, err)
		}
		dim, err := embedder.GetDimension()
		if err != nil {
			t.Fatalf("GetDimension(%s): %v", tt.model, err)
		}
		if dim != tt.dim {
			t.Errorf("GetDimension(%s) = %d, want %d", tt.model, dim, tt.dim)
		}
	}

	embedder, err := NewOllamaEmbedder(map[string]interface{}{"model": "mystery-model"})
	if err != nil {
		t.Fatalf("NewOllamaEmbedder: %v", err)
	}
	if _, err := embedder.GetDimension(); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestRegistryListsBuiltins(t *testing.T) {
	names := List()
	found := map[string]bool{}
	for _, name := range names {
		found[name] = true
	}
	if !found["ollama"] || !found["openai"] {
		t.Errorf("expected built-in providers registered, got %v", names)
	}

	if _, err := GetEmbedderFactory("nope"); err == nil {
		t.Error("expected error for unregistered provider")
	}
}
