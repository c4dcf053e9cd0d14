package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

func init() {
	RegisterEmbedder("ollama", NewOllamaEmbedder)
}

const (
	defaultOllamaBaseURL        = "http://localhost:11434"
	defaultOllamaEmbeddingModel = "nomic-embed-text"
)

// OllamaEmbedder generates embeddings through a local Ollama instance's
// /api/embeddings endpoint.
type OllamaEmbedder struct {
	baseURL   string
	modelName string
	client    *http.Client
}

// NewOllamaEmbedder creates an Ollama embedding provider. Recognized options:
// "base_url", "model" and "timeout".
func NewOllamaEmbedder(config map[string]interface{}) (Embedder, error) {
	e := &OllamaEmbedder{
		baseURL:   defaultOllamaBaseURL,
		modelName: defaultOllamaEmbeddingModel,
		client:    &http.Client{Timeout: 60 * time.Second},
	}

	if baseURL, ok := config["base_url"].(string); ok && baseURL != "" {
		e.baseURL = baseURL
	}
	if model, ok := config["model"].(string); ok && model != "" {
		e.modelName = model
	}
	if timeout, ok := config["timeout"].(time.Duration); ok {
		e.client.Timeout = timeout
	}

	return e, nil
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed requests an embedding for text from the configured Ollama model.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	reqBody, err := json.Marshal(ollamaEmbeddingRequest{
		Model:  e.modelName,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embedding request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var embeddingResp ollamaEmbeddingResponse
	if err := json.Unmarshal(body, &embeddingResp); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(embeddingResp.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding data in response")
	}

	return embeddingResp.Embedding, nil
}

// GetDimension returns the output dimension for known Ollama embedding
// models.
func (e *OllamaEmbedder) GetDimension() (int, error) {
	switch e.modelName {
	case "nomic-embed-text":
		return 768, nil
	case "mxbai-embed-large":
		return 1024, nil
	case "all-minilm":
		return 384, nil
	default:
		return 0, fmt.Errorf("unknown model: %s", e.modelName)
	}
}
