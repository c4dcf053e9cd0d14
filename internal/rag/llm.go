package rag

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Message is a single chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient generates a reply for a rendered prompt.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// ModelConfig is the model invocation configuration. It is set once at
// client construction and never mutated afterward.
type ModelConfig struct {
	Model       string
	BaseURL     string
	Temperature float64
	TopP        float64
	TopK        int
	NumPredict  int
	KeepAlive   time.Duration
	Timeout     time.Duration
	Cache       bool
	Verbose     bool
}

// DefaultModelConfig returns the stock Botly model settings: a local
// qwen2.5:3b served by Ollama with moderately creative sampling.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Model:       "qwen2.5:3b",
		BaseURL:     "http://localhost:11434",
		Temperature: 0.8,
		TopP:        0.9,
		TopK:        40,
		NumPredict:  256,
		KeepAlive:   300 * time.Second,
		Timeout:     120 * time.Second,
		Cache:       false,
		Verbose:     false,
	}
}

// OllamaClient talks to an Ollama server's /api/chat endpoint. When the
// Cache flag is set, identical requests within the keep-alive window are
// answered from memory without a second model call.
type OllamaClient struct {
	cfg    ModelConfig
	client *http.Client
	cache  *gocache.Cache
}

// NewOllamaClient creates a chat client for the given model configuration.
func NewOllamaClient(cfg ModelConfig) *OllamaClient {
	c := &OllamaClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.Cache {
		c.cache = gocache.New(cfg.KeepAlive, 2*cfg.KeepAlive)
	}
	return c
}

type ollamaChatRequest struct {
	Model     string         `json:"model"`
	Messages  []Message      `json:"messages"`
	Stream    bool           `json:"stream"`
	KeepAlive string         `json:"keep_alive,omitempty"`
	Options   *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Chat sends the conversation to the model and returns the generated reply.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message) (string, error) {
	payload, err := json.Marshal(ollamaChatRequest{
		Model:     c.cfg.Model,
		Messages:  messages,
		Stream:    false,
		KeepAlive: c.cfg.KeepAlive.String(),
		Options: &ollamaOptions{
			Temperature: c.cfg.Temperature,
			TopP:        c.cfg.TopP,
			TopK:        c.cfg.TopK,
			NumPredict:  c.cfg.NumPredict,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var cacheKey string
	if c.cache != nil {
		sum := sha256.Sum256(payload)
		cacheKey = hex.EncodeToString(sum[:])
		if cached, ok := c.cache.Get(cacheKey); ok {
			GlobalLogger.Debug("serving reply from cache", "key", cacheKey)
			return cached.(string), nil
		}
	}

	if c.cfg.Verbose {
		GlobalLogger.Debug("model request", "model", c.cfg.Model, "messages", messages)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/chat", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if c.cfg.Verbose {
		GlobalLogger.Debug("model reply", "model", chatResp.Model, "content", chatResp.Message.Content)
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, chatResp.Message.Content, gocache.DefaultExpiration)
	}

	return chatResp.Message.Content, nil
}
