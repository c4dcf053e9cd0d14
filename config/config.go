// Package config loads Botly settings from multiple sources. Settings can be
// overridden in the following order (highest to lowest precedence):
//  1. Environment variables
//  2. Configuration file (JSON)
//  3. Default values
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all settings for the Botly assistant.
type Config struct {
	// Chat model settings
	Model       string        // Ollama model identifier
	BaseURL     string        // Ollama endpoint
	Temperature float64       // Sampling temperature
	TopP        float64       // Nucleus sampling diversity
	TopK        int           // Token sampling pool size
	NumPredict  int           // Maximum generated tokens
	KeepAlive   time.Duration // How long the backend keeps the model loaded
	Timeout     time.Duration // Per-invocation timeout
	Cache       bool          // Enable the in-memory reply cache
	Verbose     bool          // Log prompts and replies at debug level

	// Embedding settings
	EmbeddingProvider string  // Embedding provider name (e.g. "ollama", "openai")
	EmbeddingModel    string  // Embedding model identifier
	EmbeddingBaseURL  string  // Embedding endpoint
	EmbeddingAPIKey   string  // API key for hosted providers
	EmbeddingRate     float64 // Embedding requests per second during ingest, 0 = unlimited

	// Retrieval settings
	RetrievalTopK int // Number of chunks retrieved per RAG query

	// Chunking settings
	ChunkStrategy   string  // "semantic" or "token"
	BreakPercentile float64 // Semantic breakpoint percentile
	ChunkSize       int     // Token-window chunk size
	ChunkOverlap    int     // Token-window chunk overlap

	// Session settings
	DocumentDir string // Directory for uploaded documents
	LogLevel    string // "off", "error", "warn", "info" or "debug"
}

// LoadConfig loads configuration from the first file found, then applies
// environment variable overrides.
//
// Configuration file search paths:
//  1. $BOTLY_CONFIG
//  2. ~/.botly/config.json
//  3. ~/.config/botly/config.json
//  4. ./botly.json
//
// Environment variable overrides: BOTLY_MODEL, BOTLY_BASE_URL,
// BOTLY_TEMPERATURE, BOTLY_CACHE, BOTLY_VERBOSE, BOTLY_EMBEDDING_PROVIDER,
// BOTLY_EMBEDDING_MODEL, BOTLY_API_KEY, BOTLY_TOP_K, BOTLY_DOCUMENT_DIR,
// BOTLY_LOG_LEVEL.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Model:             "qwen2.5:3b",
		BaseURL:           "http://localhost:11434",
		Temperature:       0.8,
		TopP:              0.9,
		TopK:              40,
		NumPredict:        256,
		KeepAlive:         300 * time.Second,
		Timeout:           120 * time.Second,
		EmbeddingProvider: "ollama",
		EmbeddingModel:    "nomic-embed-text",
		EmbeddingBaseURL:  "http://localhost:11434",
		RetrievalTopK:     3,
		ChunkStrategy:     "semantic",
		BreakPercentile:   95,
		ChunkSize:         200,
		ChunkOverlap:      50,
		DocumentDir:       "documents",
		LogLevel:          "warn",
	}

	configFile := os.Getenv("BOTLY_CONFIG")
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			candidates := []string{
				filepath.Join(home, ".botly", "config.json"),
				filepath.Join(home, ".config", "botly", "config.json"),
				"botly.json",
			}
			for _, candidate := range candidates {
				if _, err := os.Stat(candidate); err == nil {
					configFile = candidate
					break
				}
			}
		}
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", configFile, err)
			}
		}
	}

	if model := os.Getenv("BOTLY_MODEL"); model != "" {
		cfg.Model = model
	}
	if baseURL := os.Getenv("BOTLY_BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
		cfg.EmbeddingBaseURL = baseURL
	}
	if temp := os.Getenv("BOTLY_TEMPERATURE"); temp != "" {
		v, err := strconv.ParseFloat(temp, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid BOTLY_TEMPERATURE: %w", err)
		}
		cfg.Temperature = v
	}
	if cache := os.Getenv("BOTLY_CACHE"); cache != "" {
		v, err := strconv.ParseBool(cache)
		if err != nil {
			return nil, fmt.Errorf("invalid BOTLY_CACHE: %w", err)
		}
		cfg.Cache = v
	}
	if verbose := os.Getenv("BOTLY_VERBOSE"); verbose != "" {
		v, err := strconv.ParseBool(verbose)
		if err != nil {
			return nil, fmt.Errorf("invalid BOTLY_VERBOSE: %w", err)
		}
		cfg.Verbose = v
	}
	if provider := os.Getenv("BOTLY_EMBEDDING_PROVIDER"); provider != "" {
		cfg.EmbeddingProvider = provider
	}
	if model := os.Getenv("BOTLY_EMBEDDING_MODEL"); model != "" {
		cfg.EmbeddingModel = model
	}
	if apiKey := os.Getenv("BOTLY_API_KEY"); apiKey != "" {
		cfg.EmbeddingAPIKey = apiKey
	}
	if topK := os.Getenv("BOTLY_TOP_K"); topK != "" {
		v, err := strconv.Atoi(topK)
		if err != nil {
			return nil, fmt.Errorf("invalid BOTLY_TOP_K: %w", err)
		}
		cfg.RetrievalTopK = v
	}
	if dir := os.Getenv("BOTLY_DOCUMENT_DIR"); dir != "" {
		cfg.DocumentDir = dir
	}
	if level := os.Getenv("BOTLY_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

// Save persists the configuration as indented JSON at path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
