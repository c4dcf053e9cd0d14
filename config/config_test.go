package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearBotlyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOTLY_CONFIG", "BOTLY_MODEL", "BOTLY_BASE_URL", "BOTLY_TEMPERATURE",
		"BOTLY_CACHE", "BOTLY_VERBOSE", "BOTLY_EMBEDDING_PROVIDER",
		"BOTLY_EMBEDDING_MODEL", "BOTLY_API_KEY", "BOTLY_TOP_K",
		"BOTLY_DOCUMENT_DIR", "BOTLY_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	// Point at an empty config so files in the caller's home are ignored.
	t.Setenv("BOTLY_CONFIG", filepath.Join(t.TempDir(), "nonexistent.json"))
}

func TestLoadConfigDefaults(t *testing.T) {
	clearBotlyEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Model != "qwen2.5:3b" {
		t.Errorf("unexpected model %q", cfg.Model)
	}
	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("unexpected base url %q", cfg.BaseURL)
	}
	if cfg.Temperature != 0.8 || cfg.TopP != 0.9 || cfg.TopK != 40 || cfg.NumPredict != 256 {
		t.Errorf("unexpected sampling defaults %+v", cfg)
	}
	if cfg.KeepAlive != 300*time.Second {
		t.Errorf("unexpected keep alive %v", cfg.KeepAlive)
	}
	if cfg.Cache || cfg.Verbose {
		t.Error("cache and verbose should default to false")
	}
	if cfg.RetrievalTopK != 3 {
		t.Errorf("unexpected retrieval top k %d", cfg.RetrievalTopK)
	}
	if cfg.ChunkStrategy != "semantic" || cfg.BreakPercentile != 95 {
		t.Errorf("unexpected chunking defaults %+v", cfg)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearBotlyEnv(t)
	t.Setenv("BOTLY_MODEL", "llama3.2:1b")
	t.Setenv("BOTLY_BASE_URL", "http://ollama:11434")
	t.Setenv("BOTLY_TEMPERATURE", "0.2")
	t.Setenv("BOTLY_CACHE", "true")
	t.Setenv("BOTLY_TOP_K", "7")
	t.Setenv("BOTLY_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Model != "llama3.2:1b" {
		t.Errorf("model override not applied: %q", cfg.Model)
	}
	if cfg.BaseURL != "http://ollama:11434" || cfg.EmbeddingBaseURL != "http://ollama:11434" {
		t.Errorf("base url override should apply to chat and embeddings: %q, %q", cfg.BaseURL, cfg.EmbeddingBaseURL)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("temperature override not applied: %v", cfg.Temperature)
	}
	if !cfg.Cache {
		t.Error("cache override not applied")
	}
	if cfg.RetrievalTopK != 7 {
		t.Errorf("top k override not applied: %d", cfg.RetrievalTopK)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level override not applied: %q", cfg.LogLevel)
	}
}

func TestLoadConfigInvalidEnvValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"BOTLY_TEMPERATURE", "hot"},
		{"BOTLY_CACHE", "maybe"},
		{"BOTLY_VERBOSE", "loud"},
		{"BOTLY_TOP_K", "three"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearBotlyEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfig(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	clearBotlyEnv(t)

	path := filepath.Join(t.TempDir(), "botly.json")
	content := `{"Model": "mistral:7b", "RetrievalTopK": 5, "Cache": true}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BOTLY_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Model != "mistral:7b" {
		t.Errorf("file model not applied: %q", cfg.Model)
	}
	if cfg.RetrievalTopK != 5 {
		t.Errorf("file top k not applied: %d", cfg.RetrievalTopK)
	}
	if !cfg.Cache {
		t.Error("file cache not applied")
	}
	// Untouched fields keep their defaults.
	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("default base url lost: %q", cfg.BaseURL)
	}
}

func TestLoadConfigEnvBeatsFile(t *testing.T) {
	clearBotlyEnv(t)

	path := filepath.Join(t.TempDir(), "botly.json")
	if err := os.WriteFile(path, []byte(`{"Model": "from-file"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BOTLY_CONFIG", path)
	t.Setenv("BOTLY_MODEL", "from-env")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Model != "from-env" {
		t.Errorf("environment should override file, got %q", cfg.Model)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearBotlyEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Model = "saved-model"

	path := filepath.Join(t.TempDir(), "nested", "config.json")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("BOTLY_CONFIG", path)
	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Model != "saved-model" {
		t.Errorf("round trip lost model: %q", loaded.Model)
	}
}
