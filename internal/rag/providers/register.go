// Package providers implements the embedding backends available to Botly.
// Providers register themselves at init time and are created through the
// factory registry, so new backends can be added without touching callers.
package providers

import (
	"context"
	"fmt"
	"sync"
)

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	// Embed generates the embedding for the given text
	Embed(ctx context.Context, text string) ([]float64, error)

	// GetDimension returns the embedding dimension of the current model
	GetDimension() (int, error)
}

// EmbedderFactory creates a new Embedder from provider options.
type EmbedderFactory func(config map[string]interface{}) (Embedder, error)

var (
	embedderFactories = make(map[string]EmbedderFactory)
	mu                sync.RWMutex
)

// RegisterEmbedder registers an embedder factory under the given name.
func RegisterEmbedder(name string, factory EmbedderFactory) {
	mu.Lock()
	defer mu.Unlock()
	embedderFactories[name] = factory
}

// GetEmbedderFactory returns the factory registered under name.
func GetEmbedderFactory(name string) (EmbedderFactory, error) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := embedderFactories[name]
	if !ok {
		return nil, fmt.Errorf("embedder not found: %s", name)
	}
	return factory, nil
}

// List returns the names of all registered embedder providers.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(embedderFactories))
	for name := range embedderFactories {
		names = append(names, name)
	}
	return names
}
