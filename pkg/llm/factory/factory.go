package factory

import (
	"fmt"

	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/llm/ollama"
)

// NewProvider builds the configured chat model backend.
func NewProvider(providerType, baseURL, modelName string) (llm.Provider, error) {
	switch providerType {
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider type: %s", providerType)
	}
}
