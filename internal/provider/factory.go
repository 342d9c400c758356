package provider

import (
	"fmt"
	"sync"

	"github.com/julianshen/repodoc/internal/config"
)

// ProviderConstructor is a function that creates a new LLMProvider.
type ProviderConstructor func(baseURL, apiKey string, extraHeaders map[string]string) LLMProvider

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderConstructor{}
)

// RegisterProvider registers a provider constructor by name. Backends call
// it from init.
func RegisterProvider(name string, constructor ProviderConstructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = constructor
}

func lookup(name string) (ProviderConstructor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

// NewProvider creates an LLMProvider based on the given configuration.
// "ollama" selects the local Ollama server; any other name is looked up
// among the OpenAI-compatible providers.
func NewProvider(cfg *config.Config) (LLMProvider, error) {
	if cfg.Provider.Default == "ollama" {
		constructor, ok := lookup("ollama")
		if !ok {
			return nil, fmt.Errorf("ollama provider not registered")
		}
		return constructor(cfg.Provider.Ollama.BaseURL, "", nil), nil
	}
	return newOpenAIProvider(cfg)
}

func newOpenAIProvider(cfg *config.Config) (LLMProvider, error) {
	name := cfg.Provider.Default

	constructor, ok := lookup("openai")
	if !ok {
		return nil, fmt.Errorf("openai provider not registered")
	}

	oc, ok := cfg.FindOpenAICompatible(name)
	if !ok {
		return nil, fmt.Errorf("unknown provider: %q", name)
	}
	apiKey, err := config.ResolveProviderKey(oc)
	if err != nil {
		return nil, fmt.Errorf("resolving %s API key: %w", name, err)
	}
	return constructor(oc.BaseURL, apiKey, oc.ExtraHeaders), nil
}
