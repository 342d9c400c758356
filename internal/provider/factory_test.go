package provider_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/repodoc/internal/config"
	"github.com/julianshen/repodoc/internal/provider"

	// Import sub-packages to trigger init() registration
	_ "github.com/julianshen/repodoc/internal/provider/ollama"
	_ "github.com/julianshen/repodoc/internal/provider/openai"
)

func TestNewProviderTogetherDefault(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "test-together-key")

	p, err := provider.NewProvider(config.DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewProviderMissingKey(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "")

	_, err := provider.NewProvider(config.DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOGETHER_API_KEY")
}

func TestNewProviderKeyFromFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "togetherai_key.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte("sk-file\n"), 0600))

	cfg := config.DefaultConfig()
	cfg.Provider.OpenAI[0].APIKeySource = "file"
	cfg.Provider.OpenAI[0].APIKeyFile = keyFile

	p, err := provider.NewProvider(cfg)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewProviderOpenRouter(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-openrouter-key")

	cfg := config.DefaultConfig()
	cfg.Provider.Default = "openrouter"
	cfg.Provider.OpenAI = append(cfg.Provider.OpenAI, config.OpenAICompatibleConfig{
		Name:         "openrouter",
		BaseURL:      "https://openrouter.ai/api/v1",
		APIKeySource: "env",
		ExtraHeaders: map[string]string{"HTTP-Referer": "https://example.com"},
	})

	p, err := provider.NewProvider(cfg)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewProviderOllama(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider.Default = "ollama"

	p, err := provider.NewProvider(cfg)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewProviderUnknown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Provider.Default = "nonexistent"

	_, err := provider.NewProvider(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
