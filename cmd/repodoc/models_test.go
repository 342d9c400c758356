package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{4 * 1024 * 1024 * 1024, "4.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}

func TestModelsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"models":[{"name":"qwen2.5-coder:latest","size":4294967296,"modified_at":"2026-01-02T03:04:05Z"}]}`)
	}))
	defer srv.Close()

	cfg := writeConfig(t, fmt.Sprintf("[provider.ollama]\nbase_url = %q\n", srv.URL))
	out, _, err := execute(t, nil, "models", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "qwen2.5-coder:latest")
	assert.Contains(t, out, "4.0 GB")
}

func TestModelsCommandBaseURLFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"models":[]}`)
	}))
	defer srv.Close()

	out, _, err := execute(t, nil, "models", "--config", writeConfig(t, ""), "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "No models found")
}

func TestCheckOllamaReportsMissingModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			fmt.Fprint(w, `{"version":"0.5.0"}`)
		case "/api/tags":
			fmt.Fprint(w, `{"models":[{"name":"llama3:latest"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg, err := loadConfig(&rootOptions{configPath: writeConfig(t, fmt.Sprintf("[provider.ollama]\nbase_url = %q\n", srv.URL))})
	require.NoError(t, err)

	cfg.Provider.Model = "llama3"
	assert.NoError(t, checkOllama(t.Context(), cfg))

	cfg.Provider.Model = "qwen2.5-coder"
	assert.ErrorContains(t, checkOllama(t.Context(), cfg), "ollama pull qwen2.5-coder")
}
