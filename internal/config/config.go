// Package config loads the repodoc TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
)

// Config represents the top-level application configuration.
type Config struct {
	Provider     ProviderConfig     `toml:"provider"`
	Repo         RepoConfig         `toml:"repo"`
	Docs         DocsConfig         `toml:"docs"`
	Architecture ArchitectureConfig `toml:"architecture"`
	Ranking      RankingConfig      `toml:"ranking"`
	UML          UMLConfig          `toml:"uml"`
	Limits       LimitsConfig       `toml:"limits"`
	Cache        CacheConfig        `toml:"cache"`
	Log          LogConfig          `toml:"log"`
}

// ProviderConfig holds settings for AI provider selection and configuration.
type ProviderConfig struct {
	Default string                   `toml:"default"`
	Model   string                   `toml:"model"`
	OpenAI  []OpenAICompatibleConfig `toml:"openai_compatible"`
	Ollama  OllamaProviderConfig     `toml:"ollama"`
}

// OpenAICompatibleConfig holds settings for an OpenAI-compatible provider.
// APIKeySource is one of "env", "config" or "file"; APIKeyEnv names the
// variable for "env" and APIKeyFile the path for "file".
type OpenAICompatibleConfig struct {
	Name         string            `toml:"name"`
	BaseURL      string            `toml:"base_url"`
	APIKeySource string            `toml:"api_key_source"`
	APIKey       string            `toml:"api_key"`
	APIKeyEnv    string            `toml:"api_key_env"`
	APIKeyFile   string            `toml:"api_key_file"`
	ExtraHeaders map[string]string `toml:"extra_headers"`
}

// OllamaProviderConfig holds settings for a local Ollama server.
type OllamaProviderConfig struct {
	BaseURL string `toml:"base_url"`
}

// RepoConfig controls where repositories are cloned and how hosting
// metadata is fetched.
type RepoConfig struct {
	CloneDir       string `toml:"clone_dir"`
	GitHubTokenEnv string `toml:"github_token_env"`
	GitLabTokenEnv string `toml:"gitlab_token_env"`
	GitHubBaseURL  string `toml:"github_base_url"`
	GitLabBaseURL  string `toml:"gitlab_base_url"`
}

// Budget is the token budget of one kind of LLM call.
type Budget struct {
	MaxTokens       int     `toml:"max_tokens"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
	Temperature     float64 `toml:"temperature"`
}

// DocsConfig controls per-file documentation and README generation.
type DocsConfig struct {
	Budget
	MaxBlockLines     int     `toml:"max_block_lines"`
	SnippetMaxLines   int     `toml:"snippet_max_lines"`
	Workers           int     `toml:"workers"`
	IncludeTests      bool    `toml:"include_tests"`
	ReadmeTemperature float64 `toml:"readme_temperature"`
}

// ArchitectureConfig controls architecture recognition.
type ArchitectureConfig struct {
	Budget
	GroupLevels       int `toml:"group_levels"`
	MaxModules        int `toml:"max_modules"`
	PyprojectMaxToken int `toml:"pyproject_max_tokens"`
}

// RankingConfig controls the important-class report.
type RankingConfig struct {
	Budget
	TopN     int    `toml:"top_n"`
	FileName string `toml:"file_name"`
}

// UMLConfig controls diagram generation and rendering.
type UMLConfig struct {
	Budget
	Server          string `toml:"server"`
	Format          string `toml:"format"`
	OutputSubdir    string `toml:"output_subdir"`
	SegmentMaxLines int    `toml:"segment_max_lines"`
	MaxAttempts     int    `toml:"max_attempts"`
	Concurrency     int    `toml:"concurrency"`
}

// LimitsConfig bounds outgoing LLM traffic.
type LimitsConfig struct {
	RequestsPerMinute int `toml:"requests_per_minute"`
	Burst             int `toml:"burst"`
	TimeoutSeconds    int `toml:"timeout_seconds"`
}

// CacheConfig controls the SQLite response cache and run history.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// AllowedFormats lists the diagram formats a PlantUML server can render.
var AllowedFormats = []string{"png", "svg", "txt"}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Default: "together",
			Model:   "arcee-ai/coder-large",
			OpenAI: []OpenAICompatibleConfig{{
				Name:         "together",
				BaseURL:      "https://api.together.xyz/v1",
				APIKeySource: "env",
				APIKeyEnv:    "TOGETHER_API_KEY",
			}},
			Ollama: OllamaProviderConfig{BaseURL: "http://localhost:11434"},
		},
		Repo: RepoConfig{
			CloneDir:       "./cloned_repo",
			GitHubTokenEnv: "GITHUB_TOKEN",
			GitLabTokenEnv: "GITLAB_TOKEN",
		},
		Docs: DocsConfig{
			Budget:            Budget{MaxTokens: 28000, MaxOutputTokens: 23000, Temperature: 0},
			MaxBlockLines:     750,
			SnippetMaxLines:   1000,
			Workers:           4,
			ReadmeTemperature: 0.7,
		},
		Architecture: ArchitectureConfig{
			Budget:            Budget{MaxTokens: 28000, MaxOutputTokens: 5000, Temperature: 0.1},
			GroupLevels:       8,
			MaxModules:        300,
			PyprojectMaxToken: 10000,
		},
		Ranking: RankingConfig{
			Budget:   Budget{MaxTokens: 28000, MaxOutputTokens: 500, Temperature: 0.2},
			TopN:     10,
			FileName: "important_classes.md",
		},
		UML: UMLConfig{
			Budget:          Budget{MaxTokens: 28000, MaxOutputTokens: 3500, Temperature: 0},
			Server:          "http://www.plantuml.com/plantuml",
			Format:          "svg",
			OutputSubdir:    "uml_diagrams",
			SegmentMaxLines: 2500,
			MaxAttempts:     5,
			Concurrency:     5,
		},
		Limits: LimitsConfig{
			RequestsPerMinute: 60,
			Burst:             1,
			TimeoutSeconds:    300,
		},
		Cache: CacheConfig{Enabled: true},
		Log:   LogConfig{Level: "info"},
	}
}

// DefaultPath returns ~/.config/repodoc/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "repodoc", "config.toml")
}

// Load reads the TOML file at path on top of DefaultConfig. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	if !slices.Contains(AllowedFormats, c.UML.Format) {
		return fmt.Errorf("invalid uml format %q: allowed %v", c.UML.Format, AllowedFormats)
	}
	if c.Docs.Workers < 1 || c.Docs.Workers > 10 {
		return fmt.Errorf("docs workers must be between 1 and 10, got %d", c.Docs.Workers)
	}
	if c.Ranking.TopN < 1 {
		return fmt.Errorf("ranking top_n must be positive, got %d", c.Ranking.TopN)
	}
	return nil
}

// FindOpenAICompatible returns the named OpenAI-compatible provider entry.
func (c *Config) FindOpenAICompatible(name string) (OpenAICompatibleConfig, bool) {
	for _, oc := range c.Provider.OpenAI {
		if oc.Name == name {
			return oc, true
		}
	}
	return OpenAICompatibleConfig{}, false
}

// CachePath returns the configured cache database path, defaulting to
// ~/.cache/repodoc/repodoc.db.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "repodoc.db"
	}
	return filepath.Join(dir, "repodoc", "repodoc.db")
}
