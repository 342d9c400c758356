package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianshen/repodoc/internal/config"
	"github.com/julianshen/repodoc/internal/llm"
	"github.com/julianshen/repodoc/internal/log"
	"github.com/julianshen/repodoc/internal/provider"
	"github.com/julianshen/repodoc/internal/provider/ollama"
	"github.com/julianshen/repodoc/internal/repo"
	"github.com/julianshen/repodoc/internal/store"
	"github.com/julianshen/repodoc/internal/ui"
)

// app is the per-invocation wiring of config, clone, store and output.
type app struct {
	cfg    *config.Config
	opts   *rootOptions
	reader *repo.Reader
	store  *store.Store
	out    io.Writer
	errOut io.Writer
	print  *ui.Printer
}

// loadConfig resolves the config path, loads the config, and applies any
// flag overrides.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.model != "" {
		cfg.Provider.Model = opts.model
	}
	if opts.provider != "" {
		cfg.Provider.Default = opts.provider
	}
	return cfg, nil
}

// logLevel picks the flag, then REPODOC_LOG_LEVEL, then the config value.
func logLevel(opts *rootOptions, cfg *config.Config) string {
	if opts.logLevel != "" {
		return opts.logLevel
	}
	if os.Getenv("REPODOC_LOG_LEVEL") != "" {
		return ""
	}
	return cfg.Log.Level
}

// newApp loads the configuration and prepares a reader for url, which may
// be empty when working with an existing clone.
func newApp(cmd *cobra.Command, opts *rootOptions, url string) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log.Configure(log.Config{Level: logLevel(opts, cfg), Output: cmd.ErrOrStderr()})

	dir := opts.dir
	if dir == "" {
		dir = cfg.Repo.CloneDir
	}

	a := &app{
		cfg:    cfg,
		opts:   opts,
		reader: repo.NewReader(url, dir),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		print:  ui.NewPrinter(cmd.OutOrStdout()),
	}

	if cfg.Cache.Enabled {
		s, err := store.NewStore(cfg.CachePath())
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		a.store = s
	}
	return a, nil
}

// Close releases the store.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// outputDir joins sub onto the --output directory.
func (a *app) outputDir(sub ...string) string {
	base := a.opts.output
	if base == "" {
		base = defaultOutputDir
	}
	return filepath.Join(append([]string{base}, sub...)...)
}

// files reads the Python files of the clone.
func (a *app) files() (map[string]string, error) {
	if _, err := os.Stat(a.reader.LocalPath()); err != nil {
		return nil, fmt.Errorf("no clone at %s, run 'repodoc clone <url>' first", a.reader.LocalPath())
	}
	files, err := a.reader.ReadFiles()
	if err != nil {
		return nil, fmt.Errorf("reading repository: %w", err)
	}
	return files, nil
}

// repoKey identifies the repository in the run history.
func (a *app) repoKey(ctx context.Context) string {
	if url, err := a.reader.OriginURL(ctx); err == nil && url != "" {
		return url
	}
	return a.reader.LocalPath()
}

// recordRun stores result in the run history. Failures are only logged.
func (a *app) recordRun(ctx context.Context, command string, result any) {
	if a.store == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.WithComponent("cli").Warn().Err(err).Str("command", command).Msg("encoding run result")
		return
	}
	if _, err := a.store.SaveRun(command, a.repoKey(ctx), string(data)); err != nil {
		log.WithComponent("cli").Warn().Err(err).Str("command", command).Msg("saving run")
	}
}

// newCompleter builds the LLM client; replaced in tests.
var newCompleter = func(ctx context.Context, cfg *config.Config, cache llm.Cache) (llm.Completer, error) {
	if cfg.Provider.Default == "ollama" {
		if err := checkOllama(ctx, cfg); err != nil {
			return nil, err
		}
	}

	p, err := provider.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	opts := []llm.ClientOption{
		llm.WithRateLimit(cfg.Limits.RequestsPerMinute, cfg.Limits.Burst),
		llm.WithTimeout(time.Duration(cfg.Limits.TimeoutSeconds) * time.Second),
	}
	if cache != nil {
		opts = append(opts, llm.WithCache(cache))
	}
	return llm.NewClient(p, cfg.Provider.Model, opts...), nil
}

func checkOllama(ctx context.Context, cfg *config.Config) error {
	client := ollama.NewClient(cfg.Provider.Ollama.BaseURL)
	if !client.IsRunning(ctx) {
		return fmt.Errorf("ollama is not running at %s", cfg.Provider.Ollama.BaseURL)
	}
	ok, err := client.HasModel(ctx, cfg.Provider.Model)
	if err != nil {
		return fmt.Errorf("checking ollama models: %w", err)
	}
	if !ok {
		return fmt.Errorf("model %q is not pulled, run 'ollama pull %s'", cfg.Provider.Model, cfg.Provider.Model)
	}
	return nil
}

// completer returns the LLM client, cached through the store when enabled.
func (a *app) completer(ctx context.Context) (llm.Completer, error) {
	var cache llm.Cache
	if a.store != nil {
		cache = a.store
	}
	return newCompleter(ctx, a.cfg, cache)
}

// describer builds the hosting metadata client from the configured tokens.
func (a *app) describer() (*repo.Describer, error) {
	return repo.NewDescriber(repo.DescriberOptions{
		GitHubToken:   os.Getenv(a.cfg.Repo.GitHubTokenEnv),
		GitLabToken:   os.Getenv(a.cfg.Repo.GitLabTokenEnv),
		GitHubBaseURL: a.cfg.Repo.GitHubBaseURL,
		GitLabBaseURL: a.cfg.Repo.GitLabBaseURL,
	})
}

// withApp runs fn with a fresh app and closes it afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, url string, fn func(context.Context, *app) error) error {
	a, err := newApp(cmd, opts, url)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}
