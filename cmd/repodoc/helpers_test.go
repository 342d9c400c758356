package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/julianshen/repodoc/internal/config"
	"github.com/julianshen/repodoc/internal/llm"
)

var projectFiles = map[string]string{
	"app/models.py": `class Engine:
    def start(self):
        return 1


class Car:
    def __init__(self):
        self.engine = Engine()

    def drive(self):
        self.engine.start()
`,
	"app/service.py": `from app.models import Car


class Garage:
    def open(self, car: Car):
        car.drive()
`,
	"tests/test_models.py": "def test_engine():\n    assert True\n",
}

// writeProject creates a clone directory holding projectFiles.
func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range projectFiles {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

// writeConfig writes a config with the cache in a temp dir plus extra TOML.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "repodoc.db")
	return writeConfigFile(t, fmt.Sprintf("[cache]\nenabled = true\npath = %q\n\n%s", db, extra))
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

type stubCompleter struct {
	mu      sync.Mutex
	reply   func(prompt string) (string, error)
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, _ llm.Options) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.reply(prompt)
}

// stubLLM makes every command use a completer answering with reply.
func stubLLM(t *testing.T, reply func(prompt string) (string, error)) *stubCompleter {
	t.Helper()
	s := &stubCompleter{reply: reply}
	orig := newCompleter
	newCompleter = func(context.Context, *config.Config, llm.Cache) (llm.Completer, error) {
		return s, nil
	}
	t.Cleanup(func() { newCompleter = orig })
	return s
}

func fixedReply(text string) func(string) (string, error) {
	return func(string) (string, error) { return text, nil }
}

// execute runs the root command and returns stdout and stderr.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("REPODOC_LOG_LEVEL", "error")
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	root.SetIn(stdin)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}
