// Package repo clones repositories, loads their Python sources and looks up
// hosting metadata.
package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianshen/repodoc/internal/log"
)

var (
	// ErrNotEmpty is returned by Clone when the target directory already
	// has content.
	ErrNotEmpty = errors.New("repository directory is not empty")
	// ErrCloneFailed wraps git failures during Clone.
	ErrCloneFailed = errors.New("nepodarilo sa naklonovať repozitár, skontrolujte prosím URL")
)

// skipDirs are never descended into when reading sources.
var skipDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".tox":         true,
	".mypy_cache":  true,
	"node_modules": true,
}

// Reader owns one local clone of a repository.
type Reader struct {
	url      string
	cloneDir string
}

// NewReader creates a Reader for url cloned into cloneDir. url may be empty
// when working with an existing clone.
func NewReader(url, cloneDir string) *Reader {
	return &Reader{url: url, cloneDir: cloneDir}
}

// URL returns the repository URL the reader was created with.
func (r *Reader) URL() string { return r.url }

// LocalPath returns the absolute path of the clone.
func (r *Reader) LocalPath() string {
	abs, err := filepath.Abs(r.cloneDir)
	if err != nil {
		return r.cloneDir
	}
	return abs
}

// Clone clones the repository. It refuses to touch a directory that
// already has content.
func (r *Reader) Clone(ctx context.Context) error {
	logger := log.WithComponent("repo")

	entries, err := os.ReadDir(r.cloneDir)
	switch {
	case err == nil && len(entries) > 0:
		return fmt.Errorf("%w: %s", ErrNotEmpty, r.cloneDir)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("checking clone directory: %w", err)
	}

	parent := filepath.Dir(r.LocalPath())
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating clone parent: %w", err)
	}

	logger.Info().Str("url", r.url).Str("dir", r.cloneDir).Msg("cloning repository")
	if err := newGitRunner(parent).clone(ctx, r.url, r.LocalPath()); err != nil {
		logger.Error().Err(err).Msg("clone failed")
		return fmt.Errorf("%w: %w", ErrCloneFailed, err)
	}
	return nil
}

// ReadFiles returns every .py file in the clone keyed by its slash-separated
// path relative to the clone root.
func (r *Reader) ReadFiles() (map[string]string, error) {
	root := r.LocalPath()
	files := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".py") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading repository files: %w", err)
	}
	return files, nil
}

// Delete removes the clone. A missing directory is not an error.
func (r *Reader) Delete() error {
	if _, err := os.Stat(r.cloneDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(r.cloneDir); err != nil {
		log.WithComponent("repo").Error().Err(err).Str("dir", r.cloneDir).Msg("delete failed")
		return fmt.Errorf("nepodarilo sa vymazať priečinok %q: %w", r.cloneDir, err)
	}
	return nil
}

// OriginURL returns the URL the reader was created with, or the clone's
// origin remote when none was given.
func (r *Reader) OriginURL(ctx context.Context) (string, error) {
	if r.url != "" {
		return r.url, nil
	}
	url, err := newGitRunner(r.LocalPath()).remoteURL(ctx)
	if err != nil {
		return "", fmt.Errorf("reading origin url: %w", err)
	}
	r.url = url
	return url, nil
}

// LastCommit returns the HEAD commit of the clone.
func (r *Reader) LastCommit(ctx context.Context) (Commit, error) {
	return newGitRunner(r.LocalPath()).lastCommit(ctx)
}
