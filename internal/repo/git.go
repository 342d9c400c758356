package repo

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Commit is a single git log entry.
type Commit struct {
	Hash    string
	Author  string
	Date    time.Time
	Message string
}

// gitRunner executes git commands in a directory.
type gitRunner struct {
	workDir string
}

func newGitRunner(workDir string) *gitRunner {
	return &gitRunner{workDir: workDir}
}

// clone clones url into dir, which is resolved relative to workDir.
func (g *gitRunner) clone(ctx context.Context, url, dir string) error {
	_, err := g.run(ctx, "clone", "--quiet", "--", url, dir)
	return err
}

// remoteURL returns the fetch URL of the origin remote.
func (g *gitRunner) remoteURL(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "config", "--get", "remote.origin.url")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// lastCommit returns the HEAD commit. The ASCII record separator is used as
// the field delimiter since it cannot appear in names or subjects.
func (g *gitRunner) lastCommit(ctx context.Context) (Commit, error) {
	const sep = "\x1e"
	out, err := g.run(ctx, "log", "-1", "--format=%H%x1e%an%x1e%aI%x1e%s")
	if err != nil {
		return Commit{}, err
	}
	parts := strings.SplitN(strings.TrimSpace(out), sep, 4)
	if len(parts) < 4 {
		return Commit{}, fmt.Errorf("git log: unexpected output %q", out)
	}
	date, err := time.Parse(time.RFC3339, parts[2])
	if err != nil {
		return Commit{}, fmt.Errorf("git log: parsing date: %w", err)
	}
	return Commit{Hash: parts[0], Author: parts[1], Date: date, Message: parts[3]}, nil
}

func (g *gitRunner) run(ctx context.Context, args ...string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("git: no subcommand provided")
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workDir
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}
