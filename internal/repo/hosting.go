package repo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/xanzy/go-gitlab"
)

// ErrUnsupportedHost is returned by Describe for repositories hosted
// anywhere but GitHub or the configured GitLab instance.
var ErrUnsupportedHost = errors.New("unsupported repository host")

const (
	hostGitHub = "github"
	hostGitLab = "gitlab"
)

// Metadata is what the hosting service knows about a repository.
type Metadata struct {
	Host          string
	Owner         string
	Name          string
	Description   string
	Topics        []string
	Language      string
	DefaultBranch string
	Stars         int
	License       string
	WebURL        string
}

// DescriberOptions configures API access. Empty base URLs select the public
// github.com and gitlab.com endpoints. A GitHub Enterprise base URL adds its
// host to github.com; a GitLab base URL replaces gitlab.com.
type DescriberOptions struct {
	GitHubToken   string
	GitHubBaseURL string
	GitLabToken   string
	GitLabBaseURL string
	HTTPClient    *http.Client
}

// Describer looks up repository metadata on GitHub and GitLab.
type Describer struct {
	github      *github.Client
	gitlab      *gitlab.Client
	githubHosts map[string]bool
	gitlabHost  string
}

// NewDescriber builds API clients for both hosts.
func NewDescriber(opts DescriberOptions) (*Describer, error) {
	d := &Describer{githubHosts: map[string]bool{"github.com": true}, gitlabHost: "gitlab.com"}

	gh := github.NewClient(opts.HTTPClient)
	if opts.GitHubToken != "" {
		gh = gh.WithAuthToken(opts.GitHubToken)
	}
	if opts.GitHubBaseURL != "" {
		u, err := url.Parse(opts.GitHubBaseURL)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
		d.githubHosts[strings.ToLower(u.Hostname())] = true
		gh, err = gh.WithEnterpriseURLs(opts.GitHubBaseURL, opts.GitHubBaseURL)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
	}
	d.github = gh

	glOpts := []gitlab.ClientOptionFunc{}
	if opts.GitLabBaseURL != "" {
		u, err := url.Parse(opts.GitLabBaseURL)
		if err != nil {
			return nil, fmt.Errorf("gitlab base url: %w", err)
		}
		d.gitlabHost = u.Hostname()
		glOpts = append(glOpts, gitlab.WithBaseURL(opts.GitLabBaseURL))
	}
	if opts.HTTPClient != nil {
		glOpts = append(glOpts, gitlab.WithHTTPClient(opts.HTTPClient))
	}
	gl, err := gitlab.NewClient(opts.GitLabToken, glOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}
	d.gitlab = gl
	return d, nil
}

// Describe fetches metadata for the repository at repoURL, which may be an
// https or scp-style ssh URL.
func (d *Describer) Describe(ctx context.Context, repoURL string) (*Metadata, error) {
	host, path, err := splitRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	switch {
	case d.githubHosts[host]:
		return d.describeGitHub(ctx, path)
	case host == d.gitlabHost:
		return d.describeGitLab(ctx, path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedHost, host)
}

func (d *Describer) describeGitHub(ctx context.Context, path string) (*Metadata, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return nil, fmt.Errorf("github path %q: expected owner/name", path)
	}
	repo, _, err := d.github.Repositories.Get(ctx, parts[0], parts[1])
	if err != nil {
		return nil, fmt.Errorf("github repository %s: %w", path, err)
	}
	md := &Metadata{
		Host:          hostGitHub,
		Owner:         parts[0],
		Name:          parts[1],
		Description:   repo.GetDescription(),
		Topics:        repo.Topics,
		Language:      repo.GetLanguage(),
		DefaultBranch: repo.GetDefaultBranch(),
		Stars:         repo.GetStargazersCount(),
		WebURL:        repo.GetHTMLURL(),
	}
	if lic := repo.GetLicense(); lic != nil {
		md.License = lic.GetSPDXID()
	}
	return md, nil
}

func (d *Describer) describeGitLab(ctx context.Context, path string) (*Metadata, error) {
	project, _, err := d.gitlab.Projects.GetProject(path,
		&gitlab.GetProjectOptions{License: gitlab.Ptr(true)}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("gitlab project %s: %w", path, err)
	}
	owner, name := path, path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		owner, name = path[:i], path[i+1:]
	}
	md := &Metadata{
		Host:          hostGitLab,
		Owner:         owner,
		Name:          name,
		Description:   project.Description,
		Topics:        project.Topics,
		DefaultBranch: project.DefaultBranch,
		Stars:         project.StarCount,
		WebURL:        project.WebURL,
	}
	if project.License != nil {
		md.License = project.License.Key
	}

	// Languages are a separate call; a failure leaves Language empty.
	if langs, _, err := d.gitlab.Projects.GetProjectLanguages(path, gitlab.WithContext(ctx)); err == nil && langs != nil {
		md.Language = dominantLanguage(*langs)
	}
	return md, nil
}

func dominantLanguage(shares map[string]float32) string {
	names := make([]string, 0, len(shares))
	for n := range shares {
		names = append(names, n)
	}
	sort.Strings(names)
	best := ""
	for _, n := range names {
		if best == "" || shares[n] > shares[best] {
			best = n
		}
	}
	return best
}

// splitRepoURL returns the host and the owner/name path of a clone URL.
func splitRepoURL(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	var host, path string

	if !strings.Contains(raw, "://") && strings.Contains(raw, "@") && strings.Contains(raw, ":") {
		// scp-style: git@host:owner/name.git
		at := strings.Index(raw, "@")
		colon := strings.Index(raw[at:], ":") + at
		host, path = raw[at+1:colon], raw[colon+1:]
	} else {
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("parsing repository url: %w", err)
		}
		host, path = u.Hostname(), u.Path
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	if host == "" || path == "" {
		return "", "", fmt.Errorf("repository url %q has no host or path", raw)
	}
	return strings.ToLower(host), path, nil
}
