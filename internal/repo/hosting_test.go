package repo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRepoURL(t *testing.T) {
	tests := []struct {
		raw, host, path string
	}{
		{"https://github.com/acme/widgets", "github.com", "acme/widgets"},
		{"https://github.com/acme/widgets.git", "github.com", "acme/widgets"},
		{"https://GitHub.com/acme/widgets/", "github.com", "acme/widgets"},
		{"git@github.com:acme/widgets.git", "github.com", "acme/widgets"},
		{"ssh://git@gitlab.com/group/sub/tool.git", "gitlab.com", "group/sub/tool"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			host, path, err := splitRepoURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.path, path)
		})
	}

	_, _, err := splitRepoURL("/local/path")
	assert.Error(t, err)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestDescribeGitHub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/repos/acme/widgets", r.URL.Path)
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		writeJSON(t, w, map[string]any{
			"name":             "widgets",
			"description":      "Widget toolkit",
			"topics":           []string{"python", "cli"},
			"language":         "Python",
			"default_branch":   "main",
			"stargazers_count": 42,
			"html_url":         "https://github.com/acme/widgets",
			"license":          map[string]any{"spdx_id": "MIT"},
		})
	}))
	defer srv.Close()

	d, err := NewDescriber(DescriberOptions{GitHubToken: "gh-token", GitHubBaseURL: srv.URL})
	require.NoError(t, err)

	md, err := d.Describe(context.Background(), "https://github.com/acme/widgets.git")
	require.NoError(t, err)
	assert.Equal(t, &Metadata{
		Host:          "github",
		Owner:         "acme",
		Name:          "widgets",
		Description:   "Widget toolkit",
		Topics:        []string{"python", "cli"},
		Language:      "Python",
		DefaultBranch: "main",
		Stars:         42,
		License:       "MIT",
		WebURL:        "https://github.com/acme/widgets",
	}, md)
}

func TestDescribeGitLab(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/projects/group/tool":
			writeJSON(t, w, map[string]any{
				"id":             7,
				"description":    "Internal tool",
				"topics":         []string{"ops"},
				"default_branch": "develop",
				"star_count":     3,
				"web_url":        "https://git.example.com/group/tool",
				"license":        map[string]any{"key": "apache-2.0"},
			})
		case "/api/v4/projects/group/tool/languages":
			writeJSON(t, w, map[string]float32{"Python": 80.5, "Shell": 19.5})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d, err := NewDescriber(DescriberOptions{GitLabBaseURL: srv.URL})
	require.NoError(t, err)

	// The configured GitLab base URL decides which host is GitLab.
	md, err := d.Describe(context.Background(), srv.URL+"/group/tool.git")
	require.NoError(t, err)
	assert.Equal(t, "gitlab", md.Host)
	assert.Equal(t, "group", md.Owner)
	assert.Equal(t, "tool", md.Name)
	assert.Equal(t, "Internal tool", md.Description)
	assert.Equal(t, []string{"ops"}, md.Topics)
	assert.Equal(t, "develop", md.DefaultBranch)
	assert.Equal(t, 3, md.Stars)
	assert.Equal(t, "apache-2.0", md.License)
	assert.Equal(t, "Python", md.Language)
}

func TestDescribeGitHubEnterpriseHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/repos/team/service", r.URL.Path)
		writeJSON(t, w, map[string]any{"name": "service", "description": "Internal service"})
	}))
	defer srv.Close()

	d, err := NewDescriber(DescriberOptions{GitHubBaseURL: srv.URL})
	require.NoError(t, err)

	md, err := d.Describe(context.Background(), srv.URL+"/team/service.git")
	require.NoError(t, err)
	assert.Equal(t, "github", md.Host)
	assert.Equal(t, "Internal service", md.Description)
}

func TestDescribeUnsupportedHost(t *testing.T) {
	d, err := NewDescriber(DescriberOptions{})
	require.NoError(t, err)

	_, err = d.Describe(context.Background(), "https://bitbucket.org/acme/widgets")
	require.ErrorIs(t, err, ErrUnsupportedHost)
}

func TestDominantLanguage(t *testing.T) {
	assert.Equal(t, "Go", dominantLanguage(map[string]float32{"Go": 60, "Python": 40}))
	assert.Equal(t, "A", dominantLanguage(map[string]float32{"B": 50, "A": 50}))
	assert.Equal(t, "", dominantLanguage(nil))
}
