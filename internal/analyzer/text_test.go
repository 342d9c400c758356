package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 1, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcdefgh"))
	assert.Equal(t, 1, EstimateTokens("čšžť"), "runes, not bytes")
}

func TestAllowedOutput(t *testing.T) {
	prompt := "abcdabcdabcdabcdabcdabcdabcdabcdabcdabcd" // 10 tokens

	assert.Equal(t, 50, AllowedOutput(prompt, 100, 50, nil))
	assert.Equal(t, 9, AllowedOutput(prompt, 20, 50, nil))
	assert.Equal(t, 0, AllowedOutput(prompt, 5, 50, nil))

	fixed := func(string) int { return 30 }
	assert.Equal(t, 69, AllowedOutput(prompt, 100, 500, fixed))
}

func TestIsTestPath(t *testing.T) {
	cases := map[string]bool{
		"tests/test_api.py":       true,
		"pkg/test/helpers.py":     true,
		"pkg/Tests/helpers.py":    true,
		"pkg/test_models.py":      true,
		"pkg/models_test.py":      true,
		"pkg/models.py":           false,
		"pkg/contest.py":          false,
		"testing/models.py":       false,
		"pkg/latest_results.py":   false,
		"TEST_UPPER.py":           true,
		"src/app/tests_helper.py": false,
	}
	for path, want := range cases {
		assert.Equal(t, want, IsTestPath(path), path)
	}
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\r\n\r\nb"))
	assert.Equal(t, []string{""}, SplitLines("\n"))
}

func TestDedent(t *testing.T) {
	src := "    def f():\n        return 1\n  \n    x = 2"
	assert.Equal(t, "def f():\n    return 1\n\nx = 2", Dedent(src))

	assert.Equal(t, "a\n  b", Dedent("a\n  b"), "no common prefix")
	assert.Equal(t, "x\ny", Dedent("\tx\n\ty"))
}
