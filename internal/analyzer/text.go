package analyzer

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TokenCounter estimates how many LLM tokens a text occupies.
type TokenCounter func(text string) int

// EstimateTokens is the default TokenCounter: roughly four characters per token.
func EstimateTokens(text string) int {
	return max(1, utf8.RuneCountInString(text)/4)
}

// AllowedOutput returns how many tokens a completion may produce given the
// prompt size, the total context budget and the per-call output cap.
func AllowedOutput(prompt string, maxTotal, maxOutput int, count TokenCounter) int {
	if count == nil {
		count = EstimateTokens
	}
	available := maxTotal - count(prompt) - 1
	return max(0, min(maxOutput, available))
}

// IsTestPath reports whether path looks like a Python test module: a "test"
// or "tests" directory anywhere in the path, or a test_*.py / *_test.py name.
// The comparison ignores case.
func IsTestPath(path string) bool {
	parts := strings.Split(strings.ToLower(filepath.ToSlash(path)), "/")
	for _, part := range parts[:len(parts)-1] {
		if part == "test" || part == "tests" {
			return true
		}
	}
	name := parts[len(parts)-1]
	return strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test.py")
}

// SplitLines splits text into lines without a trailing empty element, the
// way Python's str.splitlines does for "\n" and "\r\n" endings.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// Dedent removes the whitespace prefix common to every non-blank line.
// Whitespace-only lines are emptied. The line count is preserved so line
// numbers in the dedented text match the input.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")

	prefix := ""
	found := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !found {
			prefix = indent
			found = true
			continue
		}
		prefix = commonPrefix(prefix, indent)
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
