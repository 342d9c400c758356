package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveAPIKey resolves an API key based on the given source.
// Supported sources: "env" (value names the environment variable, falling
// back to envVar), "config" (value is the key) and "file" (value is a path
// whose trimmed contents are the key).
func ResolveAPIKey(source, value, envVar string) (string, error) {
	switch source {
	case "env", "":
		if value != "" {
			envVar = value
		}
		return resolveFromEnv(envVar)
	case "config":
		if value == "" {
			return "", fmt.Errorf("api_key_source is 'config' but no api_key value provided")
		}
		return value, nil
	case "file":
		return resolveFromFile(value)
	default:
		return "", fmt.Errorf("unknown api_key_source: %q", source)
	}
}

// ResolveProviderKey resolves the API key of an OpenAI-compatible provider.
func ResolveProviderKey(oc OpenAICompatibleConfig) (string, error) {
	switch oc.APIKeySource {
	case "config":
		return ResolveAPIKey("config", oc.APIKey, "")
	case "file":
		return ResolveAPIKey("file", oc.APIKeyFile, "")
	default:
		env := oc.APIKeyEnv
		if env == "" {
			env = strings.ToUpper(oc.Name) + "_API_KEY"
		}
		return ResolveAPIKey(oc.APIKeySource, "", env)
	}
}

func resolveFromEnv(envVar string) (string, error) {
	if envVar == "" {
		return "", fmt.Errorf("no environment variable name specified")
	}
	val := os.Getenv(envVar)
	if val == "" {
		return "", fmt.Errorf("environment variable %s is not set", envVar)
	}
	return val, nil
}

func resolveFromFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("api_key_source is 'file' but no api_key_file provided")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading api key file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("api key file %s is empty", path)
	}
	return key, nil
}
