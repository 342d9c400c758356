package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hello world")
	assert.Equal(t, "user", msg.Role)
	assert.Equal(t, "hello world", msg.Content)
}

func TestTemperatureKeepsZero(t *testing.T) {
	req := CompletionRequest{Model: "m", Temperature: Temperature(0)}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"temperature":0`)

	data, err = json.Marshal(CompletionRequest{Model: "m"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "temperature")
}
