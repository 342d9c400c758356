// Package provider defines the streaming chat-completion interface that
// concrete LLM backends implement, and builds the configured backend.
package provider

import (
	"context"
)

// LLMProvider defines the interface for interacting with an LLM provider.
type LLMProvider interface {
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error)
}

// CompletionRequest represents a request to an LLM for completion.
type CompletionRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Event types emitted on a stream.
const (
	EventTextDelta = "text_delta"
	EventUsage     = "usage"
	EventStop      = "stop"
	EventError     = "error"
)

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	Type         string
	Text         string
	Error        error
	InputTokens  int
	OutputTokens int
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) Message {
	return Message{Role: "user", Content: text}
}

// Temperature returns a pointer to t for CompletionRequest.Temperature.
// A zero temperature is a valid, deterministic setting and is sent as such.
func Temperature(t float64) *float64 {
	return &t
}
