// Package ollama implements provider.LLMProvider for a local Ollama server.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/julianshen/repodoc/internal/provider"
)

func init() {
	provider.RegisterProvider("ollama", func(baseURL, _ string, _ map[string]string) provider.LLMProvider {
		return New(baseURL)
	})
}

// Provider implements the LLMProvider interface for Ollama (local LLM server).
type Provider struct {
	baseURL string
	client  *http.Client
}

// New creates a new Ollama provider.
func New(baseURL string) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

type apiRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
	Stream   bool         `json:"stream"`
	Options  *apiOptions  `json:"options,omitempty"`
}

type apiOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamChunk represents a single line of NDJSON from the Ollama streaming response.
type streamChunk struct {
	Model           string     `json:"model"`
	Message         apiMessage `json:"message"`
	Done            bool       `json:"done"`
	PromptEvalCount int        `json:"prompt_eval_count"`
	EvalCount       int        `json:"eval_count"`
}

// Stream sends a completion request to the Ollama API and returns a channel
// of StreamEvents parsed from the NDJSON response.
func (p *Provider) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	body, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	ch := make(chan provider.StreamEvent)
	go p.processStream(ctx, resp.Body, ch)

	return ch, nil
}

func (p *Provider) buildRequest(req provider.CompletionRequest) apiRequest {
	apiReq := apiRequest{
		Model:  req.Model,
		Stream: true,
	}

	if req.MaxTokens > 0 || req.Temperature != nil {
		apiReq.Options = &apiOptions{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		}
	}

	if req.System != "" {
		apiReq.Messages = append(apiReq.Messages, apiMessage{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, apiMessage{Role: msg.Role, Content: msg.Content})
	}
	return apiReq
}

// processStream reads NDJSON lines from the response body and sends StreamEvents.
func (p *Provider) processStream(ctx context.Context, body io.ReadCloser, ch chan<- provider.StreamEvent) {
	defer close(ch)
	defer body.Close()

	send := func(evt provider.StreamEvent) bool {
		select {
		case ch <- evt:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			select {
			case ch <- provider.StreamEvent{Type: provider.EventError, Error: ctx.Err()}:
			default:
			}
			return
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			if !send(provider.StreamEvent{Type: provider.EventError, Error: fmt.Errorf("parsing chunk: %w", err)}) {
				return
			}
			continue
		}

		if chunk.Message.Content != "" {
			if !send(provider.StreamEvent{Type: provider.EventTextDelta, Text: chunk.Message.Content}) {
				return
			}
		}

		if chunk.Done {
			if chunk.PromptEvalCount > 0 || chunk.EvalCount > 0 {
				if !send(provider.StreamEvent{
					Type:         provider.EventUsage,
					InputTokens:  chunk.PromptEvalCount,
					OutputTokens: chunk.EvalCount,
				}) {
					return
				}
			}
			send(provider.StreamEvent{Type: provider.EventStop})
			return
		}
	}

	if err := scanner.Err(); err != nil {
		send(provider.StreamEvent{Type: provider.EventError, Error: err})
	}
}
