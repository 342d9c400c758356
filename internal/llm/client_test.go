package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/repodoc/internal/provider"
	"github.com/julianshen/repodoc/internal/provider/openai"
	"github.com/julianshen/repodoc/internal/store"
)

type mockProvider struct {
	mu       sync.Mutex
	events   []provider.StreamEvent
	requests []provider.CompletionRequest
}

func (m *mockProvider) Stream(_ context.Context, req provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	ch := make(chan provider.StreamEvent, len(m.events))
	for _, evt := range m.events {
		ch <- evt
	}
	close(ch)
	return ch, nil
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func textEvents(parts ...string) []provider.StreamEvent {
	var evts []provider.StreamEvent
	for _, p := range parts {
		evts = append(evts, provider.StreamEvent{Type: provider.EventTextDelta, Text: p})
	}
	return append(evts, provider.StreamEvent{Type: provider.EventStop})
}

func TestCompleteCollectsText(t *testing.T) {
	mp := &mockProvider{events: textEvents("Hello", " world")}
	c := NewClient(mp, "test-model")

	got, err := c.Complete(context.Background(), "Say hi", Options{MaxTokens: 100, Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", got)

	require.Len(t, mp.requests, 1)
	req := mp.requests[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 100, req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.2, *req.Temperature)
	assert.Equal(t, "Say hi", req.Messages[0].Content)
}

func TestCompleteStripsThinking(t *testing.T) {
	mp := &mockProvider{events: textEvents("<think>plan\nmore</think>", "\n  answer  ")}
	got, err := NewClient(mp, "m").Complete(context.Background(), "q", Options{MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
}

func TestCompleteEmptyReply(t *testing.T) {
	mp := &mockProvider{events: textEvents("<think>only thoughts</think>")}
	got, err := NewClient(mp, "m").Complete(context.Background(), "q", Options{MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, EmptyResponse, got)
}

func TestCompleteStreamError(t *testing.T) {
	mp := &mockProvider{events: []provider.StreamEvent{
		{Type: provider.EventTextDelta, Text: "partial"},
		{Type: provider.EventError, Error: assert.AnError},
		{Type: provider.EventTextDelta, Text: "trailing"},
	}}
	_, err := NewClient(mp, "m").Complete(context.Background(), "q", Options{MaxTokens: 64})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCompleteUsesCache(t *testing.T) {
	s, err := store.NewStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	mp := &mockProvider{events: textEvents("cached answer")}
	c := NewClient(mp, "m", WithCache(s))

	for i := 0; i < 3; i++ {
		got, err := c.Complete(context.Background(), "same prompt", Options{MaxTokens: 10})
		require.NoError(t, err)
		assert.Equal(t, "cached answer", got)
	}
	assert.Equal(t, 1, mp.calls())

	_, err = c.Complete(context.Background(), "same prompt", Options{MaxTokens: 11})
	require.NoError(t, err)
	assert.Equal(t, 2, mp.calls(), "different options miss the cache")
}

func TestCompleteDoesNotCacheEmptyReply(t *testing.T) {
	s, err := store.NewStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	mp := &mockProvider{events: textEvents("")}
	c := NewClient(mp, "m", WithCache(s))
	for i := 0; i < 2; i++ {
		_, err := c.Complete(context.Background(), "p", Options{MaxTokens: 64})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, mp.calls())
}

func TestRateLimitHonoursContext(t *testing.T) {
	mp := &mockProvider{events: textEvents("x")}
	c := NewClient(mp, "m", WithRateLimit(1, 1))

	_, err := c.Complete(context.Background(), "first", Options{MaxTokens: 64})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, "second", Options{MaxTokens: 64})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, 1, mp.calls())
}

func TestStripThinking(t *testing.T) {
	assert.Equal(t, "a b", StripThinking("a <think>x</think>b"))
	assert.Equal(t, "keep", StripThinking("<think>1</think>keep<think>2\n3</think>"))
}

// stallingProvider sends a partial reply and then closes the stream without
// an error event once the request context is done.
type stallingProvider struct{}

func (stallingProvider) Stream(ctx context.Context, _ provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	ch := make(chan provider.StreamEvent, 1)
	ch <- provider.StreamEvent{Type: provider.EventTextDelta, Text: "partial"}
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMapCache() *mapCache { return &mapCache{entries: make(map[string]string)} }

func (m *mapCache) GetCachedResponse(key string) (*store.CachedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if resp, ok := m.entries[key]; ok {
		return &store.CachedResponse{Key: key, Response: resp}, nil
	}
	return nil, nil
}

func (m *mapCache) CacheResponse(key, _, response string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = response
	return nil
}

func (m *mapCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func TestCompleteTimeoutMidStreamIsNotCached(t *testing.T) {
	cache := newMapCache()
	c := NewClient(stallingProvider{}, "m", WithTimeout(30*time.Millisecond), WithCache(cache))

	got, err := c.Complete(context.Background(), "q", Options{MaxTokens: 64})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, got)
	assert.Zero(t, cache.len())
}

func TestCompleteCancelledMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClient(stallingProvider{}, "m").Complete(ctx, "q", Options{MaxTokens: 64})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompleteHangingServerTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"partial\"}}]}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	cache := newMapCache()
	c := NewClient(openai.New(srv.URL, "key", nil), "m", WithTimeout(50*time.Millisecond), WithCache(cache))

	for i := 0; i < 10; i++ {
		got, err := c.Complete(context.Background(), "q", Options{MaxTokens: 64})
		require.Error(t, err, "attempt %d", i)
		assert.Empty(t, got)
	}
	assert.Zero(t, cache.len())
}

func TestCompleteRequiresOutputBudget(t *testing.T) {
	mp := &mockProvider{events: textEvents("x")}
	_, err := NewClient(mp, "m").Complete(context.Background(), "q", Options{})
	assert.ErrorIs(t, err, ErrNoOutputBudget)
	assert.Zero(t, mp.calls())
}
