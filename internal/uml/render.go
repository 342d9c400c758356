package uml

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxImageSize caps how much of a rendered diagram is read.
const maxImageSize = 10 << 20

// plantumlEncoding is base64 with PlantUML's own alphabet.
var plantumlEncoding = base64.NewEncoding("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_").
	WithPadding(base64.NoPadding)

// Encode compresses source with raw deflate and encodes it the way PlantUML
// servers expect in their URLs. Incomplete trailing groups are padded with
// zero bytes, so the output length is always a multiple of four.
func Encode(source string) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return "", fmt.Errorf("deflate: %w", err)
	}
	if _, err := w.Write([]byte(source)); err != nil {
		return "", fmt.Errorf("deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("deflate: %w", err)
	}

	data := buf.Bytes()
	if rem := len(data) % 3; rem != 0 {
		data = append(data, make([]byte, 3-rem)...)
	}
	return plantumlEncoding.EncodeToString(data), nil
}

// Renderer turns PlantUML source into an image.
type Renderer interface {
	Render(ctx context.Context, source string) ([]byte, error)
}

// ServerRenderer renders through a PlantUML server.
type ServerRenderer struct {
	client *http.Client
	server string
	format string
}

// NewServerRenderer creates a renderer for server producing format images.
func NewServerRenderer(server, format string, timeout time.Duration) *ServerRenderer {
	return &ServerRenderer{
		client: &http.Client{Timeout: timeout},
		server: strings.TrimRight(server, "/"),
		format: strings.ToLower(format),
	}
}

// URL returns the GET URL that renders source.
func (r *ServerRenderer) URL(source string) (string, error) {
	encoded, err := Encode(source)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", r.server, r.format, encoded), nil
}

// Render fetches the rendered diagram.
func (r *ServerRenderer) Render(ctx context.Context, source string) ([]byte, error) {
	url, err := r.URL(source)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plantuml request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("plantuml server: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
