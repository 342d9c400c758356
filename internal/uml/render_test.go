package uml

import (
	"bytes"
	"compress/flate"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plantumlAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

func decode(t *testing.T, encoded string) string {
	t.Helper()
	raw, err := plantumlEncoding.DecodeString(encoded)
	require.NoError(t, err)
	data, err := io.ReadAll(flate.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	return string(data)
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, src := range []string{
		"@startuml\nBob -> Alice : hello\n@enduml",
		"@startuml\nclass Žiak {\n}\n@enduml",
		"a",
	} {
		encoded, err := Encode(src)
		require.NoError(t, err)
		assert.Zero(t, len(encoded)%4, "length of %q", encoded)
		for _, r := range encoded {
			assert.True(t, strings.ContainsRune(plantumlAlphabet, r), "unexpected rune %q", r)
		}
		assert.Equal(t, src, decode(t, encoded))
	}
}

func TestServerRendererURL(t *testing.T) {
	r := NewServerRenderer("http://plantuml.example/plantuml/", "SVG", time.Second)
	u, err := r.URL("@startuml\n@enduml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://plantuml.example/plantuml/svg/"), u)
}

func TestServerRendererRender(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("<svg/>"))
	}))
	defer server.Close()

	src := "@startuml\nA --> B\n@enduml"
	r := NewServerRenderer(server.URL, "svg", 5*time.Second)
	image, err := r.Render(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(image))

	require.True(t, strings.HasPrefix(gotPath, "/svg/"))
	assert.Equal(t, src, decode(t, strings.TrimPrefix(gotPath, "/svg/")))
}

func TestServerRendererHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := NewServerRenderer(server.URL, "png", 5*time.Second).Render(context.Background(), "@startuml\n@enduml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
}
