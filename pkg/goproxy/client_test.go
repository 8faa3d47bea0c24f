package goproxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProxyList(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example", "direct"},
		parseProxyList(" https://a.example | https://b.example,,direct "))
}

func TestDownloadZip_FallsThroughNotFound(t *testing.T) {
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()

	var gotPath string
	found := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("zipdata"))
	}))
	defer found.Close()

	c := NewClient(WithProxy(missing.URL + "," + found.URL))
	data, err := c.DownloadZip(context.Background(), "github.com/Acme/Lib", "v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "zipdata", string(data))
	assert.Equal(t, "/github.com/!acme/!lib/@v/v1.2.3.zip", gotPath)
}

func TestDownloadZip_StopsOnServerError(t *testing.T) {
	calls := 0
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	c := NewClient(WithProxy(broken.URL + "," + broken.URL))
	_, err := c.DownloadZip(context.Background(), "example.com/lib", "v1.0.0")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDownloadZip_Off(t *testing.T) {
	c := NewClient(WithProxy("off"))
	_, err := c.DownloadZip(context.Background(), "example.com/lib", "v1.0.0")
	assert.Error(t, err)
}

func TestLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/example.com/lib/@latest" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"Version":"v2.1.0","Time":"2024-01-02T03:04:05Z"}`))
	}))
	defer srv.Close()

	info, err := NewClient(WithProxy(srv.URL)).Latest(context.Background(), "example.com/lib")
	require.NoError(t, err)
	assert.Equal(t, "v2.1.0", info.Version)
	assert.Equal(t, 2024, info.Time.Year())
}
