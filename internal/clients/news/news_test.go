package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil client creates default", func(t *testing.T) {
		client, err := New("https://example.com/latest.json", nil)
		require.NoError(t, err)
		require.NotNil(t, client.httpClient)
		assert.Equal(t, defaultFetchTimeout, client.httpClient.Timeout)
	})

	t.Run("custom client is used", func(t *testing.T) {
		custom := &http.Client{Timeout: time.Second}
		client, err := New("https://example.com/latest.json", custom)
		require.NoError(t, err)
		assert.Equal(t, custom, client.httpClient)
	})

	t.Run("relative URL is rejected", func(t *testing.T) {
		_, err := New("latest.json", nil)
		require.Error(t, err)
	})

	t.Run("unparsable URL is rejected", func(t *testing.T) {
		_, err := New("://bad", nil)
		require.Error(t, err)
	})
}

func TestClient_FetchLatestNews(t *testing.T) {
	t.Parallel()

	t.Run("successful fetch", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/latest.json", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprint(w, `{"date":"2026-10-19","line_content":"TODAY","notion_content":"long","website_url":"https://example.com/2026-10-19.html"}`)
		}))
		defer testServer.Close()

		client, err := New(testServer.URL+"/latest.json", nil)
		require.NoError(t, err)

		latest, err := client.FetchLatestNews(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "2026-10-19", latest.Date)
		assert.Equal(t, "TODAY", latest.LineContent)
		assert.Equal(t, "long", latest.NotionContent)
		assert.Equal(t, "https://example.com/2026-10-19.html", latest.WebsiteURL)
	})

	t.Run("every call refetches", func(t *testing.T) {
		var calls atomic.Int32
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := calls.Add(1)
			_, _ = fmt.Fprintf(w, `{"line_content":"edition %d"}`, n)
		}))
		defer testServer.Close()

		client, err := New(testServer.URL, nil)
		require.NoError(t, err)

		first, err := client.FetchLatestNews(context.Background())
		require.NoError(t, err)
		second, err := client.FetchLatestNews(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "edition 1", first.LineContent)
		assert.Equal(t, "edition 2", second.LineContent)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("non-success status", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, "not found")
		}))
		defer testServer.Close()

		client, err := New(testServer.URL, nil)
		require.NoError(t, err)

		latest, err := client.FetchLatestNews(context.Background())
		require.Error(t, err)
		assert.Nil(t, latest)
		assert.Contains(t, err.Error(), "status code 404")

		richErr, ok := richerrors.AsRichError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadGateway, richErr.Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, "<html>oops</html>")
		}))
		defer testServer.Close()

		client, err := New(testServer.URL, nil)
		require.NoError(t, err)

		latest, err := client.FetchLatestNews(context.Background())
		require.Error(t, err)
		assert.Nil(t, latest)
	})

	t.Run("network failure", func(t *testing.T) {
		client, err := New("http://invalid.localhost:0/latest.json", nil)
		require.NoError(t, err)

		latest, err := client.FetchLatestNews(context.Background())
		require.Error(t, err)
		assert.Nil(t, latest)
	})

	t.Run("context cancellation", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = fmt.Fprint(w, `{"line_content":"late"}`)
		}))
		defer testServer.Close()

		client, err := New(testServer.URL, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err = client.FetchLatestNews(ctx)
		require.Error(t, err)
	})
}
