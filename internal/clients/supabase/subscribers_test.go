package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const subscriberRows = `[
	{"id": 1, "created_at": "2026-10-01T00:00:00Z",
	 "content": "{\"email\":\"alice@example.com\",\"name\":\"Alice\",\"interested_topics\":[\"AI開發\",\"學習方法\"],\"subscription_source\":\"thinker_news_website\",\"subscription_date\":\"2026-10-01T00:00:00Z\",\"status\":\"active\"}"},
	{"id": 2, "created_at": "2026-10-02T00:00:00Z",
	 "content": "{\"email\":\"bob@example.com\",\"name\":\"\",\"interested_topics\":[],\"subscription_source\":\"thinker_news_website\",\"subscription_date\":\"2026-10-02T00:00:00Z\",\"status\":\"unsubscribed\"}"},
	{"id": "c3", "created_at": "2026-10-03T00:00:00Z",
	 "content": {"email":"carol@example.com","name":"Carol","interested_topics":["工具應用"],"subscription_source":"thinker_news_website","subscription_date":"2026-10-03T00:00:00Z","status":"active"}},
	{"id": 4, "created_at": "2026-10-04T00:00:00Z", "content": "not json"}
]`

type patchRecord struct {
	query   string
	content Subscription
}

func newSubscriberServer(t *testing.T) (*httptest.Server, func() []patchRecord) {
	t.Helper()
	var mu sync.Mutex
	var patches []patchRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/semantic_insights", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "eq.email_subscription", r.URL.Query().Get("category"))
			assert.Equal(t, "id,content,created_at", r.URL.Query().Get("select"))
			_, _ = w.Write([]byte(subscriberRows))
		case http.MethodPatch:
			assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var patch map[string]string
			require.NoError(t, json.Unmarshal(body, &patch))
			var content Subscription
			require.NoError(t, json.Unmarshal([]byte(patch["content"]), &content))
			mu.Lock()
			patches = append(patches, patchRecord{query: r.URL.RawQuery, content: content})
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []patchRecord {
		mu.Lock()
		defer mu.Unlock()
		return slices.Clone(patches)
	}
}

func requireOnePatch(t *testing.T, patches []patchRecord) patchRecord {
	t.Helper()
	require.Len(t, patches, 1)
	return patches[0]
}

func TestClient_ListSubscribers(t *testing.T) {
	t.Parallel()

	srv, _ := newSubscriberServer(t)
	client := newTestClient(t, srv.URL)

	subscribers, err := client.ListSubscribers(context.Background())
	require.NoError(t, err)
	require.Len(t, subscribers, 3)

	assert.Equal(t, RowID("1"), subscribers[0].ID)
	assert.Equal(t, "alice@example.com", subscribers[0].Email)
	assert.Equal(t, []string{"AI開發", "學習方法"}, subscribers[0].InterestedTopics)
	assert.Equal(t, StatusUnsubscribed, subscribers[1].Status)
	assert.Equal(t, RowID("c3"), subscribers[2].ID)
	assert.Equal(t, "Carol", subscribers[2].Name)

	assert.Equal(t, Stats{Total: 3, Active: 2, Inactive: 1}, CountSubscribers(subscribers))

	active := FilterSubscribers(subscribers, StatusActive, "")
	require.Len(t, active, 2)
	byTopic := FilterSubscribers(subscribers, StatusActive, "AI開發")
	require.Len(t, byTopic, 1)
	assert.Equal(t, "alice@example.com", byTopic[0].Email)
	assert.Empty(t, FilterSubscribers(subscribers, StatusActive, "團隊協作"))
	assert.Len(t, FilterSubscribers(subscribers, "", ""), 3)
}

func TestClient_ListSubscribersUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).ListSubscribers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_Unsubscribe(t *testing.T) {
	t.Parallel()

	t.Run("active subscription is marked unsubscribed", func(t *testing.T) {
		srv, patches := newSubscriberServer(t)
		client := newTestClient(t, srv.URL)

		n, err := client.Unsubscribe(context.Background(), "  ALICE@example.com ")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got := requireOnePatch(t, patches())
		assert.Equal(t, "id=eq.1", got.query)
		assert.Equal(t, StatusUnsubscribed, got.content.Status)
		assert.Equal(t, "alice@example.com", got.content.Email)
		assert.Equal(t, []string{"AI開發", "學習方法"}, got.content.InterestedTopics)
		require.NotNil(t, got.content.UpdatedAt)
		assert.True(t, got.content.UpdatedAt.Equal(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)))
	})

	t.Run("already unsubscribed", func(t *testing.T) {
		srv, patches := newSubscriberServer(t)

		_, err := newTestClient(t, srv.URL).Unsubscribe(context.Background(), "bob@example.com")
		require.ErrorIs(t, err, ErrNotSubscribed)
		assert.Empty(t, patches())
	})

	t.Run("unknown address", func(t *testing.T) {
		srv, _ := newSubscriberServer(t)

		_, err := newTestClient(t, srv.URL).Unsubscribe(context.Background(), "nobody@example.com")
		require.ErrorIs(t, err, ErrNotSubscribed)
	})
}

func TestClient_MarkSent(t *testing.T) {
	t.Parallel()

	srv, patches := newSubscriberServer(t)

	n, err := newTestClient(t, srv.URL).MarkSent(context.Background(), "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := requireOnePatch(t, patches())
	assert.Equal(t, "id=eq.c3", got.query)
	assert.Equal(t, StatusActive, got.content.Status)
	require.NotNil(t, got.content.LastSentDate)
	assert.Nil(t, got.content.UpdatedAt)
}

func TestRowID_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var ids []RowID
	require.NoError(t, json.Unmarshal([]byte(`[12, "abc", 9007199254740993]`), &ids))
	assert.Equal(t, []RowID{"12", "abc", "9007199254740993"}, ids)

	var id RowID
	require.Error(t, json.Unmarshal([]byte(`{}`), &id))
}
