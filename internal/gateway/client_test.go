package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat", r.URL.Path)

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "How many users do we have?", req.Message)
		assert.Equal(t, "session-1", req.ConversationID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"response": "I found 5 users in the database.",
			"conversation_id": "session-1",
			"data": {
				"total_results": 5,
				"sources": ["postgresql"],
				"summary": "Found 5 results from postgresql.",
				"aggregations": {
					"elasticsearch": {
						"category_breakdown": [
							{"key": "books", "count": 12},
							{"key": "games", "count": 7}
						],
						"avg_score": 4.5
					}
				},
				"results": [
					{"id": 1, "name": "A"},
					{"id": 2, "name": "B"}
				],
				"timeline": [
					{"date": "2024-03-01", "count": 2, "items": [{"id": 1}]}
				]
			},
			"query_info": {
				"intent": "count_records",
				"entities": [{"text": "users"}],
				"routing": {"use_postgresql": true, "use_elasticsearch": false}
			}
		}`))
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil)
	resp, err := client.SendMessage(context.Background(), "How many users do we have?", "session-1")
	require.NoError(t, err)

	assert.Equal(t, "I found 5 users in the database.", resp.Response)
	require.NotNil(t, resp.Data)
	require.NotNil(t, resp.Data.TotalResults)
	assert.EqualValues(t, 5, *resp.Data.TotalResults)
	assert.Equal(t, []string{"postgresql"}, resp.Data.Sources)
	assert.Equal(t, "Found 5 results from postgresql.", resp.Data.SummaryText)

	metrics := resp.Data.Aggregations["elasticsearch"]
	require.Len(t, metrics["category_breakdown"].Buckets, 2)
	assert.Equal(t, "books", metrics["category_breakdown"].Buckets[0].Key)
	assert.EqualValues(t, 12, metrics["category_breakdown"].Buckets[0].Count)
	assert.Nil(t, metrics["avg_score"].Buckets)
	assert.Equal(t, 4.5, metrics["avg_score"].Scalar)

	require.Len(t, resp.Data.Results, 2)
	assert.Equal(t, []string{"id", "name"}, resp.Data.Results[0].FieldOrder())

	require.Len(t, resp.Data.Timeline, 1)
	assert.Equal(t, "2024-03-01", resp.Data.Timeline[0].Date)
	assert.Equal(t, 2, resp.Data.Timeline[0].Count)

	require.NotNil(t, resp.QueryInfo)
	assert.Equal(t, "count_records", resp.QueryInfo.Intent)
	assert.Equal(t, []string{"postgresql"}, resp.QueryInfo.RoutedSources())
}

func TestServerErrorMapsToTaxonomy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil)
	_, err := client.SendMessage(context.Background(), "hi", "s")
	require.Error(t, err)
	assert.Equal(t, KindServerError, KindOf(err))
}

func TestNotFoundMapsToTaxonomy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil)
	_, err := client.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestOtherClientErrorMapsToUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil)
	_, err := client.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestConnectionRefusedMapsToUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := New(server.URL, time.Second, nil)
	_, err := client.SendMessage(context.Background(), "hi", "s")
	require.Error(t, err)
	assert.Equal(t, KindUnreachable, KindOf(err))
}

func TestSlowBackendMapsToTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	client := New(server.URL, 50*time.Millisecond, nil)
	_, err := client.SendMessage(context.Background(), "hi", "s")
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestCheckAvailabilitySwallowsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "running"}`))
	}))
	client := New(server.URL, time.Second, nil)
	assert.True(t, client.CheckAvailability(context.Background()))

	server.Close()
	assert.False(t, client.CheckAvailability(context.Background()))
}

func TestSchemaIsPassthrough(t *testing.T) {
	raw := `{"tables":{"users":{"columns":["id","name"]}}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/schema/postgresql", r.URL.Path)
		_, _ = w.Write([]byte(raw))
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil)
	payload, err := client.Schema(context.Background(), "postgresql")
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(payload))
}
