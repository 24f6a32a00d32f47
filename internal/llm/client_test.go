package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chungws/lmarena-clone/internal/registry"
	"github.com/Chungws/lmarena-clone/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	defer logger.Sync()

	os.Exit(m.Run())
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
}

func testModel(baseURL string) registry.Model {
	return registry.Model{
		ID:      "test-model",
		Name:    "Test Model",
		Model:   "test-model",
		BaseURL: baseURL + "/v1",
	}
}

func newTestClient(attempts int) *Client {
	return NewClient(Config{
		ConnectTimeout: time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   time.Second,
		PoolTimeout:    time.Second,
		RetryAttempts:  attempts,
		BackoffBase:    time.Millisecond,
	})
}

func TestClient_Complete(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		time.Sleep(10 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("hello back"))
	}))
	defer server.Close()

	client := newTestClient(3)

	history := []Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
		{Role: "user", Content: "hello again"},
	}

	resp, err := client.Complete(context.Background(), testModel(server.URL), history)
	require.NoError(t, err)

	assert.Equal(t, "hello back", resp.Content)
	assert.Equal(t, "test-model", resp.ModelID)
	assert.GreaterOrEqual(t, resp.LatencyMS, int64(10))

	assert.Equal(t, "test-model", gotBody.Model)
	require.Len(t, gotBody.Messages, 3)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Equal(t, "hello again", gotBody.Messages[2].Content)
}

func TestClient_CompleteRetriesThenSucceeds(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("third time lucky"))
	}))
	defer server.Close()

	client := newTestClient(3)

	resp, err := client.Complete(context.Background(), testModel(server.URL), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	assert.Equal(t, "third time lucky", resp.Content)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_CompleteExhaustsRetries(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(3)

	_, err := client.Complete(context.Background(), testModel(server.URL), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "test-model", dispatchErr.ModelID)
	assert.Equal(t, 3, dispatchErr.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_CompleteEmptyChoicesRetried(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		body := completionBody("")
		body["choices"] = []any{}
		json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	client := newTestClient(2)

	_, err := client.Complete(context.Background(), testModel(server.URL), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)

	// A well-formed but empty response is a retryable failure.
	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.True(t, errors.Is(err, ErrEmptyResponse))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_CompleteContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(3)

	_, err := client.Complete(ctx, testModel(server.URL), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)

	// Cancellation aborts without burning the remaining attempts.
	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, 1, dispatchErr.Attempts)
}
