package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, req chatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCompletion(w http.ResponseWriter, content string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{
			{"index": 0, "finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": content}},
		},
	})
}

func newTestClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(Config{
		BaseURL:     baseURL + "/v1/",
		Model:       "test-model",
		APIKey:      "test-key",
		MaxTokens:   512,
		Temperature: 0.3,
		Timeout:     timeout,
	})
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{Model: "gpt-4o-mini", APIKey: "test-key"})
	require.NotNil(t, client)
	assert.NotNil(t, client.client)
	assert.Equal(t, "gpt-4o-mini", client.model)
}

func TestComplete_SendsPromptsAndReturnsContent(t *testing.T) {
	var got chatRequest
	srv := newTestServer(t, func(w http.ResponseWriter, req chatRequest) {
		got = req
		writeCompletion(w, "the digest")
	})

	text, err := newTestClient(srv.URL, time.Minute).Complete(context.Background(), "be brief", "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "the digest", text)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 512, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 0.0001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "summarize this", got.Messages[1].Content)
}

func TestComplete_NoSystemPrompt(t *testing.T) {
	var got chatRequest
	srv := newTestServer(t, func(w http.ResponseWriter, req chatRequest) {
		got = req
		writeCompletion(w, "ok")
	})

	_, err := newTestClient(srv.URL, time.Minute).Complete(context.Background(), "", "only user")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestComplete_BlankContent(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req chatRequest) {
		writeCompletion(w, "   \n")
	})

	_, err := newTestClient(srv.URL, time.Minute).Complete(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_NoChoices(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req chatRequest) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	})

	_, err := newTestClient(srv.URL, time.Minute).Complete(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_ServerError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req chatRequest) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"server_error"}}`))
	})

	_, err := newTestClient(srv.URL, time.Minute).Complete(context.Background(), "", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm completion")
	assert.False(t, errors.Is(err, ErrEmptyResponse))
}

func TestComplete_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, req chatRequest) {
		<-release
		writeCompletion(w, "late")
	})
	defer close(release)

	_, err := newTestClient(srv.URL, 50*time.Millisecond).Complete(context.Background(), "", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
