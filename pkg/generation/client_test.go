package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

func TestNewOpenAIChatClient(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		_, err := NewOpenAIChatClient(OpenAIChatConfig{})
		require.Error(t, err)
		assert.Equal(t, types.ErrKindConfiguration, types.KindOf(err))
	})

	t.Run("defaults", func(t *testing.T) {
		c, err := NewOpenAIChatClient(OpenAIChatConfig{APIKey: "sk-test"})
		require.NoError(t, err)
		assert.Equal(t, "gpt-4", c.Model())
	})
}

func TestChatClientComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.InDelta(t, 0.2, req.Temperature, 1e-9)
		assert.Equal(t, 1500, req.MaxTokens)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Contracts must be in Arabic."}},
			},
		})
	}))
	defer srv.Close()

	client, err := NewOpenAIChatClient(OpenAIChatConfig{APIKey: "sk-test", Endpoint: srv.URL})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), ChatRequest{
		SystemMessage: "You are a legal analyst.",
		UserMessage:   "What language must contracts use?",
		Temperature:   0.2,
		MaxTokens:     1500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Contracts must be in Arabic.", text)
}

func TestChatClientCompleteErrors(t *testing.T) {
	t.Run("server error is classified as generation failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client, err := NewOpenAIChatClient(OpenAIChatConfig{APIKey: "sk-test", Endpoint: srv.URL})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), ChatRequest{UserMessage: "question"})
		require.Error(t, err)
		assert.Equal(t, types.ErrKindGeneration, types.KindOf(err))
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		}))
		defer srv.Close()

		client, err := NewOpenAIChatClient(OpenAIChatConfig{APIKey: "sk-test", Endpoint: srv.URL})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), ChatRequest{UserMessage: "question"})
		require.Error(t, err)
	})

	t.Run("breaker opens after consecutive failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client, err := NewOpenAIChatClient(OpenAIChatConfig{APIKey: "sk-test", Endpoint: srv.URL})
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			_, err = client.Complete(context.Background(), ChatRequest{UserMessage: "question"})
			require.Error(t, err)
		}

		// Sixth call fails fast without reaching the endpoint.
		_, err = client.Complete(context.Background(), ChatRequest{UserMessage: "question"})
		require.Error(t, err)
	})
}
