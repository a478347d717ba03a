package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/advisor-x/pkg/llm"
	"github.com/kart-io/advisor-x/pkg/utils/json"
)

const testAPIKey = "test-key"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbedModel)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")

	p, err := NewProvider(map[string]any{
		"api_key":      testAPIKey,
		"embed_model":  "text-embedding-3-large",
		"chat_model":   "gpt-4o",
		"organization": "org-123",
		"temperature":  0.7,
		"max_tokens":   2000,
	})
	require.NoError(t, err)
	assert.Equal(t, ProviderName, p.Name())

	provider := p.(*Provider)
	assert.Equal(t, "text-embedding-3-large", provider.config.EmbedModel)
	assert.Equal(t, "gpt-4o", provider.config.ChatModel)
	assert.Equal(t, "org-123", provider.config.Organization)
	assert.Equal(t, 0.7, provider.config.Temperature)
	assert.Equal(t, 2000, provider.config.MaxTokens)
}

func newEmbeddingServer(t *testing.T, vectors ...[]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))

		resp := embeddingResponse{Object: "list", Model: "text-embedding-3-small"}
		// Return data out of order to exercise index-based reassembly.
		for i := len(vectors) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Object    string    `json:"object"`
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Object: "embedding", Embedding: vectors[i], Index: i})
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newProviderFor(url string) *Provider {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.APIKey = testAPIKey
	return NewProviderWithConfig(cfg)
}

func TestEmbed(t *testing.T) {
	srv := newEmbeddingServer(t, []float32{0.1, 0.2}, []float32{0.3, 0.4})
	defer srv.Close()

	embeddings, err := newProviderFor(srv.URL).Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0])
	assert.Equal(t, []float32{0.3, 0.4}, embeddings[1])
}

func TestEmbedSingle(t *testing.T) {
	srv := newEmbeddingServer(t, []float32{0.1, 0.2, 0.3})
	defer srv.Close()

	embedding, err := newProviderFor(srv.URL).EmbedSingle(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, embedding, 3)
}

func TestEmbedEmptyInput(t *testing.T) {
	embeddings, err := newProviderFor("http://unused").Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func newChatServer(t *testing.T, content string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}

		resp := chatResponse{ID: "test-id", Object: "chat.completion", Model: "gpt-4o-mini"}
		resp.Choices = append(resp.Choices, struct {
			Index        int         `json:"index"`
			Message      chatMessage `json:"message"`
			FinishReason string      `json:"finish_reason"`
		}{Message: chatMessage{Role: "assistant", Content: content}, FinishReason: "stop"})
		resp.Usage.PromptTokens = 8
		resp.Usage.CompletionTokens = 2
		resp.Usage.TotalTokens = 10

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestChat(t *testing.T) {
	srv := newChatServer(t, "hi there", nil)
	defer srv.Close()

	response, err := newProviderFor(srv.URL).Chat(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hi there", response)
}

func TestGenerate(t *testing.T) {
	var gotReq chatRequest
	srv := newChatServer(t, "generated", &gotReq)
	defer srv.Close()

	resp, err := newProviderFor(srv.URL).Generate(context.Background(), "write something", "you are terse")
	require.NoError(t, err)

	assert.Equal(t, "generated", resp.Content)
	require.NotNil(t, resp.TokenUsage)
	assert.Equal(t, 10, resp.TokenUsage.TotalTokens)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "write something", gotReq.Messages[1].Content)
}

func TestChatSendsSamplingParams(t *testing.T) {
	var gotReq chatRequest
	srv := newChatServer(t, "ok", &gotReq)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = testAPIKey
	cfg.Temperature = 0.8
	cfg.MaxTokens = 1500
	provider := NewProviderWithConfig(cfg)

	_, err := provider.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	require.NoError(t, err)

	assert.Equal(t, 0.8, gotReq.Temperature)
	assert.Equal(t, 1500, gotReq.MaxTokens)
}

func TestOrganizationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "org-123", r.Header.Get("OpenAI-Organization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "data": [{"object": "embedding", "embedding": [0.1], "index": 0}]}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = testAPIKey
	cfg.Organization = "org-123"
	provider := NewProviderWithConfig(cfg)

	_, err := provider.EmbedSingle(context.Background(), "test")
	require.NoError(t, err)
}
