package deepseek

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/advisor-x/pkg/llm"
	"github.com/kart-io/advisor-x/pkg/utils/json"
)

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewProvider(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestNewProvider_Defaults(t *testing.T) {
	p, err := NewProvider(map[string]any{"api_key": "sk-test"})
	require.NoError(t, err)

	provider := p.(*Provider)
	assert.Equal(t, "https://api.deepseek.com", provider.config.BaseURL)
	assert.Equal(t, "deepseek-chat", provider.config.ChatModel)
	assert.Equal(t, ProviderName, provider.Name())
}

func TestGenerate(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	p, err := NewProvider(map[string]any{"api_key": "sk-test", "base_url": srv.URL})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), "say hello", "be brief")
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Content)
	require.NotNil(t, resp.TokenUsage)
	assert.Equal(t, 15, resp.TokenUsage.TotalTokens)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "say hello", gotReq.Messages[1].Content)
}

func TestEmbedUnsupported(t *testing.T) {
	p := NewProviderWithConfig(DefaultConfig())

	_, err := p.EmbedSingle(context.Background(), "text")
	assert.Error(t, err)
	_, err = p.Embed(context.Background(), []string{"text"})
	assert.Error(t, err)
}

var _ llm.Provider = (*Provider)(nil)
