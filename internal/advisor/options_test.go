package app

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions_Defaults(t *testing.T) {
	opts := NewOptions()

	assert.Equal(t, ":8083", opts.HTTP.Addr)
	assert.Equal(t, "appliance_products", opts.Advisor.Collection)
	assert.Equal(t, 3, opts.Advisor.TopK)
	assert.Equal(t, 2000, opts.Advisor.MaxChars)
	assert.Equal(t, "ollama", opts.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", opts.Embedding.Model)
	assert.False(t, opts.Cache.Enabled)

	require.NoError(t, opts.Validate())
}

func TestOptions_Validate(t *testing.T) {
	opts := NewOptions()
	opts.Advisor.TopK = 0
	assert.Error(t, opts.Validate())

	opts = NewOptions()
	opts.Chat.Provider = "openai"
	opts.Chat.APIKey = ""
	assert.Error(t, opts.Validate())

	opts = NewOptions()
	opts.Advisor.CatalogPath = ""
	assert.Error(t, opts.Validate())
}

func TestOptions_AddFlags(t *testing.T) {
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--advisor.top-k=5",
		"--chat.model=llama3:8b",
		"--cache.enabled=true",
		"--cache.redis.host=redis.internal",
	}))

	assert.Equal(t, 5, opts.Advisor.TopK)
	assert.Equal(t, "llama3:8b", opts.Chat.Model)
	assert.True(t, opts.Cache.Enabled)
	assert.Equal(t, "redis.internal", opts.Cache.Redis.Host)
}
