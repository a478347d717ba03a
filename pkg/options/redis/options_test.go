package redis

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions_Defaults(t *testing.T) {
	opts := NewOptions()

	assert.Equal(t, "127.0.0.1", opts.Host)
	assert.Equal(t, 6379, opts.Port)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr())
	assert.Empty(t, opts.Validate())
}

func TestString_PasswordRedacted(t *testing.T) {
	opts := NewOptions()
	opts.Password = "supersecret"

	str := opts.String()
	assert.NotContains(t, str, "supersecret")
	assert.Contains(t, str, "[REDACTED]")
}

func TestValidate(t *testing.T) {
	opts := NewOptions()
	opts.Host = ""
	opts.Port = 70000

	errs := opts.Validate()
	assert.Len(t, errs, 2)
}

func TestAddFlags_Prefixed(t *testing.T) {
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs, "cache")

	require.NoError(t, fs.Parse([]string{
		"--cache.redis.host=redis.internal",
		"--cache.redis.port=6380",
		"--cache.redis.database=2",
	}))

	assert.Equal(t, "redis.internal", opts.Host)
	assert.Equal(t, 6380, opts.Port)
	assert.Equal(t, 2, opts.Database)
}
