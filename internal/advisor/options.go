// Package app provides the advisor service application.
package app

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	crmopts "github.com/kart-io/advisor-x/pkg/options/crm"
	llmopts "github.com/kart-io/advisor-x/pkg/options/llm"
	logopts "github.com/kart-io/advisor-x/pkg/options/logger"
	milvusopts "github.com/kart-io/advisor-x/pkg/options/milvus"
	pricingopts "github.com/kart-io/advisor-x/pkg/options/pricing"
	redisopts "github.com/kart-io/advisor-x/pkg/options/redis"
)

// Options contains all advisor service options.
type Options struct {
	// HTTP contains the HTTP server configuration.
	HTTP *HTTPOptions `json:"http" mapstructure:"http"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Milvus contains Milvus database configuration.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// Embedding contains embedding provider configuration.
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// Chat contains chat provider configuration.
	Chat *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// CRM contains the customer history API configuration.
	CRM *crmopts.Options `json:"crm" mapstructure:"crm"`

	// Pricing contains the price lookup API configuration.
	Pricing *pricingopts.Options `json:"pricing" mapstructure:"pricing"`

	// Advisor contains recommendation pipeline configuration.
	Advisor *AdvisorOptions `json:"advisor" mapstructure:"advisor"`

	// Cache contains result cache configuration.
	Cache *CacheOptions `json:"cache" mapstructure:"cache"`
}

// HTTPOptions contains HTTP server configuration.
type HTTPOptions struct {
	// Addr is the listen address.
	Addr string `json:"addr" mapstructure:"addr"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `json:"read-timeout" mapstructure:"read-timeout"`

	// WriteTimeout bounds response writes. It must exceed the pipeline
	// timeout or long LLM calls get cut off mid-response.
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout time.Duration `json:"idle-timeout" mapstructure:"idle-timeout"`
}

// AdvisorOptions contains recommendation pipeline configuration.
type AdvisorOptions struct {
	// Collection is the Milvus collection name.
	Collection string `json:"collection" mapstructure:"collection"`

	// TopK is the number of documents retrieved per query.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// EmbeddingDim is the embedding vector dimension.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// MaxChars caps each corpus document's length.
	MaxChars int `json:"max-chars" mapstructure:"max-chars"`

	// HistoryMaxChars caps the raw history fallback when summarization fails.
	HistoryMaxChars int `json:"history-max-chars" mapstructure:"history-max-chars"`

	// CatalogPath is the product catalog JSON file.
	CatalogPath string `json:"catalog-path" mapstructure:"catalog-path"`

	// ReviewsPath is the optional pipe-delimited review summary file.
	ReviewsPath string `json:"reviews-path" mapstructure:"reviews-path"`
}

// CacheOptions contains result cache configuration.
type CacheOptions struct {
	// Enabled toggles the result cache. Off by default: responses depend on
	// live CRM and pricing data.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL is the cache entry lifetime.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix is the Redis key prefix.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis contains the Redis connection configuration.
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`
}

// NewHTTPOptions creates default HTTP server options.
func NewHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		Addr:         ":8083",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// NewAdvisorOptions creates default pipeline options.
func NewAdvisorOptions() *AdvisorOptions {
	return &AdvisorOptions{
		Collection:      "appliance_products",
		TopK:            3,
		EmbeddingDim:    768,
		MaxChars:        2000,
		HistoryMaxChars: 4000,
		CatalogPath:     "data/products.json",
		ReviewsPath:     "",
	}
}

// NewCacheOptions creates default cache options.
func NewCacheOptions() *CacheOptions {
	return &CacheOptions{
		Enabled:   false,
		TTL:       1 * time.Hour,
		KeyPrefix: "advisor:recommend:",
		Redis:     redisopts.NewOptions(),
	}
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		HTTP:      NewHTTPOptions(),
		Log:       logopts.NewOptions(),
		Milvus:    milvusopts.NewOptions(),
		Embedding: llmopts.NewEmbeddingOptions(),
		Chat:      llmopts.NewChatOptions(),
		CRM:       crmopts.NewOptions(),
		Pricing:   pricingopts.NewOptions(),
		Advisor:   NewAdvisorOptions(),
		Cache:     NewCacheOptions(),
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Embedding.AddFlags(fs, "embedding")
	o.Chat.AddFlags(fs, "chat")
	o.CRM.AddFlags(fs)
	o.Pricing.AddFlags(fs)
	o.addHTTPFlags(fs)
	o.addAdvisorFlags(fs)
	o.addCacheFlags(fs)
}

func (o *Options) addHTTPFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.HTTP.Addr, "http.addr", o.HTTP.Addr, "HTTP server listen address")
	fs.DurationVar(&o.HTTP.ReadTimeout, "http.read-timeout", o.HTTP.ReadTimeout, "HTTP server read timeout")
	fs.DurationVar(&o.HTTP.WriteTimeout, "http.write-timeout", o.HTTP.WriteTimeout, "HTTP server write timeout")
	fs.DurationVar(&o.HTTP.IdleTimeout, "http.idle-timeout", o.HTTP.IdleTimeout, "HTTP server idle timeout")
}

func (o *Options) addAdvisorFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Advisor.Collection, "advisor.collection", o.Advisor.Collection, "Milvus collection name")
	fs.IntVar(&o.Advisor.TopK, "advisor.top-k", o.Advisor.TopK, "Number of documents retrieved per query")
	fs.IntVar(&o.Advisor.EmbeddingDim, "advisor.embedding-dim", o.Advisor.EmbeddingDim, "Embedding vector dimension")
	fs.IntVar(&o.Advisor.MaxChars, "advisor.max-chars", o.Advisor.MaxChars, "Maximum characters per corpus document")
	fs.IntVar(&o.Advisor.HistoryMaxChars, "advisor.history-max-chars", o.Advisor.HistoryMaxChars, "Maximum characters of raw history fallback")
	fs.StringVar(&o.Advisor.CatalogPath, "advisor.catalog-path", o.Advisor.CatalogPath, "Product catalog JSON path")
	fs.StringVar(&o.Advisor.ReviewsPath, "advisor.reviews-path", o.Advisor.ReviewsPath, "Review summary file path (optional)")
}

func (o *Options) addCacheFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Cache.Enabled, "cache.enabled", o.Cache.Enabled, "Enable recommendation result cache")
	fs.DurationVar(&o.Cache.TTL, "cache.ttl", o.Cache.TTL, "Cache TTL duration")
	fs.StringVar(&o.Cache.KeyPrefix, "cache.key-prefix", o.Cache.KeyPrefix, "Cache key prefix")
	o.Cache.Redis.AddFlags(fs, "cache")
}

// Validate validates the options.
func (o *Options) Validate() error {
	if err := o.Log.Validate(); err != nil {
		return err
	}
	if errs := o.Milvus.Validate(); len(errs) > 0 {
		return errs[0]
	}
	if errs := o.Embedding.Validate(); len(errs) > 0 {
		return fmt.Errorf("embedding: %w", errs[0])
	}
	if errs := o.Chat.Validate(); len(errs) > 0 {
		return fmt.Errorf("chat: %w", errs[0])
	}
	if errs := o.CRM.Validate(); len(errs) > 0 {
		return errs[0]
	}
	if errs := o.Pricing.Validate(); len(errs) > 0 {
		return errs[0]
	}
	if o.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if o.Advisor.TopK <= 0 {
		return fmt.Errorf("advisor.top-k must be positive")
	}
	if o.Advisor.EmbeddingDim <= 0 {
		return fmt.Errorf("advisor.embedding-dim must be positive")
	}
	if o.Advisor.MaxChars <= 0 {
		return fmt.Errorf("advisor.max-chars must be positive")
	}
	if o.Advisor.CatalogPath == "" {
		return fmt.Errorf("advisor.catalog-path is required")
	}
	if o.Cache.Enabled {
		if errs := o.Cache.Redis.Validate(); len(errs) > 0 {
			return errs[0]
		}
	}
	return nil
}
