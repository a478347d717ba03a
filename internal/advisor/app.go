package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kart-io/advisor-x/internal/advisor/biz"
	"github.com/kart-io/advisor-x/internal/advisor/handler"
	"github.com/kart-io/advisor-x/internal/advisor/router"
	"github.com/kart-io/advisor-x/internal/advisor/store"
	"github.com/kart-io/advisor-x/pkg/component/crm"
	"github.com/kart-io/advisor-x/pkg/component/milvus"
	"github.com/kart-io/advisor-x/pkg/component/pricing"
	"github.com/kart-io/advisor-x/pkg/component/redis"
	"github.com/kart-io/advisor-x/pkg/llm"

	// Register LLM providers.
	_ "github.com/kart-io/advisor-x/pkg/llm/deepseek"
	_ "github.com/kart-io/advisor-x/pkg/llm/ollama"
	_ "github.com/kart-io/advisor-x/pkg/llm/openai"
)

const (
	appName        = "advisor"
	appDescription = `Appliance Advisor Service

Retrieval-augmented product recommendation service for home appliances.

This server provides:
  - Product catalog ingestion with vector embeddings
  - Semantic retrieval over product documents
  - Customer history aware recommendations with persona classification`
)

const shutdownTimeout = 10 * time.Second

// NewCommand creates the advisor root command.
func NewCommand() *cobra.Command {
	opts := NewOptions()
	var configFile string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Appliance product recommendation service",
		Long:          appDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd, configFile, opts); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return Run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file")
	opts.AddFlags(cmd.Flags())

	return cmd
}

// loadConfig merges the config file and environment into the options. Flags
// set on the command line take precedence over both.
func loadConfig(cmd *cobra.Command, configFile string, opts *Options) error {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		v.AddConfigPath("/etc/advisor")
	}

	v.SetEnvPrefix("ADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// Run runs the advisor service with the given options.
func Run(ctx context.Context, opts *Options) error {
	opts.Log.AddInitialField("service.name", appName)
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting advisor service...")

	milvusClient, err := milvus.New(opts.Milvus)
	if err != nil {
		return fmt.Errorf("failed to initialize milvus: %w", err)
	}
	defer milvusClient.Close(context.Background())
	logger.Info("Milvus client initialized")

	vectorStore := store.NewMilvusStore(milvusClient, &store.CollectionConfig{
		Name:        opts.Advisor.Collection,
		Description: "Appliance product corpus",
		Dimension:   opts.Advisor.EmbeddingDim,
	})

	embedder, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, opts.Embedding.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	chat, err := llm.NewChatProvider(opts.Chat.Provider, opts.Chat.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to create chat provider: %w", err)
	}
	logger.Infow("LLM providers initialized",
		"embedding", embedder.Name(), "chat", chat.Name())

	crmClient := crm.New(opts.CRM)
	pricingClient := pricing.New(opts.Pricing)

	var redisClient *goredis.Client
	if opts.Cache.Enabled {
		cacheRedis, err := redis.New(opts.Cache.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer cacheRedis.Close()
		redisClient = cacheRedis.Client()
		logger.Infow("Redis client initialized", "addr", opts.Cache.Redis.Addr())

		// Embeddings share the Redis instance with the result cache.
		embedder = llm.NewCachedEmbeddingProvider(embedder, redisClient, nil)
	}
	resultCache := biz.NewResultCache(redisClient, &biz.ResultCacheConfig{
		Enabled:   opts.Cache.Enabled,
		TTL:       opts.Cache.TTL,
		KeyPrefix: opts.Cache.KeyPrefix,
	})

	historyFetcher := biz.NewHistoryFetcher(crmClient)
	reconciler := biz.NewReconciler(vectorStore, pricingClient)
	pipeline := biz.NewPipeline(vectorStore, embedder, chat, historyFetcher, reconciler, resultCache, &biz.PipelineConfig{
		TopK:            opts.Advisor.TopK,
		HistoryMaxChars: opts.Advisor.HistoryMaxChars,
	})
	indexer := biz.NewIndexer(vectorStore, embedder, &biz.IndexerConfig{
		CatalogPath: opts.Advisor.CatalogPath,
		ReviewsPath: opts.Advisor.ReviewsPath,
		MaxChars:    opts.Advisor.MaxChars,
	})
	logger.Info("Recommendation pipeline initialized")

	advisorHandler := handler.NewAdvisorHandler(pipeline, indexer, vectorStore, resultCache, embedder, chat)
	engine := router.New(advisorHandler)

	return serve(ctx, opts.HTTP, engine)
}

func serve(ctx context.Context, opts *HTTPOptions, engine http.Handler) error {
	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      engine,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-signalCtx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
