package app

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	"github.com/spf13/cobra"

	"github.com/kart-io/advisor-x/internal/advisor/biz"
	"github.com/kart-io/advisor-x/internal/advisor/store"
	"github.com/kart-io/advisor-x/pkg/component/milvus"
	"github.com/kart-io/advisor-x/pkg/llm"
)

// NewIngestCommand creates the one-shot catalog ingestion command. It shares
// the service configuration surface, so the same config file drives both the
// server and the loader.
func NewIngestCommand() *cobra.Command {
	opts := NewOptions()
	var configFile string
	var drop bool

	cmd := &cobra.Command{
		Use:           "advisor-ingest",
		Short:         "Load the product catalog into the vector store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd, configFile, opts); err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return RunIngest(cmd.Context(), opts, drop)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file")
	cmd.Flags().BoolVar(&drop, "drop", false, "Drop the collection before ingesting")
	opts.AddFlags(cmd.Flags())

	return cmd
}

// RunIngest loads the catalog once and exits.
func RunIngest(ctx context.Context, opts *Options, drop bool) error {
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	milvusClient, err := milvus.New(opts.Milvus)
	if err != nil {
		return fmt.Errorf("failed to initialize milvus: %w", err)
	}
	defer milvusClient.Close(context.Background())

	if drop {
		if err := milvusClient.DropCollection(ctx, opts.Advisor.Collection); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
		logger.Infow("collection dropped", "collection", opts.Advisor.Collection)
	}

	vectorStore := store.NewMilvusStore(milvusClient, &store.CollectionConfig{
		Name:        opts.Advisor.Collection,
		Description: "Appliance product corpus",
		Dimension:   opts.Advisor.EmbeddingDim,
	})

	embedder, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, opts.Embedding.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}

	indexer := biz.NewIndexer(vectorStore, embedder, &biz.IndexerConfig{
		CatalogPath: opts.Advisor.CatalogPath,
		ReviewsPath: opts.Advisor.ReviewsPath,
		MaxChars:    opts.Advisor.MaxChars,
	})

	result, err := indexer.Ingest(ctx)
	if err != nil {
		return err
	}

	if result.Skipped {
		logger.Infow("ingestion skipped, collection already populated", "total", result.Total)
	} else {
		logger.Infow("ingestion finished", "loaded", result.Loaded)
	}
	return nil
}
