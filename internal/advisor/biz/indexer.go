package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/advisor-x/internal/advisor/metrics"
	"github.com/kart-io/advisor-x/internal/advisor/store"
	"github.com/kart-io/advisor-x/pkg/llm"
)

const embedBatchSize = 64

// IndexerConfig configures catalog ingestion.
type IndexerConfig struct {
	CatalogPath string
	ReviewsPath string
	MaxChars    int
}

// IngestResult reports the outcome of an ingestion run.
type IngestResult struct {
	Loaded  int   `json:"loaded"`
	Skipped bool  `json:"skipped"`
	Total   int64 `json:"total"`
}

// Indexer builds the product corpus and loads it into the vector store.
type Indexer struct {
	store    store.VectorStore
	embedder llm.EmbeddingProvider
	config   *IndexerConfig
}

// NewIndexer creates a new Indexer.
func NewIndexer(s store.VectorStore, embedder llm.EmbeddingProvider, config *IndexerConfig) *Indexer {
	return &Indexer{store: s, embedder: embedder, config: config}
}

// Ingest loads the catalog into the store. It is idempotent: when the
// collection already holds documents, nothing is inserted. Re-ingestion
// requires dropping the collection out of band.
func (x *Indexer) Ingest(ctx context.Context) (*IngestResult, error) {
	if err := x.store.EnsureCollection(ctx); err != nil {
		metrics.Get().RecordIngestion(0, err)
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	count, err := x.store.Count(ctx)
	if err != nil {
		metrics.Get().RecordIngestion(0, err)
		return nil, fmt.Errorf("failed to count collection: %w", err)
	}
	if count > 0 {
		logger.Infow("collection already populated, skipping ingestion", "count", count)
		return &IngestResult{Skipped: true, Total: count}, nil
	}

	catalog, err := LoadCatalog(x.config.CatalogPath)
	if err != nil {
		metrics.Get().RecordIngestion(0, err)
		return nil, err
	}

	reviews := map[string]Review{}
	if x.config.ReviewsPath != "" {
		reviews, err = LoadReviews(x.config.ReviewsPath)
		if err != nil {
			metrics.Get().RecordIngestion(0, err)
			return nil, err
		}
	}

	docs, metas := BuildCorpus(catalog, reviews, x.config.MaxChars)
	logger.Infow("corpus built", "documents", len(docs), "reviews", len(reviews))

	for start := 0; start < len(docs); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		embeddings, err := x.embedder.Embed(ctx, docs[start:end])
		if err != nil {
			metrics.Get().RecordIngestion(0, err)
			return nil, fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}

		batch := make([]*store.Document, end-start)
		for i := range batch {
			batch[i] = &store.Document{
				ID:        int64(start + i),
				Text:      docs[start+i],
				Embedding: embeddings[i],
				Meta:      metas[start+i],
			}
		}

		if err := x.store.BulkLoad(ctx, batch); err != nil {
			metrics.Get().RecordIngestion(0, err)
			return nil, fmt.Errorf("failed to load batch at %d: %w", start, err)
		}
	}

	metrics.Get().RecordIngestion(len(docs), nil)
	logger.Infow("ingestion complete", "documents", len(docs))
	return &IngestResult{Loaded: len(docs), Total: int64(len(docs))}, nil
}
