// Package store defines the vector index abstraction for the product corpus.
package store

import (
	"context"
)

// ProductMeta is the metadata stored alongside each product document. URL and
// review summary are carried so enrichment can read them back as ground truth.
type ProductMeta struct {
	ProductID     string
	MaterialID    string
	Category      string
	ModelName     string
	HasReviews    bool
	AmazonURL     string
	ReviewSummary string
}

// Document is one product corpus entry. IDs are assigned at ingestion and
// stable across runs.
type Document struct {
	ID        int64
	Text      string
	Embedding []float32
	Meta      ProductMeta
}

// SearchResult is a single similarity search hit.
type SearchResult struct {
	ID    int64
	Text  string
	Score float32
	Meta  ProductMeta
}

// CollectionConfig configures the backing collection.
type CollectionConfig struct {
	Name        string
	Description string
	Dimension   int
}

// VectorStore is the durable product index.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context) error

	// Count returns the number of indexed documents.
	Count(ctx context.Context) (int64, error)

	// BulkLoad inserts documents with their pre-computed embeddings.
	BulkLoad(ctx context.Context, docs []*Document) error

	// Search returns the topK most similar documents to the embedding.
	Search(ctx context.Context, embedding []float32, topK int) ([]*SearchResult, error)

	// LookupByMaterialID returns the metadata of the product with the given
	// material id, or nil when absent.
	LookupByMaterialID(ctx context.Context, materialID string) (*ProductMeta, error)

	// LookupByProductID returns the metadata of the product with the given
	// product id, or nil when absent.
	LookupByProductID(ctx context.Context, productID string) (*ProductMeta, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
