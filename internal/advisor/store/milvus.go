package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/advisor-x/pkg/component/milvus"
)

var metaOutputFields = []string{
	"text", "product_id", "material_id", "category", "model_name",
	"has_reviews", "amazon_url", "review_summary",
}

// MilvusStore implements VectorStore backed by a Milvus collection.
type MilvusStore struct {
	client *milvus.Client
	config *CollectionConfig
}

// NewMilvusStore creates a Milvus-backed store for the configured collection.
func NewMilvusStore(client *milvus.Client, config *CollectionConfig) *MilvusStore {
	return &MilvusStore{client: client, config: config}
}

// EnsureCollection creates the product collection if absent.
func (s *MilvusStore) EnsureCollection(ctx context.Context) error {
	schema := &milvus.CollectionSchema{
		Name:        s.config.Name,
		Description: s.config.Description,
		Dimension:   s.config.Dimension,
		MetaFields: []milvus.MetaField{
			{Name: "text", DataType: entity.FieldTypeVarChar, MaxLen: 8192},
			{Name: "product_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "material_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "category", DataType: entity.FieldTypeVarChar, MaxLen: 128},
			{Name: "model_name", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "has_reviews", DataType: entity.FieldTypeInt64},
			{Name: "amazon_url", DataType: entity.FieldTypeVarChar, MaxLen: 1024},
			{Name: "review_summary", DataType: entity.FieldTypeVarChar, MaxLen: 8192},
		},
	}
	return s.client.CreateCollection(ctx, schema)
}

// Count returns the number of indexed documents.
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	return s.client.GetCollectionStats(ctx, s.config.Name)
}

// BulkLoad inserts documents with caller-assigned ids.
func (s *MilvusStore) BulkLoad(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]int64, len(docs))
	embeddings := make([][]float32, len(docs))
	metadata := map[string][]any{
		"text":           make([]any, len(docs)),
		"product_id":     make([]any, len(docs)),
		"material_id":    make([]any, len(docs)),
		"category":       make([]any, len(docs)),
		"model_name":     make([]any, len(docs)),
		"has_reviews":    make([]any, len(docs)),
		"amazon_url":     make([]any, len(docs)),
		"review_summary": make([]any, len(docs)),
	}

	for i, doc := range docs {
		ids[i] = doc.ID
		embeddings[i] = doc.Embedding
		metadata["text"][i] = doc.Text
		metadata["product_id"][i] = doc.Meta.ProductID
		metadata["material_id"][i] = doc.Meta.MaterialID
		metadata["category"][i] = doc.Meta.Category
		metadata["model_name"][i] = doc.Meta.ModelName
		metadata["has_reviews"][i] = boolToInt64(doc.Meta.HasReviews)
		metadata["amazon_url"][i] = doc.Meta.AmazonURL
		metadata["review_summary"][i] = doc.Meta.ReviewSummary
	}

	data := &milvus.InsertData{
		IDs:        ids,
		Embeddings: embeddings,
		Metadata:   metadata,
	}

	if err := s.client.Insert(ctx, s.config.Name, data); err != nil {
		return fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return nil
}

// Search returns the topK most similar documents.
func (s *MilvusStore) Search(ctx context.Context, embedding []float32, topK int) ([]*SearchResult, error) {
	results, err := s.client.Search(ctx, s.config.Name, embedding, topK, metaOutputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	searchResults := make([]*SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = &SearchResult{
			ID:    r.ID,
			Text:  metaString(r.Metadata, "text"),
			Score: r.Score,
			Meta:  metaFromRow(r.Metadata),
		}
	}
	return searchResults, nil
}

// LookupByMaterialID returns the product with the given material id, or nil.
func (s *MilvusStore) LookupByMaterialID(ctx context.Context, materialID string) (*ProductMeta, error) {
	return s.lookup(ctx, "material_id", materialID)
}

// LookupByProductID returns the product with the given product id, or nil.
func (s *MilvusStore) LookupByProductID(ctx context.Context, productID string) (*ProductMeta, error) {
	return s.lookup(ctx, "product_id", productID)
}

func (s *MilvusStore) lookup(ctx context.Context, field, value string) (*ProductMeta, error) {
	if value == "" {
		return nil, nil
	}

	expr := fmt.Sprintf(`%s == "%s"`, field, escapeFilterValue(value))

	rows, err := s.client.QueryByFilter(ctx, s.config.Name, expr, metaOutputFields, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s=%s: %w", field, value, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	meta := metaFromRow(rows[0])
	return &meta, nil
}

// escapeFilterValue escapes backslashes then quotes so a value can never
// break out of the quoted literal in a filter expression. Backslashes go
// first; the reverse order would re-escape the quote escapes.
func escapeFilterValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}

// Close closes the Milvus connection.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func metaFromRow(row map[string]any) ProductMeta {
	return ProductMeta{
		ProductID:     metaString(row, "product_id"),
		MaterialID:    metaString(row, "material_id"),
		Category:      metaString(row, "category"),
		ModelName:     metaString(row, "model_name"),
		HasReviews:    metaInt64(row, "has_reviews") != 0,
		AmazonURL:     metaString(row, "amazon_url"),
		ReviewSummary: metaString(row, "review_summary"),
	}
}

func metaString(row map[string]any, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func metaInt64(row map[string]any, key string) int64 {
	if v, ok := row[key].(int64); ok {
		return v
	}
	return 0
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

var _ VectorStore = (*MilvusStore)(nil)
