package biz

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/kart-io/advisor-x/internal/advisor/store"
	"github.com/kart-io/advisor-x/pkg/utils/json"
)

// Product is one catalog entry.
type Product struct {
	ModelName      string                       `json:"model_name"`
	Category       string                       `json:"category"`
	MaterialID     string                       `json:"material_id"`
	BasicInfo      map[string]string            `json:"basic_info"`
	Specifications map[string]map[string]string `json:"specifications"`
}

// Catalog is the product catalog keyed by product id.
type Catalog map[string]Product

// Review is one entry of the review feed.
type Review struct {
	ASIN    string
	URL     string
	Summary string
}

// LoadCatalog reads the product catalog JSON file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var wrapper struct {
		Products Catalog `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return wrapper.Products, nil
}

// LoadReviews reads the pipe-delimited review feed, keyed by material id.
// The first line is a header and skipped. A line with a field count other
// than 4 is fatal. Later duplicates per material id overwrite earlier ones.
func LoadReviews(path string) (map[string]Review, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reviews: %w", err)
	}
	defer f.Close()

	reviews := make(map[string]Review)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) != 4 {
			return nil, &ReviewFormatError{Line: lineNo, Fields: len(fields)}
		}

		reviews[fields[0]] = Review{
			ASIN:    fields[1],
			URL:     fields[2],
			Summary: fields[3],
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reviews: %w", err)
	}

	return reviews, nil
}

// BuildCorpus flattens the catalog into retrieval documents plus metadata.
// Products are emitted in sorted key order so document ids are stable across
// runs. Each document is trimmed and then hard-cut at maxChars runes.
func BuildCorpus(catalog Catalog, reviews map[string]Review, maxChars int) ([]string, []store.ProductMeta) {
	productIDs := make([]string, 0, len(catalog))
	for id := range catalog {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	docs := make([]string, 0, len(catalog))
	metas := make([]store.ProductMeta, 0, len(catalog))

	for _, productID := range productIDs {
		product := catalog[productID]
		review, hasReview := reviews[product.MaterialID]
		if product.MaterialID == "" {
			hasReview = false
		}

		docs = append(docs, renderProduct(product, review, hasReview, maxChars))

		meta := store.ProductMeta{
			ProductID:  productID,
			MaterialID: product.MaterialID,
			Category:   product.Category,
			ModelName:  product.ModelName,
			HasReviews: hasReview,
		}
		if hasReview {
			meta.AmazonURL = review.URL
			meta.ReviewSummary = review.Summary
		}
		metas = append(metas, meta)
	}

	return docs, metas
}

func renderProduct(product Product, review Review, hasReview bool, maxChars int) string {
	lines := []string{
		"Model: " + product.ModelName,
		"Category: " + product.Category,
	}

	for _, key := range sortedKeys(product.BasicInfo) {
		lines = append(lines, capitalize(key)+": "+product.BasicInfo[key])
	}

	if len(product.Specifications) > 0 {
		lines = append(lines, flattenSpecifications(product.Specifications))
	}

	if hasReview {
		lines = append(lines,
			"--- Amazon Reviews ---",
			"Customer Feedback: "+review.Summary,
			"Amazon URL: "+review.URL,
		)
	}

	text := strings.TrimSpace(strings.Join(lines, "\n"))
	return truncateRunes(text, maxChars)
}

func flattenSpecifications(specs map[string]map[string]string) string {
	var parts []string
	for _, section := range sortedKeys(specs) {
		parts = append(parts, fmt.Sprintf("--- %s ---", section))
		entries := specs[section]
		for _, key := range sortedKeys(entries) {
			parts = append(parts, key+": "+entries[key])
		}
	}
	return strings.Join(parts, "\n")
}

// truncateRunes hard-cuts text at max runes, mid-word if need be.
func truncateRunes(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// capitalize uppercases the first rune and lowercases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
