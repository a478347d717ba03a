package biz

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeTempFile(t, "products.json", `{
		"products": {
			"WM-100": {
				"model_name": "AquaSpin 100",
				"category": "Washing Machine",
				"material_id": "MAT-001",
				"basic_info": {"capacity": "7 kg"},
				"specifications": {
					"performance": {"spin speed": "1200 rpm"}
				}
			}
		}
	}`)

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog, 1)

	product := catalog["WM-100"]
	assert.Equal(t, "AquaSpin 100", product.ModelName)
	assert.Equal(t, "Washing Machine", product.Category)
	assert.Equal(t, "MAT-001", product.MaterialID)
	assert.Equal(t, "7 kg", product.BasicInfo["capacity"])
	assert.Equal(t, "1200 rpm", product.Specifications["performance"]["spin speed"])
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadReviews(t *testing.T) {
	path := writeTempFile(t, "reviews.txt", strings.Join([]string{
		"material_id|asin|url|reviews",
		"MAT-001|B01ABC|https://amazon.example/dp/B01ABC|Quiet and reliable.",
		"",
		"MAT-002|B02DEF|https://amazon.example/dp/B02DEF|Average cooling.",
		"MAT-001|B03GHI|https://amazon.example/dp/B03GHI|Updated summary.",
	}, "\n"))

	reviews, err := LoadReviews(path)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	// Later duplicates overwrite earlier entries.
	assert.Equal(t, "B03GHI", reviews["MAT-001"].ASIN)
	assert.Equal(t, "Updated summary.", reviews["MAT-001"].Summary)
	assert.Equal(t, "https://amazon.example/dp/B02DEF", reviews["MAT-002"].URL)
}

func TestLoadReviews_MalformedLine(t *testing.T) {
	path := writeTempFile(t, "reviews.txt", strings.Join([]string{
		"material_id|asin|url|reviews",
		"MAT-001|B01ABC|https://amazon.example/dp/B01ABC",
	}, "\n"))

	_, err := LoadReviews(path)
	require.Error(t, err)

	var formatErr *ReviewFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, 2, formatErr.Line)
	assert.Equal(t, 3, formatErr.Fields)
}

func TestBuildCorpus_Format(t *testing.T) {
	catalog := Catalog{
		"WM-100": {
			ModelName:  "AquaSpin 100",
			Category:   "Washing Machine",
			MaterialID: "MAT-001",
			BasicInfo:  map[string]string{"capacity": "7 kg", "energy rating": "5 star"},
			Specifications: map[string]map[string]string{
				"performance": {"spin speed": "1200 rpm"},
			},
		},
	}
	reviews := map[string]Review{
		"MAT-001": {ASIN: "B01ABC", URL: "https://amazon.example/dp/B01ABC", Summary: "Quiet and reliable."},
	}

	docs, metas := BuildCorpus(catalog, reviews, 2000)
	require.Len(t, docs, 1)
	require.Len(t, metas, 1)

	doc := docs[0]
	assert.Contains(t, doc, "Model: AquaSpin 100")
	assert.Contains(t, doc, "Category: Washing Machine")
	assert.Contains(t, doc, "Capacity: 7 kg")
	assert.Contains(t, doc, "Energy rating: 5 star")
	assert.Contains(t, doc, "--- performance ---")
	assert.Contains(t, doc, "spin speed: 1200 rpm")
	assert.Contains(t, doc, "--- Amazon Reviews ---")
	assert.Contains(t, doc, "Customer Feedback: Quiet and reliable.")
	assert.Contains(t, doc, "Amazon URL: https://amazon.example/dp/B01ABC")

	meta := metas[0]
	assert.Equal(t, "WM-100", meta.ProductID)
	assert.Equal(t, "MAT-001", meta.MaterialID)
	assert.True(t, meta.HasReviews)
	assert.Equal(t, "https://amazon.example/dp/B01ABC", meta.AmazonURL)
	assert.Equal(t, "Quiet and reliable.", meta.ReviewSummary)
}

func TestBuildCorpus_NoReviewMatch(t *testing.T) {
	catalog := Catalog{
		"RF-200": {
			ModelName:  "FrostCare 200",
			Category:   "Refrigerator",
			MaterialID: "",
		},
	}
	reviews := map[string]Review{
		// An empty material id must never match this key.
		"": {ASIN: "BAD", URL: "https://amazon.example/dp/BAD", Summary: "Bogus."},
	}

	docs, metas := BuildCorpus(catalog, reviews, 2000)
	require.Len(t, docs, 1)
	assert.NotContains(t, docs[0], "--- Amazon Reviews ---")
	assert.False(t, metas[0].HasReviews)
	assert.Empty(t, metas[0].AmazonURL)
}

func TestBuildCorpus_Deterministic(t *testing.T) {
	catalog := Catalog{
		"WM-100": {ModelName: "A", Category: "Washing Machine"},
		"RF-200": {ModelName: "B", Category: "Refrigerator"},
		"AC-300": {ModelName: "C", Category: "Air Conditioner"},
	}

	docs1, metas1 := BuildCorpus(catalog, nil, 2000)
	docs2, metas2 := BuildCorpus(catalog, nil, 2000)

	assert.Equal(t, docs1, docs2)
	assert.Equal(t, metas1, metas2)

	// Sorted by product id.
	assert.Equal(t, "AC-300", metas1[0].ProductID)
	assert.Equal(t, "RF-200", metas1[1].ProductID)
	assert.Equal(t, "WM-100", metas1[2].ProductID)
}

func TestBuildCorpus_Truncation(t *testing.T) {
	catalog := Catalog{
		"WM-100": {
			ModelName: strings.Repeat("x", 500),
			Category:  "Washing Machine",
		},
	}

	docs, _ := BuildCorpus(catalog, nil, 100)
	require.Len(t, docs, 1)
	assert.Equal(t, 100, len([]rune(docs[0])))
}

func TestTruncateRunes_NonPositiveMax(t *testing.T) {
	assert.Equal(t, "unchanged", truncateRunes("unchanged", 0))
	assert.Equal(t, "unchanged", truncateRunes("unchanged", -1))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Capacity", capitalize("capacity"))
	assert.Equal(t, "Energy rating", capitalize("ENERGY RATING"))
	assert.Equal(t, "", capitalize(""))
}
