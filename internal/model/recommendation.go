package model

import (
	"fmt"
	"strings"
)

// Enum values the generator is constrained to. Anything outside these sets is
// a schema violation.
var (
	Categories          = []string{"Washing Machine", "Refrigerator", "Air Conditioner", "Dishwasher", "Microwave"}
	Personas            = []string{"Loyalist Platinum", "Value Conscious Gold", "Cautious Bronze", "Disengaged Iron"}
	PriceSensitivities  = []string{"high", "medium", "low"}
	MaintenanceTypes    = []string{"proactive", "reactive"}
	PriceRanges         = []string{"budget", "mid-range", "premium"}
	RecommendationTypes = []string{"Up-sell", "Cross-sell"}
)

// MaxRecommendations caps the number of recommendations in a response.
const MaxRecommendations = 3

// SchemaError reports enum or structural violations in generated output.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("generated output violates schema: %s", strings.Join(e.Violations, "; "))
}

// ProductRecommendation is a single recommended product.
type ProductRecommendation struct {
	ProductID           string   `json:"product_id"`
	MaterialID          string   `json:"material_id,omitempty"`
	ModelName           string   `json:"model_name"`
	Category            string   `json:"category"`
	RecommendationType  string   `json:"recommendation_type"`
	Price               any      `json:"price"`
	MatchScore          float64  `json:"match_score"`
	Reasons             string   `json:"reasons"`
	KeyFeatures         []string `json:"key_features"`
	AmazonReviewSummary string   `json:"amazon_review_summary,omitempty"`
	AmazonURL           string   `json:"amazon_url,omitempty"`
}

// RecommendationResult is the structured generator output: a customer persona
// plus up to three product recommendations.
type RecommendationResult struct {
	PersonaName         string                  `json:"persona_name"`
	Description         string                  `json:"description"`
	KeyCharacteristics  []string                `json:"key_characteristics"`
	Frequency           string                  `json:"frequency"`
	PreferredCategories []string                `json:"preferred_categories"`
	PriceSensitivity    string                  `json:"price_sensitivity"`
	MaintenanceType     string                  `json:"maintenance_type"`
	CommonIssues        []string                `json:"common_issues"`
	PriceRange          string                  `json:"price_range"`
	Features            []string                `json:"features"`
	Recommendations     []ProductRecommendation `json:"recommendations"`
}

// Validate checks every enum-constrained field and returns a *SchemaError
// listing all violations, or nil when the result is well formed.
func (r *RecommendationResult) Validate() error {
	var violations []string

	if !contains(Personas, r.PersonaName) {
		violations = append(violations, fmt.Sprintf("persona_name %q", r.PersonaName))
	}
	if !contains(PriceSensitivities, r.PriceSensitivity) {
		violations = append(violations, fmt.Sprintf("price_sensitivity %q", r.PriceSensitivity))
	}
	if !contains(MaintenanceTypes, r.MaintenanceType) {
		violations = append(violations, fmt.Sprintf("maintenance_type %q", r.MaintenanceType))
	}
	if !contains(PriceRanges, r.PriceRange) {
		violations = append(violations, fmt.Sprintf("price_range %q", r.PriceRange))
	}
	for _, cat := range r.PreferredCategories {
		if !contains(Categories, cat) {
			violations = append(violations, fmt.Sprintf("preferred_categories %q", cat))
		}
	}
	for i, rec := range r.Recommendations {
		if !contains(Categories, rec.Category) {
			violations = append(violations, fmt.Sprintf("recommendations[%d].category %q", i, rec.Category))
		}
		if !contains(RecommendationTypes, rec.RecommendationType) {
			violations = append(violations, fmt.Sprintf("recommendations[%d].recommendation_type %q", i, rec.RecommendationType))
		}
	}

	if len(violations) > 0 {
		return &SchemaError{Violations: violations}
	}
	return nil
}

// PurchasePatterns groups buying-behavior fields in the API response.
type PurchasePatterns struct {
	Frequency           string   `json:"frequency"`
	PreferredCategories []string `json:"preferred_categories"`
	PriceSensitivity    string   `json:"price_sensitivity"`
}

// ServiceHistory groups maintenance fields in the API response.
type ServiceHistory struct {
	Frequency       string   `json:"frequency"`
	MaintenanceType string   `json:"maintenance_type"`
	CommonIssues    []string `json:"common_issues"`
}

// Preferences groups preference fields in the API response.
type Preferences struct {
	PriceRange string   `json:"price_range"`
	Features   []string `json:"features"`
}

// RecommendationResponse is the wire shape returned by POST /recommend.
type RecommendationResponse struct {
	PersonaName        string                  `json:"persona_name"`
	Description        string                  `json:"description"`
	KeyCharacteristics []string                `json:"key_characteristics"`
	PurchasePatterns   PurchasePatterns        `json:"purchase_patterns"`
	ServiceHistory     ServiceHistory          `json:"service_history"`
	Preferences        Preferences             `json:"preferences"`
	Recommendations    []ProductRecommendation `json:"recommendations"`
}

// ToResponse converts the flat generator result into the grouped API shape.
// The MaxRecommendations cap is applied by the pipeline before enrichment, so
// conversion carries the recommendations through unchanged.
func (r *RecommendationResult) ToResponse() *RecommendationResponse {
	return &RecommendationResponse{
		PersonaName:        r.PersonaName,
		Description:        r.Description,
		KeyCharacteristics: r.KeyCharacteristics,
		PurchasePatterns: PurchasePatterns{
			Frequency:           r.Frequency,
			PreferredCategories: r.PreferredCategories,
			PriceSensitivity:    r.PriceSensitivity,
		},
		ServiceHistory: ServiceHistory{
			Frequency:       r.Frequency,
			MaintenanceType: r.MaintenanceType,
			CommonIssues:    r.CommonIssues,
		},
		Preferences: Preferences{
			PriceRange: r.PriceRange,
			Features:   r.Features,
		},
		Recommendations: r.Recommendations,
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
