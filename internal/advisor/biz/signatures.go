package biz

import (
	"github.com/kart-io/advisor-x/internal/model"
	"github.com/kart-io/advisor-x/pkg/llm/signature"
)

// EnhancedQuestion is the output of the question enhancement step.
type EnhancedQuestion struct {
	EnhancedQuestion string  `json:"enhanced_question"`
	Confidence       float64 `json:"confidence"`
}

// HistorySummary is the output of the customer history summarization step.
type HistorySummary struct {
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

var enhanceSignature = &signature.Signature{
	Name: "enhance_question",
	Instructions: "You optimize product search queries for an appliance catalog. " +
		"Rewrite the question to be specific and retrieval-friendly while keeping its intent.",
	Inputs: []signature.Field{
		{Name: "question", Desc: "Question to recommend products"},
	},
	Outputs: []signature.Field{
		{Name: "enhanced_question", Desc: "Rewritten question optimized for retrieval"},
		{Name: "confidence", Desc: "Confidence in the rewrite between 0 and 1"},
	},
}

var summarizeSignature = &signature.Signature{
	Name: "summarize_history",
	Instructions: "You condense appliance customer service records. " +
		"Summarize the customer's purchase and service history into a short paragraph " +
		"covering owned products, service issues, and spending behavior.",
	Inputs: []signature.Field{
		{Name: "customer_message", Desc: "Raw customer history records, one per line"},
	},
	Outputs: []signature.Field{
		{Name: "summary", Desc: "Concise summary of the customer history"},
		{Name: "confidence", Desc: "Confidence in the summary between 0 and 1"},
	},
}

var recommendSignature = &signature.Signature{
	Name: "recommend_products",
	Instructions: "You are an appliance sales advisor. Using the product context and " +
		"customer details, classify the customer and recommend the best matching products.",
	Inputs: []signature.Field{
		{Name: "question", Desc: "Question to recommend products"},
		{Name: "context", Desc: "Product features and details"},
		{Name: "customer_details", Desc: "Customer details"},
	},
	Outputs: []signature.Field{
		{Name: "persona_name", Desc: "Customer persona based on the customer details", Enum: model.Personas},
		{Name: "description", Desc: "Description of the recommended approach considering customer details and products"},
		{Name: "key_characteristics", Desc: "Key characteristics of the recommended products, as a JSON array of strings"},
		{Name: "frequency", Desc: "Frequency of the customer buying patterns"},
		{Name: "preferred_categories", Desc: "Preferred categories of the customer, as a JSON array", Enum: model.Categories},
		{Name: "price_sensitivity", Desc: "Price sensitivity of the customer", Enum: model.PriceSensitivities},
		{Name: "maintenance_type", Desc: "Maintenance type of the customer", Enum: model.MaintenanceTypes},
		{Name: "common_issues", Desc: "Common issues of the customer, as a JSON array of strings"},
		{Name: "price_range", Desc: "Price range of the customer", Enum: model.PriceRanges},
		{Name: "features", Desc: "Features of the recommended products, as a JSON array of strings"},
		{Name: "recommendations", Desc: "Top 3 product recommendations, as a JSON array of objects with fields " +
			"product_id, material_id, model_name, category, recommendation_type (Up-sell or Cross-sell), price, " +
			"match_score (0 to 1), reasons, key_features, amazon_review_summary"},
	},
}
