package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/advisor-x/internal/advisor/metrics"
	"github.com/kart-io/advisor-x/internal/advisor/store"
	"github.com/kart-io/advisor-x/internal/model"
	"github.com/kart-io/advisor-x/pkg/llm"
	"github.com/kart-io/advisor-x/pkg/llm/signature"
)

// PipelineConfig configures the recommendation pipeline.
type PipelineConfig struct {
	// TopK is the number of documents retrieved per query.
	TopK int

	// HistoryMaxChars caps the raw history fallback when summarization fails.
	HistoryMaxChars int
}

// Pipeline runs the five-stage recommendation flow: question enhancement,
// retrieval, history summarization, structured generation, and enrichment.
// Stages are strictly sequential; each consumes the previous stage's output.
type Pipeline struct {
	store      store.VectorStore
	embedder   llm.EmbeddingProvider
	chat       llm.ChatProvider
	history    *HistoryFetcher
	reconciler *Reconciler
	cache      *ResultCache
	config     *PipelineConfig
}

// NewPipeline creates a new Pipeline.
func NewPipeline(
	s store.VectorStore,
	embedder llm.EmbeddingProvider,
	chat llm.ChatProvider,
	history *HistoryFetcher,
	reconciler *Reconciler,
	cache *ResultCache,
	config *PipelineConfig,
) *Pipeline {
	return &Pipeline{
		store:      s,
		embedder:   embedder,
		chat:       chat,
		history:    history,
		reconciler: reconciler,
		cache:      cache,
		config:     config,
	}
}

// Recommend produces a persona and product recommendations for the question
// and customer.
func (p *Pipeline) Recommend(ctx context.Context, question, customerID string) (*model.RecommendationResponse, error) {
	if p.cache != nil && p.cache.Enabled() {
		if cached, err := p.cache.Get(ctx, question, customerID); err == nil && cached != nil {
			metrics.Get().RecordQuery(true, nil)
			return cached, nil
		}
	}

	resp, err := p.recommend(ctx, question, customerID)
	metrics.Get().RecordQuery(false, err)
	if err != nil {
		return nil, err
	}

	if p.cache != nil && p.cache.Enabled() {
		if err := p.cache.Set(ctx, question, customerID, resp); err != nil {
			logger.Warnw("failed to cache recommendation", "error", err.Error())
		}
	}

	return resp, nil
}

func (p *Pipeline) recommend(ctx context.Context, question, customerID string) (*model.RecommendationResponse, error) {
	// Stage 1: question enhancement. Failure falls back to the raw
	// question; retrieval must still run.
	enhanced := p.enhanceQuestion(ctx, question)

	// Stage 2: retrieval. Index failure is fatal for the request.
	retrieved, err := p.retrieve(ctx, enhanced)
	if err != nil {
		return nil, err
	}

	// Stage 3: history fetch plus summarization.
	customerDetails := p.summarizedHistory(ctx, customerID)

	// Stage 4: structured generation with post-hoc schema validation. The
	// generator sees the same enhanced question retrieval ran on.
	result, err := p.generate(ctx, enhanced, retrieved, customerDetails)
	if err != nil {
		return nil, err
	}

	// Stage 5: enrichment. Truncate first so ground-truth lookups only run
	// for recommendations that survive into the response.
	if len(result.Recommendations) > model.MaxRecommendations {
		result.Recommendations = result.Recommendations[:model.MaxRecommendations]
	}
	enrichStart := time.Now()
	p.reconciler.Reconcile(ctx, result.Recommendations)
	metrics.Get().RecordEnrichment(time.Since(enrichStart))

	return result.ToResponse(), nil
}

func (p *Pipeline) enhanceQuestion(ctx context.Context, question string) string {
	var out EnhancedQuestion
	_, err := p.predictTimed(ctx, enhanceSignature, map[string]string{
		"question": question,
	}, &out)
	if err != nil {
		logger.Warnw("question enhancement failed, using raw question", "error", err.Error())
		return question
	}
	if strings.TrimSpace(out.EnhancedQuestion) == "" {
		return question
	}

	logger.Debugw("question enhanced",
		"original", question, "enhanced", out.EnhancedQuestion, "confidence", out.Confidence)
	return out.EnhancedQuestion
}

func (p *Pipeline) retrieve(ctx context.Context, question string) (string, error) {
	start := time.Now()

	embedding, err := p.embedder.EmbedSingle(ctx, question)
	if err != nil {
		metrics.Get().RecordRetrieval(time.Since(start), err)
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := p.store.Search(ctx, embedding, p.config.TopK)
	metrics.Get().RecordRetrieval(time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Text
	}
	return strings.Join(passages, "\n\n"), nil
}

func (p *Pipeline) summarizedHistory(ctx context.Context, customerID string) string {
	crmStart := time.Now()
	raw := p.history.FetchHistory(ctx, customerID)
	metrics.Get().RecordCRMFetch(time.Since(crmStart))

	var out HistorySummary
	_, err := p.predictTimed(ctx, summarizeSignature, map[string]string{
		"customer_message": raw,
	}, &out)
	if err != nil || strings.TrimSpace(out.Summary) == "" {
		if err != nil {
			logger.Warnw("history summarization failed, using raw history", "error", err.Error())
		}
		return truncateRunes(raw, p.config.HistoryMaxChars)
	}

	logger.Debugw("history summarized", "confidence", out.Confidence)
	return out.Summary
}

func (p *Pipeline) generate(ctx context.Context, question, retrieved, customerDetails string) (*model.RecommendationResult, error) {
	var result model.RecommendationResult
	_, err := p.predictTimed(ctx, recommendSignature, map[string]string{
		"question":         question,
		"context":          retrieved,
		"customer_details": customerDetails,
	}, &result)
	if err != nil {
		var schemaErr *model.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, schemaErr
		}
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	return &result, nil
}

func (p *Pipeline) predictTimed(ctx context.Context, sig *signature.Signature, inputs map[string]string, out any) (*llm.TokenUsage, error) {
	start := time.Now()
	usage, err := signature.Predict(ctx, p.chat, sig, inputs, out)

	promptTokens, completionTokens := 0, 0
	if usage != nil {
		promptTokens = usage.PromptTokens
		completionTokens = usage.CompletionTokens
	}
	metrics.Get().RecordLLMCall(time.Since(start), promptTokens, completionTokens, err)

	return usage, err
}
