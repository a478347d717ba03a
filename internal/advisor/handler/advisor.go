// Package handler provides HTTP handlers for the advisor service.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/advisor-x/internal/advisor/biz"
	"github.com/kart-io/advisor-x/internal/advisor/metrics"
	"github.com/kart-io/advisor-x/internal/advisor/store"
	"github.com/kart-io/advisor-x/pkg/llm"
)

// recommendTimeout bounds one full pipeline run, LLM calls included.
const recommendTimeout = 120 * time.Second

// AdvisorHandler handles advisor HTTP requests.
type AdvisorHandler struct {
	pipeline *biz.Pipeline
	indexer  *biz.Indexer
	store    store.VectorStore
	cache    *biz.ResultCache
	embedder llm.EmbeddingProvider
	chat     llm.ChatProvider
}

// NewAdvisorHandler creates a new AdvisorHandler.
func NewAdvisorHandler(
	pipeline *biz.Pipeline,
	indexer *biz.Indexer,
	s store.VectorStore,
	cache *biz.ResultCache,
	embedder llm.EmbeddingProvider,
	chat llm.ChatProvider,
) *AdvisorHandler {
	return &AdvisorHandler{
		pipeline: pipeline,
		indexer:  indexer,
		store:    s,
		cache:    cache,
		embedder: embedder,
		chat:     chat,
	}
}

// RecommendRequest represents a recommendation request.
type RecommendRequest struct {
	Question   string `json:"question" binding:"required"`
	CustomerID string `json:"customer_id" binding:"required"`
}

// Recommend runs the recommendation pipeline. Pipeline failures are reported
// with HTTP 200 and an error body so callers always get a parseable envelope;
// only malformed requests get a 4xx.
func (h *AdvisorHandler) Recommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), recommendTimeout)
	defer cancel()

	result, err := h.pipeline.Recommend(ctx, req.Question, req.CustomerID)
	if err != nil {
		logger.Warnw("recommendation failed",
			"customer_id", req.CustomerID, "error", err.Error())
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Ingest loads the product catalog into the vector store.
func (h *AdvisorHandler) Ingest(c *gin.Context) {
	result, err := h.indexer.Ingest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Healthz reports liveness.
func (h *AdvisorHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Stats returns index, provider, cache, and pipeline statistics.
func (h *AdvisorHandler) Stats(c *gin.Context) {
	stats := map[string]interface{}{
		"embedding_provider": h.embedder.Name(),
		"chat_provider":      h.chat.Name(),
		"pipeline":           metrics.Get().Stats(),
	}

	if count, err := h.store.Count(c.Request.Context()); err != nil {
		stats["index"] = map[string]interface{}{"error": err.Error()}
	} else {
		stats["index"] = map[string]interface{}{"document_count": count}
	}

	if h.cache != nil {
		if cacheStats, err := h.cache.Stats(c.Request.Context()); err != nil {
			stats["cache"] = map[string]interface{}{"error": err.Error()}
		} else {
			stats["cache"] = cacheStats
		}
	}

	c.JSON(http.StatusOK, stats)
}

// Metrics renders counters in Prometheus text exposition format.
func (h *AdvisorHandler) Metrics(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8",
		[]byte(metrics.Get().Export("advisor", "")))
}

// ClearCache drops all cached recommendation responses.
func (h *AdvisorHandler) ClearCache(c *gin.Context) {
	if h.cache == nil || !h.cache.Enabled() {
		c.JSON(http.StatusOK, gin.H{"message": "cache disabled"})
		return
	}

	if err := h.cache.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}
