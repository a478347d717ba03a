package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/advisor-x/internal/advisor/biz"
	"github.com/kart-io/advisor-x/internal/advisor/store"
	"github.com/kart-io/advisor-x/internal/model"
	"github.com/kart-io/advisor-x/pkg/component/crm"
	"github.com/kart-io/advisor-x/pkg/llm"
	"github.com/kart-io/advisor-x/pkg/utils/json"
)

type stubStore struct {
	searchErr error
	count     int64
}

func (s *stubStore) EnsureCollection(_ context.Context) error { return nil }
func (s *stubStore) Count(_ context.Context) (int64, error)   { return s.count, nil }
func (s *stubStore) BulkLoad(_ context.Context, docs []*store.Document) error {
	s.count += int64(len(docs))
	return nil
}
func (s *stubStore) Search(_ context.Context, _ []float32, _ int) ([]*store.SearchResult, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return []*store.SearchResult{{ID: 1, Text: "Model: AquaSpin 100"}}, nil
}
func (s *stubStore) LookupByMaterialID(_ context.Context, _ string) (*store.ProductMeta, error) {
	return nil, nil
}
func (s *stubStore) LookupByProductID(_ context.Context, _ string) (*store.ProductMeta, error) {
	return nil, nil
}
func (s *stubStore) Close(_ context.Context) error { return nil }

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1}
	}
	return out, nil
}
func (e stubEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, _ := e.Embed(ctx, []string{text})
	return vecs[0], nil
}
func (stubEmbedder) Name() string { return "stub-embed" }

// stubChat answers every call with the same JSON document; the final
// generation call is the only one whose shape matters here.
type stubChat struct {
	result string
}

func (stubChat) Chat(_ context.Context, _ []llm.Message) (string, error) {
	return "", errors.New("not used")
}
func (c stubChat) Generate(_ context.Context, _, _ string) (*llm.GenerateResponse, error) {
	return &llm.GenerateResponse{Content: c.result}, nil
}
func (stubChat) Name() string { return "stub-chat" }

type stubCRM struct{}

func (stubCRM) FetchDetails(_ context.Context, _ string) (*crm.CustomerDetails, error) {
	return &crm.CustomerDetails{}, nil
}

type stubPrices struct{}

func (stubPrices) FetchMRP(_ context.Context, _ string) (any, error) { return 999.0, nil }

const stubResultJSON = `{
	"persona_name": "Cautious Bronze",
	"enhanced_question": "q",
	"summary": "s",
	"confidence": 0.9,
	"frequency": "rarely",
	"price_sensitivity": "high",
	"maintenance_type": "reactive",
	"price_range": "budget",
	"recommendations": [{"product_id": "WM-100", "category": "Washing Machine", "recommendation_type": "Cross-sell"}]
}`

func newTestHandler(s *stubStore) *AdvisorHandler {
	chat := stubChat{result: stubResultJSON}
	embedder := stubEmbedder{}
	pipeline := biz.NewPipeline(
		s, embedder, chat,
		biz.NewHistoryFetcher(stubCRM{}),
		biz.NewReconciler(s, stubPrices{}),
		nil,
		&biz.PipelineConfig{TopK: 3, HistoryMaxChars: 4000},
	)
	indexer := biz.NewIndexer(s, embedder, &biz.IndexerConfig{CatalogPath: "missing.json", MaxChars: 2000})
	return NewAdvisorHandler(pipeline, indexer, s, nil, embedder, chat)
}

func newTestRouter(h *AdvisorHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/recommend", h.Recommend)
	engine.GET("/healthz", h.Healthz)
	engine.GET("/stats", h.Stats)
	engine.GET("/metrics", h.Metrics)
	return engine
}

func doRequest(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRecommend_Success(t *testing.T) {
	engine := newTestRouter(newTestHandler(&stubStore{}))

	w := doRequest(engine, http.MethodPost, "/recommend",
		`{"question": "need a washer", "customer_id": "CUST-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.RecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Cautious Bronze", resp.PersonaName)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, 999.0, resp.Recommendations[0].Price)
}

func TestRecommend_MissingFields(t *testing.T) {
	engine := newTestRouter(newTestHandler(&stubStore{}))

	w := doRequest(engine, http.MethodPost, "/recommend", `{"question": "need a washer"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommend_PipelineErrorReturns200Envelope(t *testing.T) {
	engine := newTestRouter(newTestHandler(&stubStore{searchErr: errors.New("collection not loaded")}))

	w := doRequest(engine, http.MethodPost, "/recommend",
		`{"question": "need a washer", "customer_id": "CUST-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "product index unavailable")
}

func TestHealthz(t *testing.T) {
	engine := newTestRouter(newTestHandler(&stubStore{}))

	w := doRequest(engine, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestStats(t *testing.T) {
	engine := newTestRouter(newTestHandler(&stubStore{count: 7}))

	w := doRequest(engine, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "stub-embed", stats["embedding_provider"])
	assert.Equal(t, "stub-chat", stats["chat_provider"])

	index := stats["index"].(map[string]any)
	assert.EqualValues(t, 7, index["document_count"])
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newTestRouter(newTestHandler(&stubStore{}))

	w := doRequest(engine, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "advisor_queries_total")
}
