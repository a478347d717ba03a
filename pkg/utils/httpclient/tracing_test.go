package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func setupTracer() (trace.Tracer, *sdktrace.TracerProvider) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Tracer("test"), tp
}

func TestInjectTraceContext_WithSpan(t *testing.T) {
	tracer, tp := setupTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	client := NewClient(10*time.Second, 0)

	ctx, span := tracer.Start(context.Background(), "test-operation")
	defer span.End()

	req := httptest.NewRequest(http.MethodGet, "http://example.com/test", nil)
	req = req.WithContext(ctx)

	client.injectTraceContext(req)

	// W3C format: version-trace_id-parent_id-trace_flags, 55 chars minimum.
	traceparent := req.Header.Get("traceparent")
	require.NotEmpty(t, traceparent)
	assert.GreaterOrEqual(t, len(traceparent), 55)
}

func TestInjectTraceContext_WithoutSpan(t *testing.T) {
	_, tp := setupTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	client := NewClient(10*time.Second, 0)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/test", nil)
	client.injectTraceContext(req)

	assert.Empty(t, req.Header.Get("traceparent"))
}

func TestInjectTraceContext_NilRequest(t *testing.T) {
	_, tp := setupTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	client := NewClient(10*time.Second, 0)

	assert.NotPanics(t, func() {
		client.injectTraceContext(nil)
	})
}

func TestDoRequest_PropagatesTraceContext(t *testing.T) {
	tracer, tp := setupTracer()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var receivedTraceparent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedTraceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(10*time.Second, 0)

	ctx, span := tracer.Start(context.Background(), "test-client-request")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.DoRequest(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.NotEmpty(t, receivedTraceparent)
	assert.GreaterOrEqual(t, len(receivedTraceparent), 55)
}
