package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pricingopts "github.com/kart-io/advisor-x/pkg/options/pricing"
)

func TestParseMRP(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"32,990.00", 32990.0},
		{"999.50", 999.5},
		{"1,25,000.00", 125000.0},
		{" 4999 ", 4999.0},
		{"Contact dealer", "Contact dealer"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMRP(tt.in), "input %q", tt.in)
	}
}

func newTestClient(url string) *Client {
	return New(&pricingopts.Options{URL: url, Timeout: 2 * time.Second, MaxRetries: 0})
}

func TestFetchMRP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"MRP": "32,990.00"}`))
	}))
	defer srv.Close()

	price, err := newTestClient(srv.URL).FetchMRP(context.Background(), "WM-100")
	require.NoError(t, err)
	assert.Equal(t, 32990.0, price)
}

func TestFetchMRP_EmptyValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	price, err := newTestClient(srv.URL).FetchMRP(context.Background(), "WM-100")
	require.NoError(t, err)
	assert.Nil(t, price)
}

func TestFetchMRP_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchMRP(context.Background(), "WM-100")
	assert.Error(t, err)
}
