// Package pricing provides the client for the model price lookup API.
package pricing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	pricingopts "github.com/kart-io/advisor-x/pkg/options/pricing"
	"github.com/kart-io/advisor-x/pkg/utils/httpclient"
)

type priceRequest struct {
	ModelID string `json:"model_id"`
}

type priceResponse struct {
	MRP string `json:"MRP"`
}

// Client calls the pricing endpoint.
type Client struct {
	opts   *pricingopts.Options
	client *httpclient.Client
}

// New creates a new pricing client.
func New(opts *pricingopts.Options) *Client {
	return &Client{
		opts:   opts,
		client: httpclient.NewClient(opts.Timeout, opts.MaxRetries),
	}
}

// FetchMRP returns the listed MRP for the given model. The value is a float64
// when the upstream string parses as a number, otherwise the raw string is
// returned unchanged. A missing or empty MRP yields nil.
func (c *Client) FetchMRP(ctx context.Context, modelID string) (any, error) {
	var resp priceResponse
	if err := c.client.PostJSON(ctx, c.opts.URL, priceRequest{ModelID: modelID}, &resp); err != nil {
		return nil, fmt.Errorf("pricing request failed: %w", err)
	}

	if resp.MRP == "" {
		return nil, nil
	}

	return ParseMRP(resp.MRP), nil
}

// ParseMRP converts an MRP string like "32,990.00" into a float64. Thousands
// separators and a trailing ".00" are stripped first. If the cleaned value
// still does not parse, the original string is returned.
func ParseMRP(raw string) any {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	cleaned = strings.TrimSuffix(cleaned, ".00")

	if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return v
	}
	return raw
}
