// Package pricingopts provides options for the pricing API client.
package pricingopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/advisor-x/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains pricing client configuration.
type Options struct {
	// URL is the price lookup endpoint.
	URL string `json:"url" mapstructure:"url"`

	// Timeout for pricing requests.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the maximum number of retries.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		URL:        "http://localhost:5002/api/model-price",
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.URL, options.Join(prefixes...)+"pricing.url", o.URL, "Pricing endpoint URL.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"pricing.timeout", o.Timeout, "Pricing request timeout.")
	fs.IntVar(&o.MaxRetries, options.Join(prefixes...)+"pricing.max-retries", o.MaxRetries, "Pricing maximum number of retries.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.URL == "" {
		errs = append(errs, fmt.Errorf("pricing url is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("pricing timeout must be positive"))
	}
	return errs
}
