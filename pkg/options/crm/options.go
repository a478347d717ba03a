// Package crmopts provides options for the CRM history API client.
package crmopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/advisor-x/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains CRM client configuration.
type Options struct {
	// URL is the CRM customer-details endpoint.
	URL string `json:"url" mapstructure:"url"`

	// Timeout for CRM requests.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the maximum number of retries.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		URL:        "http://localhost:5001/api/customer-details",
		Timeout:    15 * time.Second,
		MaxRetries: 2,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.URL, options.Join(prefixes...)+"crm.url", o.URL, "CRM customer-details endpoint URL.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"crm.timeout", o.Timeout, "CRM request timeout.")
	fs.IntVar(&o.MaxRetries, options.Join(prefixes...)+"crm.max-retries", o.MaxRetries, "CRM maximum number of retries.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.URL == "" {
		errs = append(errs, fmt.Errorf("crm url is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("crm timeout must be positive"))
	}
	return errs
}
