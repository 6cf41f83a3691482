package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HTTPOptions)(nil)

// HTTPOptions contains configuration for the local debug HTTP server
// (health probes and Prometheus metrics).
type HTTPOptions struct {
	// Addr with server bind address.
	Addr string `json:"addr" mapstructure:"addr"`

	// Timeout applied to server reads and writes.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// Disabled turns the debug server off entirely.
	Disabled bool `json:"disabled" mapstructure:"disabled"`
}

// NewHTTPOptions creates a HTTPOptions object with default parameters.
func NewHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		Addr:    "0.0.0.0:9090",
		Timeout: 10 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *HTTPOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}

	return errors
}

// AddFlags adds flags related to the debug HTTP server to the specified FlagSet.
func (o *HTTPOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, "http.addr", o.Addr, "Bind address for the debug HTTP server.")
	fs.DurationVar(&o.Timeout, "http.timeout", o.Timeout, "Read/write timeout for the debug HTTP server.")
	fs.BoolVar(&o.Disabled, "http.disabled", o.Disabled, "Disable the debug HTTP server.")
}
