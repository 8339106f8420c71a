package registry

import (
	"log/slog"

	"github.com/meigma/srcpack/registry/oras"
)

// Client pushes and pulls packaged source manifests.
type Client struct {
	oci    OCIClient
	logger *slog.Logger

	// orasOpts configure the default ORAS client when no OCIClient is set.
	orasOpts []oras.Option
}

// Option configures a Client.
type Option func(*Client)

// WithOCIClient replaces the default ORAS transport.
func WithOCIClient(c OCIClient) Option {
	return func(cl *Client) {
		cl.oci = c
	}
}

// WithLogger sets a logger for the client and the default transport.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// WithPlainHTTP talks to registries over plain HTTP.
func WithPlainHTTP(enabled bool) Option {
	return func(cl *Client) {
		cl.orasOpts = append(cl.orasOpts, oras.WithPlainHTTP(enabled))
	}
}

// WithDockerConfig uses Docker credentials for authentication.
func WithDockerConfig() Option {
	return func(cl *Client) {
		cl.orasOpts = append(cl.orasOpts, oras.WithDockerConfig())
	}
}

// WithStaticCredentials authenticates to one registry with a username and password.
func WithStaticCredentials(registry, username, password string) Option {
	return func(cl *Client) {
		cl.orasOpts = append(cl.orasOpts, oras.WithStaticCredentials(registry, username, password))
	}
}

// WithUserAgent sets the User-Agent header for registry requests.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.orasOpts = append(cl.orasOpts, oras.WithUserAgent(ua))
	}
}

// New creates a Client. Without WithOCIClient an ORAS client is built from
// the pass-through options.
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.oci == nil {
		orasOpts := c.orasOpts
		if c.logger != nil {
			// The logger goes first so credential loading can use it.
			orasOpts = append([]oras.Option{oras.WithLogger(c.logger)}, orasOpts...)
		}
		c.oci = oras.New(orasOpts...)
	}
	return c
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}
