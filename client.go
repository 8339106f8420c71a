package srcpack

import (
	"log/slog"

	"github.com/meigma/srcpack/registry"
)

// Client provides high-level operations for packaged sources in OCI registries.
//
// Client wraps a registry client and adds project discovery on push and
// file restoration on pull.
type Client struct {
	regOpts []registry.Option
	logger  *slog.Logger

	reg *registry.Client
}

// NewClient creates a new client with the given options.
//
// If no authentication is configured, anonymous access is used.
// Use [WithDockerConfig] to read credentials from ~/.docker/config.json.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.reg = registry.New(append(c.regOpts, registry.WithLogger(c.log()))...)
	return c, nil
}

func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}
