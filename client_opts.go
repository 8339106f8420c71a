package srcpack

import (
	"errors"
	"log/slog"

	"github.com/meigma/srcpack/registry"
)

// Option configures a Client.
type Option func(*Client) error

// --- Authentication Options ---

// WithDockerConfig enables reading credentials from ~/.docker/config.json.
// This is the recommended way to authenticate with registries.
func WithDockerConfig() Option {
	return func(c *Client) error {
		c.regOpts = append(c.regOpts, registry.WithDockerConfig())
		return nil
	}
}

// WithStaticCredentials sets static username/password credentials for a registry.
// The registry parameter should be the registry host (e.g., "ghcr.io").
func WithStaticCredentials(registryHost, username, password string) Option {
	return func(c *Client) error {
		if registryHost == "" {
			return errors.New("srcpack: registry host is required for static credentials")
		}
		c.regOpts = append(c.regOpts, registry.WithStaticCredentials(registryHost, username, password))
		return nil
	}
}

// --- Transport Options ---

// WithPlainHTTP enables plain HTTP (no TLS) for registries.
// This is useful for local development registries.
func WithPlainHTTP(enabled bool) Option {
	return func(c *Client) error {
		c.regOpts = append(c.regOpts, registry.WithPlainHTTP(enabled))
		return nil
	}
}

// WithUserAgent sets the User-Agent header for registry requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.regOpts = append(c.regOpts, registry.WithUserAgent(ua))
		return nil
	}
}

// WithTransport replaces the registry transport. Authentication and
// transport options are ignored when it is set.
func WithTransport(oci registry.OCIClient) Option {
	return func(c *Client) error {
		if oci == nil {
			return errors.New("srcpack: transport is nil")
		}
		c.regOpts = append(c.regOpts, registry.WithOCIClient(oci))
		return nil
	}
}

// --- Logging ---

// WithLogger sets the logger for client operations.
// Pass nil to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}
