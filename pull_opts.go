package srcpack

import (
	"io/fs"

	srcpackcore "github.com/meigma/srcpack/core"
	"github.com/meigma/srcpack/registry"
)

// PullOption configures a Pull operation.
type PullOption func(*pullConfig)

type pullConfig struct {
	maxSize    int64
	maxSizeSet bool
	unwrapOpts []srcpackcore.UnwrapOption
}

// PullWithMaxSize sets the maximum number of bytes allowed for the manifest
// layer. Use a value <= 0 to disable the limit.
func PullWithMaxSize(maxBytes int64) PullOption {
	return func(cfg *pullConfig) {
		cfg.maxSize = maxBytes
		cfg.maxSizeSet = true
	}
}

// PullWithFileMode sets the permission bits of files restored by PullTo.
func PullWithFileMode(mode fs.FileMode) PullOption {
	return func(cfg *pullConfig) {
		cfg.unwrapOpts = append(cfg.unwrapOpts, srcpackcore.UnwrapWithFileMode(mode))
	}
}

func (cfg *pullConfig) registryOpts(c *Client) []registry.PullOption {
	opts := []registry.PullOption{registry.WithDecodeLogger(c.log())}
	if cfg.maxSizeSet {
		opts = append(opts, registry.WithMaxLayerSize(cfg.maxSize))
	}
	return opts
}
