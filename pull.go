package srcpack

import (
	"context"
	"fmt"

	srcpackcore "github.com/meigma/srcpack/core"
)

// Pull retrieves the manifest stored at ref.
//
// Both legacy and current manifest schemas are accepted; the returned
// manifest always saves in the current schema.
func (c *Client) Pull(ctx context.Context, ref string, opts ...PullOption) (*Packaged, error) {
	cfg := pullConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return c.reg.Pull(ctx, ref, cfg.registryOpts(c)...)
}

// PullTo retrieves the manifest stored at ref and restores its files under
// destDir.
//
// Missing directories are created and existing files are overwritten.
// Files outside the manifest are left untouched.
func (c *Client) PullTo(ctx context.Context, ref, destDir string, opts ...PullOption) (*Packaged, error) {
	cfg := pullConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	p, err := c.reg.Pull(ctx, ref, cfg.registryOpts(c)...)
	if err != nil {
		return nil, err
	}

	unwrapOpts := append([]srcpackcore.UnwrapOption{srcpackcore.UnwrapWithLogger(c.log())}, cfg.unwrapOpts...)
	if err := p.UnwrapToFilesystem(destDir, unwrapOpts...); err != nil {
		return nil, fmt.Errorf("restore %s: %w", ref, err)
	}
	return p, nil
}
