package srcpack

import (
	"context"
	"fmt"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	srcpackcore "github.com/meigma/srcpack/core"
	"github.com/meigma/srcpack/internal/discovery"
	"github.com/meigma/srcpack/registry"
)

// Push packs the project in projectDir and pushes it to the registry.
//
// This is the most common operation: discover + pack + push in one call.
// The ref must include a tag (e.g., "registry.com/repo:v1.0.0").
//
// Use [PushWithFileList] to pack an explicit file list instead of walking
// projectDir. Use [PushWithTags] to apply additional tags to the same manifest.
func (c *Client) Push(ctx context.Context, ref, projectDir string, opts ...PushOption) (ocispec.Descriptor, error) {
	cfg := pushConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		files []discovery.File
		err   error
	)
	if cfg.fileList != "" {
		files, err = discovery.LoadList(cfg.fileList, projectDir)
	} else {
		walkOpts := append([]discovery.Option{discovery.WithLogger(c.log())}, cfg.walkOpts...)
		files, err = discovery.Walk(ctx, projectDir, walkOpts...)
	}
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("discover project files: %w", err)
	}

	p, err := srcpackcore.FromFilesystem(cfg.metadata.Clone(), projectDir, files, srcpackcore.PackWithLogger(c.log()))
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("pack project: %w", err)
	}
	return c.push(ctx, ref, p, &cfg)
}

// PushPackaged pushes an existing manifest to the registry.
//
// Use when you have a manifest loaded with [srcpackcore.FromFile] or built
// with [srcpackcore.New]. Discovery options are ignored.
func (c *Client) PushPackaged(ctx context.Context, ref string, p *Packaged, opts ...PushOption) (ocispec.Descriptor, error) {
	cfg := pushConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return c.push(ctx, ref, p, &cfg)
}

func (c *Client) push(ctx context.Context, ref string, p *Packaged, cfg *pushConfig) (ocispec.Descriptor, error) {
	pushOpts := []registry.PushOption{registry.PushWithCompression(cfg.compress)}
	if len(cfg.tags) > 0 {
		pushOpts = append(pushOpts, registry.WithTags(cfg.tags...))
	}
	if len(cfg.annotations) > 0 {
		pushOpts = append(pushOpts, registry.WithAnnotations(cfg.annotations))
	}
	return c.reg.Push(ctx, ref, p, pushOpts...)
}
