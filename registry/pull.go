package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"

	srcpack "github.com/meigma/srcpack/core"
)

// Pull retrieves the packaged source manifest stored at ref.
//
// The OCI manifest must describe a packaged source artifact. The layer is
// read in full, checked against its descriptor digest and decoded; both
// legacy and current manifest schemas are accepted.
func (c *Client) Pull(ctx context.Context, ref string, opts ...PullOption) (*srcpack.Packaged, error) {
	cfg := pullConfig{
		maxLayerSize: defaultMaxLayerSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c.log().Info("pulling packaged source", "ref", ref)

	artifact, err := c.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	layer := artifact.Layer()
	if cfg.maxLayerSize > 0 && layer.Size > cfg.maxLayerSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, layer.Size, cfg.maxLayerSize)
	}

	rc, err := c.oci.FetchBlob(ctx, ref, &layer)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest layer: %w", mapOCIError(err))
	}
	defer rc.Close()

	data, err := readLayer(rc, cfg.maxLayerSize)
	if err != nil {
		return nil, fmt.Errorf("read manifest layer: %w", err)
	}
	if computed := layer.Digest.Algorithm().FromBytes(data); computed != layer.Digest {
		c.log().Warn("manifest layer digest verification failed",
			"expected", layer.Digest.String(),
			"computed", computed.String(),
		)
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, layer.Digest, computed)
	}

	loadOpts := []srcpack.LoadOption{srcpack.LoadWithLogger(cfg.loadLogger)}
	if cfg.maxLayerSize > 0 {
		loadOpts = append(loadOpts, srcpack.LoadWithMaxSize(cfg.maxLayerSize))
	}
	p, err := srcpack.Decode(bytes.NewReader(data), loadOpts...)
	if err != nil {
		return nil, err
	}

	c.log().Info("pulled packaged source", "ref", ref, "digest", artifact.Digest(), "entries", p.Len())
	return p, nil
}

// readLayer reads r with an optional size limit.
func readLayer(r io.Reader, maxSize int64) ([]byte, error) {
	reader := r
	if maxSize > 0 {
		reader = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, mapOCIError(err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxSize)
	}
	return data, nil
}
