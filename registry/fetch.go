package registry

import (
	"context"
	"fmt"
)

// Fetch retrieves the artifact manifest at ref without downloading the
// packaged source layer.
func (c *Client) Fetch(ctx context.Context, ref string) (*Artifact, error) {
	reference, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	if reference == "" {
		return nil, fmt.Errorf("%w: reference must include a tag or digest", ErrInvalidReference)
	}

	c.log().Debug("resolving reference", "ref", ref)
	desc, err := c.oci.Resolve(ctx, ref, reference)
	if err != nil {
		return nil, mapOCIError(err)
	}
	if isDigest(reference) && desc.Digest.String() != reference {
		return nil, fmt.Errorf("%w: resolved %s for %s", ErrDigestMismatch, desc.Digest, reference)
	}

	manifest, _, err := c.oci.FetchManifest(ctx, ref, &desc)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", mapOCIError(err))
	}
	return parseArtifact(&manifest, desc.Digest)
}
