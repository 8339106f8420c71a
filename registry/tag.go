package registry

import (
	"context"
	"fmt"
)

// Tag points the tag in ref at an existing artifact manifest.
//
// The digest must be the full digest of a manifest in the same
// repository (e.g. "sha256:abc...").
func (c *Client) Tag(ctx context.Context, ref, digest string) error {
	tag, err := parseRef(ref)
	if err != nil {
		return err
	}
	if tag == "" || isDigest(tag) {
		return fmt.Errorf("%w: reference must include a tag", ErrInvalidReference)
	}

	// Resolving yields the media type ORAS needs to tag the manifest.
	desc, err := c.oci.Resolve(ctx, ref, digest)
	if err != nil {
		return mapOCIError(err)
	}
	if err := c.oci.Tag(ctx, ref, &desc, tag); err != nil {
		return mapOCIError(err)
	}
	c.log().Info("tagged packaged source", "ref", ref, "digest", desc.Digest)
	return nil
}
