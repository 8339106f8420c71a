package srcpack

import "context"

// Fetch retrieves the artifact description stored at ref without
// downloading the manifest layer.
//
// This is useful for inspecting metadata or checking that an artifact
// exists.
func (c *Client) Fetch(ctx context.Context, ref string) (*Artifact, error) {
	c.log().Debug("fetching artifact", "ref", ref)
	return c.reg.Fetch(ctx, ref)
}

// Tag creates or updates a tag pointing to an existing manifest.
//
// The ref specifies the repository and new tag (e.g., "registry.com/repo:latest").
// The digest must be the full digest of an existing manifest (e.g., "sha256:abc...").
func (c *Client) Tag(ctx context.Context, ref, digest string) error {
	return c.reg.Tag(ctx, ref, digest)
}
