package registry

import (
	"fmt"
	"strings"

	"oras.land/oras-go/v2/registry"
)

// parseRef splits ref and returns its tag or digest part.
func parseRef(ref string) (string, error) {
	r, err := registry.ParseReference(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return r.Reference, nil
}

// isDigest reports whether a reference part is a digest rather than a tag.
func isDigest(reference string) bool {
	return strings.Contains(reference, ":")
}
