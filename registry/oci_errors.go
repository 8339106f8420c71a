package registry

import (
	"errors"
	"fmt"

	"github.com/meigma/srcpack/registry/oras"
)

// mapOCIError translates OCI client errors to registry sentinels.
func mapOCIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, oras.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, oras.ErrInvalidReference) {
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if errors.Is(err, oras.ErrDigestMismatch) {
		return fmt.Errorf("%w: %v", ErrDigestMismatch, err)
	}
	return err
}
