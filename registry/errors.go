package registry

import "errors"

// Sentinel errors for client operations.
var (
	// ErrNotFound is returned when no artifact exists at the reference.
	ErrNotFound = errors.New("registry: not found")

	// ErrInvalidReference is returned when a reference string is malformed.
	ErrInvalidReference = errors.New("registry: invalid reference")

	// ErrInvalidManifest is returned when an OCI manifest is not a packaged
	// source artifact.
	ErrInvalidManifest = errors.New("registry: invalid srcpack artifact")

	// ErrDigestMismatch is returned when content does not match its expected digest.
	ErrDigestMismatch = errors.New("registry: digest mismatch")

	// ErrTooLarge is returned when a layer exceeds the pull size limit.
	ErrTooLarge = errors.New("registry: layer too large")
)
