package oras

import "errors"

// Sentinel errors for OCI operations.
var (
	// ErrNotFound is returned when a blob, manifest or tag does not exist.
	ErrNotFound = errors.New("oras: not found")

	// ErrUnauthorized is returned when authentication fails.
	ErrUnauthorized = errors.New("oras: unauthorized")

	// ErrForbidden is returned when access is denied.
	ErrForbidden = errors.New("oras: forbidden")

	// ErrInvalidReference is returned when a reference string is malformed.
	ErrInvalidReference = errors.New("oras: invalid reference")

	// ErrInvalidDescriptor is returned when a descriptor is nil or has invalid fields.
	ErrInvalidDescriptor = errors.New("oras: invalid descriptor")

	// ErrManifestInvalid is returned when a manifest cannot be parsed.
	ErrManifestInvalid = errors.New("oras: invalid manifest")

	// ErrDigestMismatch is returned when fetched content does not match its digest.
	ErrDigestMismatch = errors.New("oras: digest mismatch")
)
