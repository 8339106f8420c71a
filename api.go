package srcpack

import (
	srcpackcore "github.com/meigma/srcpack/core"
	"github.com/meigma/srcpack/registry"
)

// Re-export types from core for the public API.
type (
	// Packaged is an immutable, canonically ordered manifest.
	Packaged = srcpackcore.Packaged

	// Entry is one packaged file.
	Entry = srcpackcore.Entry

	// Metadata is free-form project metadata.
	Metadata = srcpackcore.Metadata

	// SchemaVersion identifies a manifest layout.
	SchemaVersion = srcpackcore.SchemaVersion

	// Artifact is a packaged source manifest stored in a registry.
	Artifact = registry.Artifact
)

// Re-exported schema versions.
const (
	SchemaVersionLegacy  = srcpackcore.SchemaVersionLegacy
	SchemaVersionCurrent = srcpackcore.SchemaVersionCurrent
)

// Sentinel errors re-exported from core and registry.
var (
	// ErrUnknownSchemaVersion is returned for manifests with an unrecognized schema tag.
	ErrUnknownSchemaVersion = srcpackcore.ErrUnknownSchemaVersion

	// ErrMalformedManifest is returned when a manifest does not have the expected shape.
	ErrMalformedManifest = srcpackcore.ErrMalformedManifest

	// ErrPathOutsideProject is returned when a file lies outside the project root.
	ErrPathOutsideProject = srcpackcore.ErrPathOutsideProject

	// ErrNotFound is returned when no artifact exists at a reference.
	ErrNotFound = registry.ErrNotFound

	// ErrInvalidReference is returned when a reference string is malformed.
	ErrInvalidReference = registry.ErrInvalidReference
)
