package registry

// Media types for packaged source manifests in OCI registries.
const (
	// ArtifactType identifies packaged source artifacts.
	ArtifactType = "application/vnd.meigma.srcpack.v1"

	// MediaTypeManifest is the layer media type of an uncompressed manifest.
	MediaTypeManifest = "application/vnd.meigma.srcpack.manifest.v2+json"

	// MediaTypeManifestZstd is the layer media type of a zstd-compressed manifest.
	MediaTypeManifestZstd = "application/vnd.meigma.srcpack.manifest.v2+json+zstd"
)

// Annotation keys set on pushed artifacts.
const (
	AnnotationProjectName    = "dev.meigma.srcpack.project.name"
	AnnotationProjectVersion = "dev.meigma.srcpack.project.version"
	AnnotationSchemaVersion  = "dev.meigma.srcpack.schema.version"
	AnnotationEntries        = "dev.meigma.srcpack.entries"
)
