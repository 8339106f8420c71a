package registry

import (
	"fmt"
	"strconv"
	"time"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Artifact is a packaged source artifact as stored in a registry.
type Artifact struct {
	raw     ocispec.Manifest
	digest  digest.Digest
	layer   ocispec.Descriptor
	created time.Time
}

// Digest returns the OCI manifest digest.
func (a *Artifact) Digest() digest.Digest {
	return a.digest
}

// Layer returns the descriptor of the serialized manifest layer.
func (a *Artifact) Layer() ocispec.Descriptor {
	return a.layer
}

// Compressed reports whether the layer is zstd-compressed.
func (a *Artifact) Compressed() bool {
	return a.layer.MediaType == MediaTypeManifestZstd
}

// Annotations returns the OCI manifest annotations.
func (a *Artifact) Annotations() map[string]string {
	return a.raw.Annotations
}

// ProjectName returns the project name annotation, if any.
func (a *Artifact) ProjectName() string {
	return a.raw.Annotations[AnnotationProjectName]
}

// Entries returns the entry count annotation, or -1 when absent.
func (a *Artifact) Entries() int {
	n, err := strconv.Atoi(a.raw.Annotations[AnnotationEntries])
	if err != nil {
		return -1
	}
	return n
}

// Created returns the creation time, or the zero time when unknown.
func (a *Artifact) Created() time.Time {
	return a.created
}

// Raw returns the underlying OCI manifest.
func (a *Artifact) Raw() ocispec.Manifest {
	return a.raw
}

// parseArtifact validates an OCI manifest as a packaged source artifact.
func parseArtifact(manifest *ocispec.Manifest, dgst digest.Digest) (*Artifact, error) {
	if manifest.MediaType != ocispec.MediaTypeImageManifest {
		return nil, fmt.Errorf("%w: unexpected manifest media type %q", ErrInvalidManifest, manifest.MediaType)
	}
	if manifest.ArtifactType != ArtifactType {
		return nil, fmt.Errorf("%w: unexpected artifact type %q", ErrInvalidManifest, manifest.ArtifactType)
	}
	if len(manifest.Layers) != 1 {
		return nil, fmt.Errorf("%w: expected 1 layer, got %d", ErrInvalidManifest, len(manifest.Layers))
	}
	layer := manifest.Layers[0]
	switch layer.MediaType {
	case MediaTypeManifest, MediaTypeManifestZstd:
	default:
		return nil, fmt.Errorf("%w: unexpected layer media type %q", ErrInvalidManifest, layer.MediaType)
	}

	var created time.Time
	if ts, ok := manifest.Annotations[ocispec.AnnotationCreated]; ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			created = t
		}
	}

	return &Artifact{
		raw:     *manifest,
		digest:  dgst,
		layer:   layer,
		created: created,
	}, nil
}
