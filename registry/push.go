package registry

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	srcpack "github.com/meigma/srcpack/core"
)

// Push stores a packaged source manifest at ref, which must carry a tag
// (e.g. "registry.example.com/srcpack/adder:v1.0.0").
//
// The manifest is serialized exactly as SaveToFile would write it and
// pushed as the single layer of an OCI artifact.
func (c *Client) Push(ctx context.Context, ref string, p *srcpack.Packaged, opts ...PushOption) (ocispec.Descriptor, error) {
	cfg := pushConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	tag, err := parseRef(ref)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if tag == "" || isDigest(tag) {
		return ocispec.Descriptor{}, fmt.Errorf("%w: reference must include a tag", ErrInvalidReference)
	}

	var buf bytes.Buffer
	if err := p.Encode(&buf, srcpack.SaveWithCompression(cfg.compress)); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("encode manifest: %w", err)
	}
	data := buf.Bytes()

	configDesc, err := c.pushEmptyConfig(ctx, ref)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push config: %w", err)
	}

	layerDesc := ocispec.Descriptor{
		MediaType: MediaTypeManifest,
		Digest:    digest.FromBytes(data),
		Size:      int64(len(data)),
		Annotations: map[string]string{
			ocispec.AnnotationTitle: layerTitle(p, cfg.compress),
		},
	}
	if cfg.compress {
		layerDesc.MediaType = MediaTypeManifestZstd
	}
	if err := c.oci.PushBlob(ctx, ref, &layerDesc, bytes.NewReader(data)); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push manifest layer: %w", mapOCIError(err))
	}

	manifest := buildManifest(&configDesc, &layerDesc, p, cfg.annotations)
	desc, err := c.oci.PushManifest(ctx, ref, tag, &manifest)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push manifest: %w", mapOCIError(err))
	}

	for _, extra := range cfg.tags {
		if err := c.oci.Tag(ctx, ref, &desc, extra); err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("tag %q: %w", extra, mapOCIError(err))
		}
	}

	c.log().Info("pushed packaged source",
		"ref", ref,
		"digest", desc.Digest,
		"entries", p.Len(),
		"layer_size", layerDesc.Size,
	)
	return desc, nil
}

// pushEmptyConfig pushes the empty JSON config blob required by OCI manifests.
func (c *Client) pushEmptyConfig(ctx context.Context, ref string) (ocispec.Descriptor, error) {
	desc := ocispec.DescriptorEmptyJSON
	if err := c.oci.PushBlob(ctx, ref, &desc, bytes.NewReader(desc.Data)); err != nil {
		return ocispec.Descriptor{}, mapOCIError(err)
	}
	desc.Data = nil
	return desc, nil
}

func layerTitle(p *srcpack.Packaged, compressed bool) string {
	name, ok := p.Metadata().Name()
	if !ok || name == "" {
		name = srcpack.DefaultProjectName
	}
	title := name + ".source.json"
	if compressed {
		title += ".zst"
	}
	return title
}

// buildManifest creates the OCI manifest of a packaged source artifact.
func buildManifest(configDesc, layerDesc *ocispec.Descriptor, p *srcpack.Packaged, custom map[string]string) ocispec.Manifest {
	annotations := map[string]string{
		ocispec.AnnotationCreated: time.Now().UTC().Format(time.RFC3339),
		AnnotationSchemaVersion:   string(srcpack.SchemaVersionCurrent),
		AnnotationEntries:         strconv.Itoa(p.Len()),
	}
	meta := p.Metadata()
	if name, ok := meta.Name(); ok {
		annotations[AnnotationProjectName] = name
	}
	if version, ok := meta.ProjectVersion(); ok {
		annotations[AnnotationProjectVersion] = version
	}
	for k, v := range custom {
		annotations[k] = v
	}

	return ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactType,
		Config:       *configDesc,
		Layers:       []ocispec.Descriptor{*layerDesc},
		Annotations:  annotations,
	}
}
