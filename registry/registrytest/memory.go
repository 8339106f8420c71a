// Package registrytest provides an in-memory registry transport for tests.
package registrytest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/meigma/srcpack/registry/oras"
)

// Memory is a single-repository registry held in memory. The repository
// part of every reference is ignored. It implements registry.OCIClient.
type Memory struct {
	mu        sync.Mutex
	blobs     map[digest.Digest][]byte
	manifests map[digest.Digest][]byte
	tags      map[string]digest.Digest
	pushed    []string
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{
		blobs:     make(map[digest.Digest][]byte),
		manifests: make(map[digest.Digest][]byte),
		tags:      make(map[string]digest.Digest),
	}
}

// PushBlob stores the blob after checking it against desc.
func (m *Memory) PushBlob(_ context.Context, _ string, desc *ocispec.Descriptor, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if digest.FromBytes(data) != desc.Digest || int64(len(data)) != desc.Size {
		return fmt.Errorf("%w: blob %s", oras.ErrDigestMismatch, desc.Digest)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[desc.Digest] = data
	m.pushed = append(m.pushed, desc.MediaType)
	return nil
}

// FetchBlob returns the stored blob.
func (m *Memory) FetchBlob(_ context.Context, _ string, desc *ocispec.Descriptor) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[desc.Digest]
	if !ok {
		return nil, fmt.Errorf("%w: blob %s", oras.ErrNotFound, desc.Digest)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// PushManifest stores manifest and points tag at it.
func (m *Memory) PushManifest(_ context.Context, _ string, tag string, manifest *ocispec.Manifest) (ocispec.Descriptor, error) {
	raw, err := json.Marshal(manifest)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	desc := ocispec.Descriptor{
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: manifest.ArtifactType,
		Digest:       digest.FromBytes(raw),
		Size:         int64(len(raw)),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests[desc.Digest] = raw
	m.tags[tag] = desc.Digest
	return desc, nil
}

// FetchManifest returns the stored manifest and its raw bytes.
func (m *Memory) FetchManifest(_ context.Context, _ string, expected *ocispec.Descriptor) (ocispec.Manifest, []byte, error) {
	m.mu.Lock()
	raw, ok := m.manifests[expected.Digest]
	m.mu.Unlock()
	if !ok {
		return ocispec.Manifest{}, nil, fmt.Errorf("%w: manifest %s", oras.ErrNotFound, expected.Digest)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return ocispec.Manifest{}, nil, err
	}
	return manifest, raw, nil
}

// Resolve looks up a tag or digest.
func (m *Memory) Resolve(_ context.Context, _ string, ref string) (ocispec.Descriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := digest.Digest(ref)
	if !strings.Contains(ref, ":") {
		var ok bool
		if d, ok = m.tags[ref]; !ok {
			return ocispec.Descriptor{}, fmt.Errorf("%w: tag %s", oras.ErrNotFound, ref)
		}
	}
	raw, ok := m.manifests[d]
	if !ok {
		return ocispec.Descriptor{}, fmt.Errorf("%w: manifest %s", oras.ErrNotFound, d)
	}
	return ocispec.Descriptor{MediaType: ocispec.MediaTypeImageManifest, Digest: d, Size: int64(len(raw))}, nil
}

// Tag points tag at desc.
func (m *Memory) Tag(_ context.Context, _ string, desc *ocispec.Descriptor, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[tag] = desc.Digest
	return nil
}

// SetBlob stores data under d without verification.
func (m *Memory) SetBlob(d digest.Digest, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[d] = data
}

// TagDigest returns the digest tag points at, or "".
func (m *Memory) TagDigest(tag string) digest.Digest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tags[tag]
}

// Pushed returns the media types of pushed blobs in push order.
func (m *Memory) Pushed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.pushed...)
}
