// Package registry stores packaged source manifests in OCI registries.
//
// A manifest is pushed as an OCI 1.1 artifact: an empty JSON config and a
// single layer holding the serialized manifest, optionally zstd-compressed.
// Pull reverses the process and verifies every digest on the way.
package registry
