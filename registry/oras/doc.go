// Package oras implements the registry OCI client on top of oras-go.
//
// Client pushes and fetches blobs and image manifests in remote
// repositories. Credentials come from a static credential, a bearer token,
// or the Docker configuration and its credential helpers; tokens obtained
// from the registry are cached and shared across repositories.
package oras
