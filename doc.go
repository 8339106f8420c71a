// Package srcpack packages the source files of a project into a single
// portable manifest and moves manifests through OCI registries.
//
// This package provides a high-level API through [Client] for pushing and
// pulling packaged sources. For manifest operations without registry
// interaction (packing, loading, saving and restoring files), use the
// [core] subpackage.
//
// A manifest records every file's relative path, content, owning module,
// dependency depth and test status. Entries are kept in canonical order:
// ascending dependency depth, then path.
//
// # Quick Start
//
// Push a project directory to a registry:
//
//	c, err := srcpack.NewClient(srcpack.WithDockerConfig())
//	if err != nil {
//	    return err
//	}
//	desc, err := c.Push(ctx, "ghcr.io/acme/adder-src:v1.0.0", "./contracts",
//	    srcpack.PushWithMetadata(srcpack.Metadata{"name": "adder", "version": "1.0.0"}),
//	)
//
// Pull and restore the files:
//
//	p, err := c.PullTo(ctx, "ghcr.io/acme/adder-src:v1.0.0", "./restored")
//
// [core]: https://pkg.go.dev/github.com/meigma/srcpack/core
package srcpack
