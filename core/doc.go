// Package srcpack packages a project's source tree into a single,
// order-deterministic manifest that can later be expanded back into an
// identical file tree.
//
// A manifest is a JSON document:
//
//	{
//	    "schemaVersion": "2.0.0",
//	    "metadata": {"name": "adder", "version": "0.1.0"},
//	    "entries": [
//	        {"path": "src/lib.rs", "content": "<base64>", "module": ".", "dependencyDepth": 0, "isTestFile": false}
//	    ]
//	}
//
// Entries are always held in canonical order: ascending dependency depth,
// then path. The order is re-established after every pack and every load, so
// it never depends on the order of an input artifact.
//
// Two schema versions are understood when loading. Version "1.0.0" carries
// top-level name and version fields instead of a metadata object; it is
// migrated on load and never written. Everything written uses "2.0.0".
//
// The package does not discover files itself. Callers supply [SourceFile]
// values describing which files to package, which module each belongs to,
// and how deep each sits in the dependency graph.
package srcpack
