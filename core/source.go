package srcpack

import "math"

// UnboundedDepth is the dependency depth of an entry whose depth is unknown.
// It is the largest int, so such entries sort after every finite depth.
const UnboundedDepth = math.MaxInt

// SourceFile describes one file to package.
//
// Implementations come from a discovery step that decides which files
// belong to a project, which module each belongs to, and how deep each file
// sits in the dependency graph. This package only consumes that information.
type SourceFile interface {
	// Path returns the file's absolute path.
	Path() string
	// Module returns the absolute path of the module root the file belongs
	// to, or false when the file belongs to no module.
	Module() (string, bool)
	// DependencyDepth returns the file's rank in the dependency graph.
	// Lower values are closer to the root dependencies.
	DependencyDepth() int
	// IsTestFile reports whether the file only serves tests.
	IsTestFile() bool
}
