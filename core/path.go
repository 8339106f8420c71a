package srcpack

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// NormalizePath converts a manifest or user-provided path to the
// forward-slash relative form stored in entries.
//
// It performs the following transformations:
//   - Converts backslashes to slashes: `src\lib.rs` → "src/lib.rs"
//   - Strips leading slashes: "/src/lib.rs" → "src/lib.rs"
//   - Strips trailing slashes: "src/" → "src"
//   - Collapses consecutive slashes: "src//lib.rs" → "src/lib.rs"
//   - Converts empty string to root: "" → "."
//
// Paths containing "." or ".." elements are preserved so that validation
// can reject them.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}

	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return "."
	}
	return strings.Join(result, "/")
}

// validEntryPath reports whether p names a file inside a project root.
// Backslashes are rejected because loading reads them as separators.
func validEntryPath(p string) bool {
	return p != "." && fs.ValidPath(p) && !strings.Contains(p, `\`)
}

// validModulePath reports whether p names a directory inside (or equal to) a project root.
func validModulePath(p string) bool {
	return fs.ValidPath(p) && !strings.Contains(p, `\`)
}

// relativeTo returns target relative to root in slash form.
// Both arguments are resolved to absolute, cleaned paths first.
func relativeTo(root, target string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return "", &PathOutsideProjectError{Path: target, Root: root}
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) {
		return "", &PathOutsideProjectError{Path: target, Root: root}
	}
	return rel, nil
}
