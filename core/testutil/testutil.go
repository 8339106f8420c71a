// Package testutil provides helpers shared by srcpack tests.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// SourceFile is a discovery descriptor for tests.
type SourceFile struct {
	AbsPath    string
	ModuleRoot string
	Depth      int
	Test       bool
}

// Path returns the absolute file path.
func (f SourceFile) Path() string { return f.AbsPath }

// Module returns the module root, if set.
func (f SourceFile) Module() (string, bool) { return f.ModuleRoot, f.ModuleRoot != "" }

// DependencyDepth returns the configured depth.
func (f SourceFile) DependencyDepth() int { return f.Depth }

// IsTestFile reports the configured test flag.
func (f SourceFile) IsTestFile() bool { return f.Test }

// WriteTree writes files (slash-separated relative paths) under dir.
func WriteTree(tb testing.TB, dir string, files map[string][]byte) {
	tb.Helper()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			tb.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
		}
		if err := os.WriteFile(full, content, 0o644); err != nil {
			tb.Fatalf("write %s: %v", full, err)
		}
	}
}

// ReadTree returns every regular file under dir keyed by slash-separated
// relative path.
func ReadTree(tb testing.TB, dir string) map[string][]byte {
	tb.Helper()
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		tb.Fatalf("read tree %s: %v", dir, err)
	}
	return files
}
