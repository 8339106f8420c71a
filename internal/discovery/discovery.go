// Package discovery finds the files of a project to package.
//
// It provides two sources of srcpack.SourceFile descriptors: a directory walk
// that groups files by module marker, and a descriptor list produced by an
// external dependency analyzer. Neither computes dependency depths; the walk
// assigns a fixed depth and the list carries whatever the analyzer decided.
package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	srcpack "github.com/meigma/srcpack/core"
)

// File is a discovered file. It implements srcpack.SourceFile.
type File struct {
	// AbsPath is the absolute path of the file.
	AbsPath string
	// ModuleRoot is the absolute path of the module the file belongs to,
	// or empty when it belongs to none.
	ModuleRoot string
	// Depth is the file's dependency depth.
	Depth int
	// Test marks test-only files.
	Test bool
}

var _ srcpack.SourceFile = File{}

// Path returns the absolute file path.
func (f File) Path() string { return f.AbsPath }

// Module returns the module root, if any.
func (f File) Module() (string, bool) { return f.ModuleRoot, f.ModuleRoot != "" }

// DependencyDepth returns the file's dependency depth.
func (f File) DependencyDepth() int { return f.Depth }

// IsTestFile reports whether the file is test-only.
func (f File) IsTestFile() bool { return f.Test }

// listItem is one descriptor in a file list.
type listItem struct {
	Path            string `json:"path"`
	Module          string `json:"module"`
	DependencyDepth *int   `json:"dependencyDepth"`
	IsTestFile      bool   `json:"isTestFile"`
}

// LoadList reads a JSON array of file descriptors:
//
//	[{"path": "src/lib.rs", "module": ".", "dependencyDepth": 0, "isTestFile": false}]
//
// Relative paths and modules resolve against projectRoot. A missing
// dependencyDepth becomes srcpack.UnboundedDepth; an empty module means none.
func LoadList(listPath, projectRoot string) ([]File, error) {
	data, err := os.ReadFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read file list: %w", err)
	}
	var items []listItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse file list %s: %w", listPath, err)
	}

	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	files := make([]File, 0, len(items))
	for i, item := range items {
		if item.Path == "" {
			return nil, fmt.Errorf("file list %s: entry %d has no path", listPath, i)
		}
		f := File{
			AbsPath: resolve(absRoot, item.Path),
			Depth:   srcpack.UnboundedDepth,
			Test:    item.IsTestFile,
		}
		if item.DependencyDepth != nil {
			if *item.DependencyDepth < 0 {
				return nil, fmt.Errorf("file list %s: entry %d has negative dependencyDepth", listPath, i)
			}
			f.Depth = *item.DependencyDepth
		}
		if item.Module != "" {
			f.ModuleRoot = resolve(absRoot, item.Module)
		}
		files = append(files, f)
	}
	return files, nil
}

func resolve(root, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
