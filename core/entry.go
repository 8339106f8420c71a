package srcpack

import (
	"bytes"
	"fmt"
	"os"

	"github.com/opencontainers/go-digest"
)

// Entry is one packaged file. Entries are immutable.
type Entry struct {
	path      string
	content   []byte
	module    string
	hasModule bool
	depth     int
	testFile  bool
}

// EntryOption configures an Entry built with NewEntry.
type EntryOption func(*Entry)

// EntryWithModule associates the entry with a module root, given as a path
// relative to the project root. Use "." for the project root itself.
func EntryWithModule(module string) EntryOption {
	return func(e *Entry) {
		e.module = NormalizePath(module)
		e.hasModule = true
	}
}

// EntryWithDependencyDepth sets the entry's dependency depth.
// Entries built without this option have UnboundedDepth.
func EntryWithDependencyDepth(depth int) EntryOption {
	return func(e *Entry) {
		e.depth = depth
	}
}

// EntryWithTestFile marks the entry as a test file.
func EntryWithTestFile(isTest bool) EntryOption {
	return func(e *Entry) {
		e.testFile = isTest
	}
}

// NewEntry builds an entry from a project-relative path and its content.
//
// The path is normalized with NormalizePath and must name a file inside the
// project root. The content is copied.
func NewEntry(path string, content []byte, opts ...EntryOption) (Entry, error) {
	e := Entry{
		path:    NormalizePath(path),
		content: bytes.Clone(content),
		depth:   UnboundedDepth,
	}
	if e.content == nil {
		e.content = []byte{}
	}
	for _, opt := range opts {
		opt(&e)
	}
	if err := e.validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// NewEntryFromSource builds an entry for a discovered file.
//
// The entry path is the file path relative to projectRoot, and the module is
// relativized the same way. The content is read from disk eagerly.
func NewEntryFromSource(projectRoot string, f SourceFile) (Entry, error) {
	rel, err := relativeTo(projectRoot, f.Path())
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		path:     rel,
		depth:    f.DependencyDepth(),
		testFile: f.IsTestFile(),
	}
	if module, ok := f.Module(); ok {
		relModule, err := relativeTo(projectRoot, module)
		if err != nil {
			return Entry{}, err
		}
		e.module = relModule
		e.hasModule = true
	}
	if err := e.validate(); err != nil {
		return Entry{}, err
	}

	content, err := os.ReadFile(f.Path())
	if err != nil {
		return Entry{}, &ReadError{Path: f.Path(), Err: err}
	}
	e.content = content
	return e, nil
}

func (e *Entry) validate() error {
	if !validEntryPath(e.path) {
		return fmt.Errorf("%w: path %q", ErrInvalidEntry, e.path)
	}
	if e.hasModule && !validModulePath(e.module) {
		return fmt.Errorf("%w: module %q for %s", ErrInvalidEntry, e.module, e.path)
	}
	if e.depth < 0 {
		return fmt.Errorf("%w: negative dependency depth %d for %s", ErrInvalidEntry, e.depth, e.path)
	}
	return nil
}

// Path returns the slash-separated path relative to the project root.
func (e Entry) Path() string {
	return e.path
}

// Content returns a copy of the entry's raw bytes.
func (e Entry) Content() []byte {
	return bytes.Clone(e.content)
}

// Size returns the content length in bytes.
func (e Entry) Size() int {
	return len(e.content)
}

// Module returns the module root relative to the project root, or false
// when the entry belongs to no module.
func (e Entry) Module() (string, bool) {
	return e.module, e.hasModule
}

// DependencyDepth returns the entry's dependency depth.
func (e Entry) DependencyDepth() int {
	return e.depth
}

// IsTestFile reports whether the entry is a test file.
func (e Entry) IsTestFile() bool {
	return e.testFile
}

// Digest returns the sha256 digest of the entry content.
func (e Entry) Digest() digest.Digest {
	return digest.FromBytes(e.content)
}
