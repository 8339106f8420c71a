package srcpack

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/srcpack/core/testutil"
)

func TestRoundTripFidelity(t *testing.T) {
	files := map[string][]byte{
		"Cargo.toml":                 []byte("[workspace]\nmembers = [\"adder\"]\n"),
		"adder/Cargo.toml":           []byte("[package]\nname = \"adder\"\n"),
		"adder/src/lib.rs":           []byte("#![no_std]\n"),
		"adder/src/nested/deep.rs":   []byte("// deep\r\n\ttabs and CRLF\r\n"),
		"adder/tests/integration.rs": []byte("#[test] fn t() {}"),
		"adder/empty.rs":             {},
		"adder/binary.bin":           {0x00, 0x01, 0xfe, 0xff, 0x80, 0x0a},
		"adder/utf8.rs":              []byte("// héllo wörld ✓\n"),
	}
	depths := map[string]int{
		"Cargo.toml":       0,
		"adder/Cargo.toml": 1,
		"adder/src/lib.rs": 1,
	}

	project := t.TempDir()
	testutil.WriteTree(t, project, files)

	var sources []testutil.SourceFile
	for name := range files {
		depth, ok := depths[name]
		if !ok {
			depth = 5
		}
		sources = append(sources, testutil.SourceFile{
			AbsPath:    filepath.Join(project, filepath.FromSlash(name)),
			ModuleRoot: filepath.Join(project, "adder"),
			Depth:      depth,
			Test:       filepath.Base(filepath.Dir(name)) == "tests",
		})
	}

	packed, err := FromFilesystem(Metadata{"name": "adder"}, project, sources)
	require.NoError(t, err)
	require.True(t, IsCanonical(packed.Entries()))

	manifest := filepath.Join(t.TempDir(), "adder.source.json")
	require.NoError(t, packed.SaveToFile(manifest))

	loaded, err := FromFile(manifest)
	require.NoError(t, err)
	assert.Equal(t, entryPaths(packed.Entries()), entryPaths(loaded.Entries()))

	dest := filepath.Join(t.TempDir(), "unpacked")
	require.NoError(t, loaded.UnwrapToFilesystem(dest))

	assert.Equal(t, files, testutil.ReadTree(t, dest))
}

func TestUnwrapOverwritesButDoesNotSync(t *testing.T) {
	dest := t.TempDir()
	testutil.WriteTree(t, dest, map[string][]byte{
		"extra.txt":  []byte("keep me"),
		"src/lib.rs": []byte("old content that is longer than the new one"),
	})

	e, err := NewEntry("src/lib.rs", []byte("new"))
	require.NoError(t, err)
	f, err := NewEntry("src/added/mod.rs", []byte("mod"))
	require.NoError(t, err)

	require.NoError(t, New(nil, []Entry{e, f}).UnwrapToFilesystem(dest))

	assert.Equal(t, map[string][]byte{
		"extra.txt":        []byte("keep me"),
		"src/lib.rs":       []byte("new"),
		"src/added/mod.rs": []byte("mod"),
	}, testutil.ReadTree(t, dest))
}

func TestUnwrapCreatesDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b")
	e, err := NewEntry("file.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, New(nil, []Entry{e}).UnwrapToFilesystem(dest))
	data, err := os.ReadFile(filepath.Join(dest, "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestUnwrapFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	dest := t.TempDir()
	e, err := NewEntry("run.sh", []byte("#!/bin/sh\n"))
	require.NoError(t, err)

	require.NoError(t, New(nil, []Entry{e}).UnwrapToFilesystem(dest, UnwrapWithFileMode(0o600)))
	info, err := os.Stat(filepath.Join(dest, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestUnwrapWriteFailure(t *testing.T) {
	dest := t.TempDir()
	// A directory where a file must go cannot be overwritten.
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "src", "lib.rs"), 0o755))

	a, err := NewEntry("a.txt", []byte("a"), EntryWithDependencyDepth(0))
	require.NoError(t, err)
	b, err := NewEntry("src/lib.rs", []byte("b"), EntryWithDependencyDepth(1))
	require.NoError(t, err)

	err = New(nil, []Entry{a, b}).UnwrapToFilesystem(dest)
	require.ErrorIs(t, err, ErrWrite)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, filepath.Join(dest, "src", "lib.rs"), writeErr.Path)

	data, readErr := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, readErr, "entries before the failure stay written")
	assert.Equal(t, []byte("a"), data)
}

func TestUnwrapDestinationIsFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(dest, []byte("x"), 0o644))

	err := New(nil, nil).UnwrapToFilesystem(dest)
	assert.ErrorIs(t, err, ErrWrite)
}

func TestPackRejectsBackslashNames(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("backslash is a separator on windows")
	}
	project := t.TempDir()
	testutil.WriteTree(t, project, map[string][]byte{"a/b.txt": []byte("nested")})
	odd := filepath.Join(project, `a\b.txt`)
	require.NoError(t, os.WriteFile(odd, []byte("flat"), 0o644))

	_, err := FromFilesystem(Metadata{}, project, []testutil.SourceFile{
		{AbsPath: filepath.Join(project, "a", "b.txt"), Depth: 0},
		{AbsPath: odd, Depth: 0},
	})
	require.ErrorIs(t, err, ErrInvalidEntry)

	// A packable tree restores every file at its original path.
	packed, err := FromFilesystem(Metadata{}, project, []testutil.SourceFile{
		{AbsPath: filepath.Join(project, "a", "b.txt"), Depth: 0},
	})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, packed.Encode(&buf))
	loaded, err := Decode(&buf)
	require.NoError(t, err)

	dest := t.TempDir()
	require.NoError(t, loaded.UnwrapToFilesystem(dest))
	assert.Equal(t, map[string][]byte{"a/b.txt": []byte("nested")}, testutil.ReadTree(t, dest))
}
