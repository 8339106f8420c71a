package srcpack

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"leading slash", "/src/lib.rs", "src/lib.rs"},
		{"trailing slash", "src/", "src"},
		{"empty string", "", "."},
		{"root slash", "/", "."},
		{"dot", ".", "."},
		{"simple", "Cargo.toml", "Cargo.toml"},
		{"internal double slashes", "src//lib.rs", "src/lib.rs"},
		{"only slashes", "///", "."},
		{"backslashes", `src\bin\main.rs`, "src/bin/main.rs"},
		{"mixed separators", `src\\nested//mod.rs`, "src/nested/mod.rs"},
		{"dotdot preserved", "a/../b", "a/../b"},
		{"dot preserved", "a/./b", "a/./b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.input))
		})
	}
}

func TestValidEntryPath(t *testing.T) {
	assert.True(t, validEntryPath("src/lib.rs"))
	assert.False(t, validEntryPath("."))
	assert.False(t, validEntryPath("../etc/passwd"))
	assert.False(t, validEntryPath("a/./b"))
	assert.True(t, validModulePath("."))
	assert.False(t, validModulePath("a/../b"))
}

func TestRelativeTo(t *testing.T) {
	root := t.TempDir()

	t.Run("nested file", func(t *testing.T) {
		rel, err := relativeTo(root, filepath.Join(root, "src", "lib.rs"))
		require.NoError(t, err)
		assert.Equal(t, "src/lib.rs", rel)
	})

	t.Run("root itself", func(t *testing.T) {
		rel, err := relativeTo(root, root)
		require.NoError(t, err)
		assert.Equal(t, ".", rel)
	})

	t.Run("outside root", func(t *testing.T) {
		_, err := relativeTo(root, filepath.Join(filepath.Dir(root), "elsewhere.rs"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPathOutsideProject))
		var outside *PathOutsideProjectError
		require.ErrorAs(t, err, &outside)
		assert.Equal(t, root, outside.Root)
	})

	t.Run("sibling with shared prefix", func(t *testing.T) {
		_, err := relativeTo(root, root+"-other/file.rs")
		assert.ErrorIs(t, err, ErrPathOutsideProject)
	})
}
