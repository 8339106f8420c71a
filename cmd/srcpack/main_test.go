package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/meigma/srcpack"
	srcpackcore "github.com/meigma/srcpack/core"
	"github.com/meigma/srcpack/core/testutil"
	"github.com/meigma/srcpack/internal/container"
	"github.com/meigma/srcpack/registry/registrytest"
)

// run executes the CLI with an isolated config file.
func run(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "srcpack.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_level = \"error\"\n"), 0o644))

	var stdout, stderr bytes.Buffer
	root := newRootCmd(c)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func projectTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{
		"Cargo.toml":              []byte("[workspace]\nmembers = [\"adder\"]\n"),
		"adder/Cargo.toml":        []byte("[package]\nname = \"adder\"\n"),
		"adder/src/lib.rs":        []byte("pub fn add(a: u64, b: u64) -> u64 { a + b }\r\n"),
		"adder/tests/add_test.rs": []byte("#[test]\nfn adds() {}\n"),
		"adder/wasm/blob.bin":     {0x00, 0xff, 0x10},
		"target/release/junk":     []byte("ignored"),
	})
	return dir
}

func TestPackInspectUnpack(t *testing.T) {
	project := projectTree(t)
	manifest := filepath.Join(t.TempDir(), "adder.source.json")

	out, err := run(t, newCLI(), "pack", project, "-o", manifest,
		"--name", "adder", "--project-version", "1.0.0", "--meta", "builder=v5")
	require.NoError(t, err)
	assert.Contains(t, out, "5 files")

	out, err = run(t, newCLI(), "inspect", manifest, "-o", "json")
	require.NoError(t, err)
	var summary manifestSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, string(srcpackcore.SchemaVersionCurrent), summary.SchemaVersion)
	assert.Equal(t, "adder", summary.Metadata["name"])
	assert.Equal(t, "v5", summary.Metadata["builder"])
	require.Len(t, summary.Entries, 5)
	assert.Equal(t, "Cargo.toml", summary.Entries[0].Path)
	assert.Equal(t, ".", summary.Entries[0].Module)
	for _, e := range summary.Entries {
		if e.Path == "adder/tests/add_test.rs" {
			assert.True(t, e.IsTestFile)
			assert.Equal(t, "adder", e.Module)
		}
	}

	dest := t.TempDir()
	_, err = run(t, newCLI(), "unpack", manifest, dest)
	require.NoError(t, err)

	want := testutil.ReadTree(t, project)
	delete(want, "target/release/junk")
	assert.Equal(t, want, testutil.ReadTree(t, dest))
}

func TestPackFileList(t *testing.T) {
	project := projectTree(t)
	list := filepath.Join(t.TempDir(), "files.json")
	require.NoError(t, os.WriteFile(list, []byte(`[
		{"path": "adder/src/lib.rs", "module": "adder", "dependencyDepth": 1},
		{"path": "Cargo.toml", "module": ".", "dependencyDepth": 0},
		{"path": "adder/Cargo.toml", "module": "adder"}
	]`), 0o644))
	manifest := filepath.Join(t.TempDir(), "out.json.zst")

	_, err := run(t, newCLI(), "pack", project, "-o", manifest, "--file-list", list)
	require.NoError(t, err)

	raw, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4])

	p, err := srcpackcore.FromFile(manifest)
	require.NoError(t, err)
	paths := make([]string, 0, p.Len())
	for _, e := range p.Entries() {
		paths = append(paths, e.Path())
	}
	assert.Equal(t, []string{"Cargo.toml", "adder/src/lib.rs", "adder/Cargo.toml"}, paths)
}

func TestPackErrors(t *testing.T) {
	project := projectTree(t)
	out := filepath.Join(t.TempDir(), "m.json")

	_, err := run(t, newCLI(), "pack", project)
	require.Error(t, err, "output is required")

	_, err = run(t, newCLI(), "pack", project, "-o", out, "--meta", "novalue")
	require.ErrorContains(t, err, "key=value")

	_, err = run(t, newCLI(), "pack", project, "-o", filepath.Join(t.TempDir(), "missing", "m.json"))
	require.ErrorIs(t, err, srcpackcore.ErrWrite)
}

func TestUnpackLegacyManifest(t *testing.T) {
	legacy := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(legacy, []byte(`{
		"schemaVersion": "1.0.0",
		"name": "old",
		"entries": [
			{"path": "b.rs", "content": "Yg==", "module": "", "dependency_depth": 1, "is_test_file": false},
			{"path": "a.rs", "content": "YQ==", "module": ".", "dependency_depth": 0, "is_test_file": false}
		]
	}`), 0o644))

	dest := t.TempDir()
	_, err := run(t, newCLI(), "unpack", legacy, dest)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a.rs": []byte("a"), "b.rs": []byte("b")}, testutil.ReadTree(t, dest))

	_, err = run(t, newCLI(), "unpack", legacy, t.TempDir(), "--digest", "sha256:"+strings.Repeat("0", 64))
	require.ErrorIs(t, err, srcpackcore.ErrDigestMismatch)
}

func TestInspectFormats(t *testing.T) {
	project := projectTree(t)
	manifest := filepath.Join(t.TempDir(), "m.json")
	_, err := run(t, newCLI(), "pack", project, "-o", manifest)
	require.NoError(t, err)

	out, err := run(t, newCLI(), "inspect", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "adder/src/lib.rs")
	assert.Contains(t, out, "PATH")

	out, err = run(t, newCLI(), "inspect", manifest, "-o", "yaml")
	require.NoError(t, err)
	var summary manifestSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &summary))
	assert.Len(t, summary.Entries, 5)

	_, err = run(t, newCLI(), "inspect", manifest, "-o", "xml")
	require.ErrorContains(t, err, "unknown output format")
}

func TestInspectYAMLNumbers(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, os.WriteFile(manifest, []byte(`{
		"schemaVersion": "2.0.0",
		"metadata": {"name": "adder", "build": 42, "ratio": 1.5, "limits": {"gas": 900}, "tiers": [1, 2]},
		"entries": [{"path": "lib.rs", "content": "YQ==", "module": "", "dependencyDepth": 0, "isTestFile": false}]
	}`), 0o644))

	out, err := run(t, newCLI(), "inspect", manifest, "-o", "yaml")
	require.NoError(t, err)
	assert.NotContains(t, out, `"42"`)

	var doc struct {
		Metadata map[string]any `yaml:"metadata"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 42, doc.Metadata["build"])
	assert.InDelta(t, 1.5, doc.Metadata["ratio"], 1e-9)
	assert.Equal(t, map[string]any{"gas": 900}, doc.Metadata["limits"])
	assert.Equal(t, []any{1, 2}, doc.Metadata["tiers"])
}

func TestCompare(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	testutil.WriteTree(t, a, map[string][]byte{"adder.wasm": {1, 2}, "adder.zip": []byte("x")})
	testutil.WriteTree(t, b, map[string][]byte{"adder.wasm": {1, 2}, "adder.zip": []byte("y")})

	out, err := run(t, newCLI(), "compare", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "1 files identical")

	testutil.WriteTree(t, b, map[string][]byte{"adder.abi": []byte("{}")})
	out, err = run(t, newCLI(), "compare", a, b)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, out, "adder.abi")
}

// TestHelperProcess stands in for the container engine.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	code, _ := strconv.Atoi(os.Getenv("GO_HELPER_EXIT_CODE"))
	os.Exit(code)
}

func fakeEngine(code int, args *[]string) container.Option {
	return container.WithExecCommand(func(_ context.Context, _ string, arg ...string) *exec.Cmd {
		*args = arg
		cs := append([]string{"-test.run=TestHelperProcess", "--"}, arg...)
		cmd := exec.Command(os.Args[0], cs...)
		cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", code)}
		return cmd
	})
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	base := []string{"build", "--image", "builder:v1",
		"--packaged-src", filepath.Join(dir, "adder.source.json"),
		"--cache-dir", filepath.Join(dir, "cache"),
		"--no-docker-tty", "--no-docker-interactive",
	}

	t.Run("success", func(t *testing.T) {
		var args []string
		c := newCLI()
		c.runnerOpts = []container.Option{fakeEngine(0, &args)}
		out, err := run(t, c, append(base, "--output", filepath.Join(dir, "out1"), "--contract", "adder")...)
		require.NoError(t, err)
		assert.Contains(t, out, "built")
		assert.Contains(t, args, "--contract")
		assert.NotContains(t, args, "--tty")
	})

	t.Run("container failure", func(t *testing.T) {
		var args []string
		c := newCLI()
		c.runnerOpts = []container.Option{fakeEngine(4, &args)}
		_, err := run(t, c, append(base, "--output", filepath.Join(dir, "out2"))...)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 4, exitErr.Code)
	})

	t.Run("output not empty", func(t *testing.T) {
		out := filepath.Join(dir, "out3")
		testutil.WriteTree(t, out, map[string][]byte{"old.wasm": {1}})
		var args []string
		c := newCLI()
		c.runnerOpts = []container.Option{fakeEngine(0, &args)}
		_, err := run(t, c, append(base, "--output", out)...)
		require.ErrorIs(t, err, container.ErrOutputNotEmpty)
		assert.Nil(t, args)
	})

	t.Run("missing image", func(t *testing.T) {
		_, err := run(t, newCLI(), "build", "--project", dir, "--output", filepath.Join(dir, "out4"))
		require.ErrorIs(t, err, container.ErrInvalidRequest)
	})
}

func TestPullRequiresDestination(t *testing.T) {
	_, err := run(t, newCLI(), "pull", "localhost:5000/srcpack/adder:v1")
	require.ErrorContains(t, err, "--output or --unpack")
}

func TestVersionString(t *testing.T) {
	orig, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = orig, origCommit, origDate })

	Version = "dev"
	assert.Equal(t, "dev (built from source)", versionString())

	Version, Commit, BuildDate = "v1.2.3", "abc1234", "2026-01-02"
	assert.Equal(t, "v1.2.3 (commit: abc1234, built: 2026-01-02)", versionString())
}

func TestRegistryRoundTrip(t *testing.T) {
	oci := registrytest.NewMemory()
	withRegistry := func() *cli {
		c := newCLI()
		c.clientOpts = []srcpack.Option{srcpack.WithTransport(oci)}
		return c
	}
	const ref = "registry.example.com/acme/adder-src:v1.0.0"

	project := projectTree(t)
	out, err := run(t, withRegistry(), "push", project, ref, "--name", "adder", "--tag", "latest", "--compress")
	require.NoError(t, err)
	assert.Contains(t, out, "pushed")
	assert.NotEmpty(t, oci.TagDigest("latest"))

	manifest := filepath.Join(t.TempDir(), "pulled.json")
	dest := t.TempDir()
	_, err = run(t, withRegistry(), "pull", "registry.example.com/acme/adder-src:latest", "-o", manifest, "--unpack", dest)
	require.NoError(t, err)

	p, err := srcpackcore.FromFile(manifest)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Len())
	assert.Contains(t, testutil.ReadTree(t, dest), "adder/src/lib.rs")

	_, err = run(t, withRegistry(), "tag", "registry.example.com/acme/adder-src:stable", oci.TagDigest("v1.0.0").String())
	require.NoError(t, err)
	assert.Equal(t, oci.TagDigest("v1.0.0"), oci.TagDigest("stable"))

	_, err = run(t, withRegistry(), "push", manifest, "registry.example.com/acme/adder-src:v2", "--name", "x")
	require.ErrorContains(t, err, "only apply to project directories")
}
