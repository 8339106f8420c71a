package container

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures engine invocations and runs TestHelperProcess instead.
type recorder struct {
	name     string
	args     []string
	calls    int
	exitCode int
}

func (r *recorder) command(_ context.Context, name string, args ...string) *exec.Cmd {
	r.calls++
	r.name = name
	r.args = args
	cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = []string{
		"GO_WANT_HELPER_PROCESS=1",
		fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", r.exitCode),
	}
	return cmd
}

// TestHelperProcess stands in for the engine binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	code, _ := strconv.Atoi(os.Getenv("GO_HELPER_EXIT_CODE"))
	fmt.Fprint(os.Stdout, "building")
	os.Exit(code)
}

func newTestRunner(t *testing.T, rec *recorder, opts ...Option) (*Runner, *bytes.Buffer) {
	t.Helper()
	var stdout bytes.Buffer
	opts = append([]Option{
		WithExecCommand(rec.command),
		WithStdio(nil, &stdout, &bytes.Buffer{}),
	}, opts...)
	r, err := NewRunner(opts...)
	require.NoError(t, err)
	return r, &stdout
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	r, stdout := newTestRunner(t, rec)

	req := BuildRequest{
		Image:      "builder:v1",
		ProjectDir: filepath.Join(dir, "project"),
		OutputDir:  filepath.Join(dir, "output"),
		CacheRoot:  filepath.Join(dir, "cache"),
	}
	code, err := r.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "building", stdout.String())

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, "docker", rec.name)
	assert.Contains(t, rec.args, filepath.Join(dir, "output")+":/output")

	for _, name := range []string{"cargo-target-dir", "cargo-registry", "cargo-git"} {
		assert.DirExists(t, filepath.Join(dir, "cache", name))
	}
	assert.DirExists(t, filepath.Join(dir, "output"))
}

func TestBuildExitCode(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{exitCode: 3}
	r, _ := newTestRunner(t, rec, WithEngine(EnginePodman))

	code, err := r.Build(context.Background(), BuildRequest{
		Image:       "builder:v1",
		PackagedSrc: filepath.Join(dir, "src.json"),
		OutputDir:   filepath.Join(dir, "output"),
		CacheRoot:   filepath.Join(dir, "cache"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, "podman", rec.name)
}

func TestBuildOutputNotEmpty(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.wasm"), []byte("x"), 0o644))

	rec := &recorder{}
	r, _ := newTestRunner(t, rec)

	_, err := r.Build(context.Background(), BuildRequest{
		Image:      "builder:v1",
		ProjectDir: dir,
		OutputDir:  out,
		CacheRoot:  filepath.Join(dir, "cache"),
	})
	require.ErrorIs(t, err, ErrOutputNotEmpty)

	var notEmpty *OutputNotEmptyError
	require.ErrorAs(t, err, &notEmpty)
	assert.Equal(t, out, notEmpty.Dir)
	assert.Equal(t, 1, notEmpty.Entries)
	assert.Zero(t, rec.calls)
	assert.NoDirExists(t, filepath.Join(dir, "cache"))
}

func TestBuildInvalidRequest(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestRunner(t, rec)

	_, err := r.Build(context.Background(), BuildRequest{OutputDir: t.TempDir()})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, rec.calls)
}

func TestBuildEngineMissing(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRunner(
		WithExecCommand(func(ctx context.Context, _ string, arg ...string) *exec.Cmd {
			return exec.CommandContext(ctx, filepath.Join(dir, "no-such-engine"), arg...)
		}),
		WithStdio(nil, &bytes.Buffer{}, &bytes.Buffer{}),
	)
	require.NoError(t, err)

	_, err = r.Build(context.Background(), BuildRequest{
		Image:      "i",
		ProjectDir: dir,
		OutputDir:  filepath.Join(dir, "out"),
		CacheRoot:  filepath.Join(dir, "cache"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run docker")
}

func TestNewRunnerUnsupportedEngine(t *testing.T) {
	_, err := NewRunner(WithEngine("lxc"))
	require.ErrorIs(t, err, ErrUnsupportedEngine)
}

func TestEnsureOutputEmpty(t *testing.T) {
	t.Parallel()

	t.Run("creates missing", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "a", "b")
		require.NoError(t, EnsureOutputEmpty(dir))
		assert.DirExists(t, dir)
	})

	t.Run("empty ok", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, EnsureOutputEmpty(t.TempDir()))
	})

	t.Run("subdirectory counts", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
		require.ErrorIs(t, EnsureOutputEmpty(dir), ErrOutputNotEmpty)
	})
}
