//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	srcpack "github.com/meigma/srcpack/core"
	"github.com/meigma/srcpack/core/testutil"
	"github.com/meigma/srcpack/registry"
)

// --- Registry Container Setup ---

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error
)

// getRegistry returns the shared registry address, starting the container if needed.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		registryAddr, registryErr = startRegistryContainer(context.Background())
	})

	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}

	return registryAddr
}

// startRegistryContainer starts a registry:2 container and returns the host:port address.
func startRegistryContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isOKStatus),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start registry container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve registry host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve registry port: %w", err)
	}

	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// newTestClient creates a client configured for the local test registry.
func newTestClient(tb testing.TB, opts ...registry.Option) *registry.Client {
	tb.Helper()
	return registry.New(append([]registry.Option{registry.WithPlainHTTP(true)}, opts...)...)
}

// testRef generates a unique reference for a test to avoid collisions.
func testRef(addr, testName, tag string) string {
	return fmt.Sprintf("%s/test/%s:%s", addr, testName, tag)
}

// --- Fixtures ---

var workspaceProject = map[string][]byte{
	"Cargo.toml":               []byte("[workspace]\nmembers = [\"flipper\", \"common\"]\n"),
	"flipper/Cargo.toml":       []byte("[package]\nname = \"flipper\"\n"),
	"flipper/src/lib.rs":       []byte("pub struct Flipper { value: bool }\n"),
	"flipper/tests/flip.rs":    []byte("#[test]\nfn flips() {}\n"),
	"common/Cargo.toml":        []byte("[package]\nname = \"common\"\n"),
	"common/src/lib.rs":        []byte("pub const ZERO: u8 = 0;\r\n"),
	"common/assets/logo.bin":   {0x89, 0x50, 0x4e, 0x47, 0x00, 0xff},
	"common/src/nested/mod.rs": []byte(""),
}

// packWorkspace builds a manifest of workspaceProject.
func packWorkspace(tb testing.TB) *srcpack.Packaged {
	tb.Helper()

	dir := tb.TempDir()
	testutil.WriteTree(tb, dir, workspaceProject)

	files := make([]testutil.SourceFile, 0, len(workspaceProject))
	for path := range workspaceProject {
		module, _, nested := strings.Cut(path, "/")
		f := testutil.SourceFile{
			AbsPath:    filepath.Join(dir, filepath.FromSlash(path)),
			ModuleRoot: dir,
			Test:       strings.Contains(path, "/tests/"),
		}
		if nested {
			f.ModuleRoot = filepath.Join(dir, module)
			f.Depth = 1
		}
		files = append(files, f)
	}
	p, err := srcpack.FromFilesystem(srcpack.Metadata{"name": "flipper", "version": "0.1.0"}, dir, files)
	require.NoError(tb, err)
	return p
}
