package container

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Mount points inside the build container.
const (
	OutputMount      = "/output"
	ProjectMount     = "/project"
	PackagedSrcMount = "/packaged-src.json"
	TargetDirMount   = "/rust/cargo-target-dir"
	RegistryMount    = "/rust/registry"
	GitMount         = "/rust/git"
)

// Cache directory names under BuildRequest.CacheRoot.
const (
	targetCacheDir   = "cargo-target-dir"
	registryCacheDir = "cargo-registry"
	gitCacheDir      = "cargo-git"
)

// BuildRequest describes one containerized build.
//
// At least one of ProjectDir and PackagedSrc must be set. Host paths are
// used as given by RunArgs; Runner.Build resolves them to absolute paths
// first.
type BuildRequest struct {
	// Image is the build image reference.
	Image string
	// ProjectDir is mounted at /project.
	ProjectDir string
	// PackagedSrc is a packaged source manifest mounted at /packaged-src.json.
	PackagedSrc string
	// Contract restricts the build to one contract by name.
	Contract string
	// OutputDir receives the build artifacts. It must be empty.
	OutputDir string
	// PackageWholeProjectSrc asks the image to package every project file.
	PackageWholeProjectSrc bool
	// NoWasmOpt skips wasm optimization after the build.
	NoWasmOpt bool
	// BuildRoot is the build root path inside the container.
	BuildRoot string
	// CargoVerbose sets CARGO_TERM_VERBOSE.
	CargoVerbose bool
	// Interactive keeps stdin attached.
	Interactive bool
	// TTY allocates a pseudo terminal.
	TTY bool
	// CacheRoot holds the cargo caches shared between builds.
	// Defaults to DefaultCacheRoot.
	CacheRoot string
	// User is the uid:gid the container runs as. Defaults to the current user.
	User string
}

// DefaultCacheRoot returns the default host directory for build caches.
func DefaultCacheRoot() string {
	return filepath.Join(os.TempDir(), "srcpack-build-cache")
}

func currentUser() string {
	return strconv.Itoa(os.Getuid()) + ":" + strconv.Itoa(os.Getgid())
}

// Validate checks that the request can be run.
func (r BuildRequest) Validate() error {
	if r.Image == "" {
		return fmt.Errorf("%w: image is required", ErrInvalidRequest)
	}
	if r.ProjectDir == "" && r.PackagedSrc == "" {
		return fmt.Errorf("%w: a project directory or packaged source is required", ErrInvalidRequest)
	}
	if r.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidRequest)
	}
	return nil
}

// RunArgs returns the engine arguments (without the engine binary) for the
// request: general flags, volumes, environment, the image and finally the
// image entrypoint flags.
func (r BuildRequest) RunArgs() []string {
	args := []string{"run"}
	if r.Interactive {
		args = append(args, "--interactive")
	}
	if r.TTY {
		args = append(args, "--tty")
	}
	user := r.User
	if user == "" {
		user = currentUser()
	}
	args = append(args, "--user", user, "--rm")

	args = append(args, "--volume", volume(r.OutputDir, OutputMount))
	if r.ProjectDir != "" {
		args = append(args, "--volume", volume(r.ProjectDir, ProjectMount))
	}
	if r.PackagedSrc != "" {
		args = append(args, "--volume", volume(r.PackagedSrc, PackagedSrcMount))
	}

	cacheRoot := r.cacheRoot()
	args = append(args,
		"--volume", volume(filepath.Join(cacheRoot, targetCacheDir), TargetDirMount),
		"--volume", volume(filepath.Join(cacheRoot, registryCacheDir), RegistryMount),
		"--volume", volume(filepath.Join(cacheRoot, gitCacheDir), GitMount),
	)

	args = append(args, "--env", "CARGO_TERM_VERBOSE="+strconv.FormatBool(r.CargoVerbose))
	args = append(args, r.Image)

	if r.ProjectDir != "" {
		args = append(args, "--project", "project")
	}
	if r.PackagedSrc != "" {
		args = append(args, "--packaged-src", "packaged-src.json")
	}
	if r.NoWasmOpt {
		args = append(args, "--no-wasm-opt")
	}
	if r.Contract != "" {
		args = append(args, "--contract", r.Contract)
	}
	if r.BuildRoot != "" {
		args = append(args, "--build-root", r.BuildRoot)
	}
	if r.PackageWholeProjectSrc {
		args = append(args, "--package-whole-project-src")
	}
	return args
}

func (r BuildRequest) cacheRoot() string {
	if r.CacheRoot == "" {
		return DefaultCacheRoot()
	}
	return r.CacheRoot
}

func (r BuildRequest) cacheDirs() []string {
	root := r.cacheRoot()
	return []string{
		filepath.Join(root, targetCacheDir),
		filepath.Join(root, registryCacheDir),
		filepath.Join(root, gitCacheDir),
	}
}

// absolute returns a copy of r with host paths made absolute.
func (r BuildRequest) absolute() (BuildRequest, error) {
	for _, p := range []*string{&r.ProjectDir, &r.PackagedSrc, &r.OutputDir, &r.CacheRoot} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return r, fmt.Errorf("resolve %s: %w", *p, err)
		}
		*p = abs
	}
	return r, nil
}

func volume(host, target string) string {
	return host + ":" + target
}
