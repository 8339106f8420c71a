package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
)

// Defaults used by Walk.
var (
	DefaultModuleMarkers    = []string{"Cargo.toml"}
	DefaultExclude          = []string{".git", "target", "output"}
	DefaultTestDirs         = []string{"tests"}
	DefaultTestFilePatterns = []string{"*_test.rs"}
)

// Option configures Walk.
type Option func(*walkConfig)

type walkConfig struct {
	markers      []string
	exclude      []string
	testDirs     []string
	testPatterns []string
	depth        int
	logger       *slog.Logger
}

// WithModuleMarkers sets the file names that mark a directory as a module root.
func WithModuleMarkers(names ...string) Option {
	return func(cfg *walkConfig) {
		cfg.markers = names
	}
}

// WithExclude sets directory names that are never descended into.
func WithExclude(names ...string) Option {
	return func(cfg *walkConfig) {
		cfg.exclude = names
	}
}

// WithTestDirs sets directory names whose contents are test files.
func WithTestDirs(names ...string) Option {
	return func(cfg *walkConfig) {
		cfg.testDirs = names
	}
}

// WithTestFilePatterns sets path.Match patterns applied to file base names
// to identify test files.
func WithTestFilePatterns(patterns ...string) Option {
	return func(cfg *walkConfig) {
		cfg.testPatterns = patterns
	}
}

// WithDefaultDepth sets the dependency depth assigned to every walked file.
func WithDefaultDepth(depth int) Option {
	return func(cfg *walkConfig) {
		cfg.depth = depth
	}
}

// WithLogger sets a logger for the walk.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *walkConfig) {
		cfg.logger = logger
	}
}

// Walk discovers every regular file under projectRoot.
//
// Symbolic links and non-regular files are skipped. Each file's module is
// the nearest enclosing directory (up to and including projectRoot) that
// contains a module marker. Files are returned sorted by path.
func Walk(ctx context.Context, projectRoot string, opts ...Option) ([]File, error) {
	cfg := walkConfig{
		markers:      DefaultModuleMarkers,
		exclude:      DefaultExclude,
		testDirs:     DefaultTestDirs,
		testPatterns: DefaultTestFilePatterns,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	for _, p := range cfg.testPatterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("test file pattern %q: %w", p, err)
		}
	}
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	root, err := os.OpenRoot(absRoot)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	var rels []string
	moduleDirs := make(map[string]bool)

	err = fs.WalkDir(root.FS(), ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && slices.Contains(cfg.exclude, d.Name()) {
				log.Debug("skipping excluded directory", "path", p)
				return fs.SkipDir
			}
			return nil
		}
		ok, err := isRegular(root, p, d)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if slices.Contains(cfg.markers, d.Name()) {
			moduleDirs[path.Dir(p)] = true
		}
		rels = append(rels, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	slices.Sort(rels)
	files := make([]File, 0, len(rels))
	for _, rel := range rels {
		f := File{
			AbsPath: filepath.Join(absRoot, filepath.FromSlash(rel)),
			Depth:   cfg.depth,
			Test:    cfg.isTest(rel),
		}
		if module, ok := nearestModule(rel, moduleDirs); ok {
			f.ModuleRoot = filepath.Join(absRoot, filepath.FromSlash(module))
		}
		files = append(files, f)
	}

	log.Info("discovered project files", "root", absRoot, "files", len(files), "modules", len(moduleDirs))
	return files, nil
}

// isRegular filters out symlinks and non-regular files. Entries with an
// unknown type are resolved with Lstat.
func isRegular(root *os.Root, p string, d fs.DirEntry) (bool, error) {
	dtype := d.Type()
	if dtype&fs.ModeSymlink != 0 {
		return false, nil
	}
	if dtype == 0 {
		info, err := root.Lstat(p)
		if err != nil {
			return false, err
		}
		return info.Mode().IsRegular(), nil
	}
	return dtype.IsRegular(), nil
}

// nearestModule returns the closest ancestor directory of rel that holds a
// module marker.
func nearestModule(rel string, moduleDirs map[string]bool) (string, bool) {
	dir := path.Dir(rel)
	for {
		if moduleDirs[dir] {
			return dir, true
		}
		if dir == "." {
			return "", false
		}
		dir = path.Dir(dir)
	}
}

func (cfg *walkConfig) isTest(rel string) bool {
	dir := path.Dir(rel)
	for dir != "." {
		if slices.Contains(cfg.testDirs, path.Base(dir)) {
			return true
		}
		dir = path.Dir(dir)
	}
	base := path.Base(rel)
	for _, p := range cfg.testPatterns {
		if ok, _ := path.Match(p, base); ok {
			return true
		}
	}
	return false
}
