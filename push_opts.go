package srcpack

import (
	"maps"

	"github.com/meigma/srcpack/internal/discovery"
)

// PushOption configures a Push operation.
type PushOption func(*pushConfig)

type pushConfig struct {
	tags        []string
	annotations map[string]string
	compress    bool
	metadata    Metadata
	fileList    string
	walkOpts    []discovery.Option
}

// PushWithTags applies additional tags to the pushed manifest.
func PushWithTags(tags ...string) PushOption {
	return func(cfg *pushConfig) {
		cfg.tags = append(cfg.tags, tags...)
	}
}

// PushWithAnnotations sets custom annotations on the OCI manifest.
func PushWithAnnotations(annotations map[string]string) PushOption {
	return func(cfg *pushConfig) {
		if cfg.annotations == nil {
			cfg.annotations = make(map[string]string, len(annotations))
		}
		maps.Copy(cfg.annotations, annotations)
	}
}

// PushWithCompression stores the manifest layer zstd-compressed.
func PushWithCompression(enabled bool) PushOption {
	return func(cfg *pushConfig) {
		cfg.compress = enabled
	}
}

// PushWithMetadata sets the project metadata of a manifest packed by Push.
func PushWithMetadata(metadata Metadata) PushOption {
	return func(cfg *pushConfig) {
		cfg.metadata = metadata.Clone()
	}
}

// PushWithFileList packs the files named in a JSON file list instead of
// walking the project directory.
func PushWithFileList(path string) PushOption {
	return func(cfg *pushConfig) {
		cfg.fileList = path
	}
}

// PushWithModuleMarkers sets the file names that mark a module root during
// the project walk.
func PushWithModuleMarkers(names ...string) PushOption {
	return func(cfg *pushConfig) {
		cfg.walkOpts = append(cfg.walkOpts, discovery.WithModuleMarkers(names...))
	}
}

// PushWithExclude sets directory names skipped during the project walk.
func PushWithExclude(names ...string) PushOption {
	return func(cfg *pushConfig) {
		cfg.walkOpts = append(cfg.walkOpts, discovery.WithExclude(names...))
	}
}

// PushWithTestDirs sets directory names whose files are marked as tests.
func PushWithTestDirs(names ...string) PushOption {
	return func(cfg *pushConfig) {
		cfg.walkOpts = append(cfg.walkOpts, discovery.WithTestDirs(names...))
	}
}

// PushWithTestFilePatterns sets base name patterns of test files.
func PushWithTestFilePatterns(patterns ...string) PushOption {
	return func(cfg *pushConfig) {
		cfg.walkOpts = append(cfg.walkOpts, discovery.WithTestFilePatterns(patterns...))
	}
}

// PushWithDepth sets the dependency depth assigned to walked files.
func PushWithDepth(depth int) PushOption {
	return func(cfg *pushConfig) {
		cfg.walkOpts = append(cfg.walkOpts, discovery.WithDefaultDepth(depth))
	}
}
