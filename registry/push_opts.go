package registry

import "maps"

// PushOption configures a Push operation.
type PushOption func(*pushConfig)

type pushConfig struct {
	tags        []string
	annotations map[string]string
	compress    bool
}

// WithTags applies additional tags to the pushed manifest.
//
// The tag in the ref is always applied first.
func WithTags(tags ...string) PushOption {
	return func(cfg *pushConfig) {
		cfg.tags = append(cfg.tags, tags...)
	}
}

// WithAnnotations sets custom annotations on the manifest. They override
// the annotations Push sets itself.
func WithAnnotations(annotations map[string]string) PushOption {
	return func(cfg *pushConfig) {
		if cfg.annotations == nil {
			cfg.annotations = make(map[string]string)
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
