package registry

import "log/slog"

// PullOption configures a Pull operation.
type PullOption func(*pullConfig)

type pullConfig struct {
	// maxLayerSize limits the manifest layer size. A value <= 0 disables
	// the limit.
	maxLayerSize int64
	loadLogger   *slog.Logger
}

const defaultMaxLayerSize = 512 << 20 // 512 MiB

// WithMaxLayerSize sets the largest manifest layer Pull accepts, compressed
// and decompressed. Use a value <= 0 to disable the limit.
func WithMaxLayerSize(maxBytes int64) PullOption {
	return func(cfg *pullConfig) {
		cfg.maxLayerSize = maxBytes
	}
}

// WithDecodeLogger sets the logger passed to srcpack.Decode.
func WithDecodeLogger(logger *slog.Logger) PullOption {
	return func(cfg *pullConfig) {
		cfg.loadLogger = logger
	}
}
