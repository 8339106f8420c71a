package srcpack

import (
	"io/fs"
	"log/slog"

	"github.com/opencontainers/go-digest"
)

// discardLogger is used when no logger is configured.
var discardLogger = slog.New(slog.DiscardHandler)

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return discardLogger
	}
	return l
}

// PackOption configures FromFilesystem.
type PackOption func(*packConfig)

type packConfig struct {
	logger *slog.Logger
}

// PackWithLogger sets a logger for packing.
func PackWithLogger(logger *slog.Logger) PackOption {
	return func(cfg *packConfig) {
		cfg.logger = logger
	}
}

// SaveOption configures Encode and SaveToFile.
type SaveOption func(*saveConfig)

type saveConfig struct {
	compress    bool
	compressSet bool
	logger      *slog.Logger
}

// SaveWithCompression controls whether the manifest is written as a zstd
// frame. When unset, SaveToFile compresses destinations ending in ".zst"
// and Encode writes plain JSON.
func SaveWithCompression(enabled bool) SaveOption {
	return func(cfg *saveConfig) {
		cfg.compress = enabled
		cfg.compressSet = true
	}
}

// SaveWithLogger sets a logger for saving.
func SaveWithLogger(logger *slog.Logger) SaveOption {
	return func(cfg *saveConfig) {
		cfg.logger = logger
	}
}

// LoadOption configures Decode and FromFile.
type LoadOption func(*loadConfig)

type loadConfig struct {
	expected digest.Digest
	maxSize  int64
	logger   *slog.Logger
}

// LoadWithExpectedDigest verifies the uncompressed manifest bytes against d.
// A mismatch fails with ErrDigestMismatch.
func LoadWithExpectedDigest(d digest.Digest) LoadOption {
	return func(cfg *loadConfig) {
		cfg.expected = d
	}
}

// LoadWithMaxSize limits the uncompressed manifest size in bytes.
// Zero disables the limit.
func LoadWithMaxSize(n int64) LoadOption {
	return func(cfg *loadConfig) {
		cfg.maxSize = n
	}
}

// LoadWithLogger sets a logger for loading.
func LoadWithLogger(logger *slog.Logger) LoadOption {
	return func(cfg *loadConfig) {
		cfg.logger = logger
	}
}

// UnwrapOption configures UnwrapToFilesystem.
type UnwrapOption func(*unwrapConfig)

// DefaultFileMode is the permission applied to unpacked files.
const DefaultFileMode fs.FileMode = 0o644

type unwrapConfig struct {
	fileMode fs.FileMode
	logger   *slog.Logger
}

// UnwrapWithFileMode sets the permission bits of written files.
func UnwrapWithFileMode(mode fs.FileMode) UnwrapOption {
	return func(cfg *unwrapConfig) {
		cfg.fileMode = mode.Perm()
	}
}

// UnwrapWithLogger sets a logger for unpacking.
func UnwrapWithLogger(logger *slog.Logger) UnwrapOption {
	return func(cfg *unwrapConfig) {
		cfg.logger = logger
	}
}
