package srcpack

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the frame header that marks a compressed manifest.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// manifestFileMode is the permission of manifests written by SaveToFile.
const manifestFileMode = 0o644

// Encode writes the manifest encoding of p to w.
func (p *Packaged) Encode(w io.Writer, opts ...SaveOption) error {
	cfg := saveConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return p.encode(w, cfg.compress)
}

func (p *Packaged) encode(w io.Writer, compress bool) error {
	if !compress {
		return encodeRecord(w, p.record())
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if err := encodeRecord(enc, p.record()); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish zstd frame: %w", err)
	}
	return nil
}

// SaveToFile writes the manifest to path.
//
// The file is written to a temporary sibling and renamed into place, so the
// destination is either fully written or left untouched. The parent
// directory must already exist.
func (p *Packaged) SaveToFile(path string, opts ...SaveOption) error {
	cfg := saveConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	compress := cfg.compress
	if !cfg.compressSet {
		compress = strings.HasSuffix(path, ".zst")
	}

	var buf bytes.Buffer
	if err := p.encode(&buf, compress); err != nil {
		return err
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	loggerOrDiscard(cfg.logger).Info("manifest saved",
		"path", path, "entries", len(p.entries), "bytes", buf.Len(), "compressed", compress)
	return nil
}

// writeFileAtomic writes data to a temp file then renames to target,
// ensuring atomic replacement of the target file.
func writeFileAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".srcpack-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(manifestFileMode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Decode reads a manifest from r. Zstd-compressed manifests are detected
// and decompressed transparently.
func Decode(r io.Reader, opts ...LoadOption) (*Packaged, error) {
	cfg := loadConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	data, err := readLimited(r, cfg.maxSize)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return decodeBytes(data, &cfg)
}

// FromFile loads a manifest from path.
func FromFile(path string, opts ...LoadOption) (*Packaged, error) {
	cfg := loadConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	data, err := readLimited(f, cfg.maxSize)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	p, err := decodeBytes(data, &cfg)
	if err != nil {
		return nil, err
	}
	loggerOrDiscard(cfg.logger).Info("manifest loaded",
		"path", path, "schema", string(p.version), "entries", len(p.entries))
	return p, nil
}

func decodeBytes(data []byte, cfg *loadConfig) (*Packaged, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		plain, err := decompress(data, cfg.maxSize)
		if err != nil {
			return nil, &MalformedManifestError{Reason: "invalid zstd frame", Err: err}
		}
		loggerOrDiscard(cfg.logger).Debug("decompressed manifest", "compressed", len(data), "size", len(plain))
		data = plain
	}

	if cfg.expected != "" {
		if err := cfg.expected.Validate(); err != nil {
			return nil, fmt.Errorf("expected digest %q: %w", cfg.expected, err)
		}
		if got := cfg.expected.Algorithm().FromBytes(data); got != cfg.expected {
			return nil, fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, cfg.expected, got)
		}
	}

	return Parse(data)
}

func decompress(data []byte, maxSize int64) ([]byte, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if maxSize > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(uint64(maxSize)))
	}
	dec, err := zstd.NewReader(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return readLimited(dec, maxSize)
}

// readLimited reads all of r, failing when more than maxSize bytes are
// available. A maxSize of zero disables the limit.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("manifest exceeds %d bytes", maxSize)
	}
	return data, nil
}
