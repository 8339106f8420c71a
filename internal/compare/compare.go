// Package compare checks two build output trees for equivalence.
//
// Reproducible builds from a project directory and from its packaged source
// must produce the same artifacts. Dirs hashes every file of both trees and
// reports which paths are missing on either side and which differ.
package compare

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"unicode/utf8"

	"github.com/opencontainers/go-digest"
	difflib "github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"
)

// DefaultSkipExtensions lists file extensions ignored by default. Archives
// embed timestamps and are not byte-reproducible.
var DefaultSkipExtensions = []string{".zip"}

// Report is the outcome of a comparison. All lists hold slash-separated
// paths relative to the compared roots, sorted.
type Report struct {
	OnlyInA   []string
	OnlyInB   []string
	Differ    []string
	Identical []string

	// Diffs holds unified diffs for differing text files when requested
	// with WithDiff.
	Diffs map[string]string
}

// Equal reports whether both trees hold the same files with the same content.
func (r *Report) Equal() bool {
	return len(r.OnlyInA) == 0 && len(r.OnlyInB) == 0 && len(r.Differ) == 0
}

// Option configures Dirs.
type Option func(*config)

type config struct {
	skip         []string
	workers      int
	diffMaxBytes int
	logger       *slog.Logger
}

// WithSkipExtensions replaces the ignored file extensions.
func WithSkipExtensions(exts ...string) Option {
	return func(c *config) {
		c.skip = exts
	}
}

// WithWorkers bounds the number of files hashed concurrently.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithDiff records unified diffs for differing text files whose combined
// size is at most maxBytes.
func WithDiff(maxBytes int) Option {
	return func(c *config) {
		c.diffMaxBytes = maxBytes
	}
}

// WithLogger sets a logger for the comparison.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Dirs compares the regular files under a and b.
func Dirs(ctx context.Context, a, b string, opts ...Option) (*Report, error) {
	cfg := config{
		skip:    DefaultSkipExtensions,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	filesA, err := list(a, cfg.skip)
	if err != nil {
		return nil, err
	}
	filesB, err := list(b, cfg.skip)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var common []string
	for _, p := range filesA {
		if _, ok := slices.BinarySearch(filesB, p); ok {
			common = append(common, p)
		} else {
			report.OnlyInA = append(report.OnlyInA, p)
		}
	}
	for _, p := range filesB {
		if _, ok := slices.BinarySearch(filesA, p); !ok {
			report.OnlyInB = append(report.OnlyInB, p)
		}
	}

	same := make([]bool, len(common))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i, p := range common {
		g.Go(func() error {
			da, err := hashFile(gctx, filepath.Join(a, filepath.FromSlash(p)))
			if err != nil {
				return err
			}
			db, err := hashFile(gctx, filepath.Join(b, filepath.FromSlash(p)))
			if err != nil {
				return err
			}
			same[i] = da == db
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, p := range common {
		if same[i] {
			report.Identical = append(report.Identical, p)
		} else {
			report.Differ = append(report.Differ, p)
		}
	}

	if cfg.diffMaxBytes > 0 && len(report.Differ) > 0 {
		report.Diffs, err = diffs(a, b, report.Differ, cfg.diffMaxBytes)
		if err != nil {
			return nil, err
		}
	}

	log.Info("compared output trees",
		"a", a, "b", b,
		"identical", len(report.Identical),
		"differ", len(report.Differ),
		"only_in_a", len(report.OnlyInA),
		"only_in_b", len(report.OnlyInB),
	)
	return report, nil
}

// list returns the sorted relative paths of regular files under root.
func list(root string, skip []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if slices.Contains(skip, filepath.Ext(p)) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}

func hashFile(ctx context.Context, p string) (digest.Digest, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", p, err)
	}
	return d, nil
}

func diffs(a, b string, paths []string, maxBytes int) (map[string]string, error) {
	out := make(map[string]string)
	for _, p := range paths {
		left, err := os.ReadFile(filepath.Join(a, filepath.FromSlash(p)))
		if err != nil {
			return nil, err
		}
		right, err := os.ReadFile(filepath.Join(b, filepath.FromSlash(p)))
		if err != nil {
			return nil, err
		}
		if len(left)+len(right) > maxBytes || isBinary(left) || isBinary(right) {
			continue
		}
		s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(left)),
			B:        difflib.SplitLines(string(right)),
			FromFile: "a/" + p,
			ToFile:   "b/" + p,
			Context:  3,
		})
		if err != nil {
			return nil, fmt.Errorf("diff %s: %w", p, err)
		}
		out[p] = s
	}
	return out, nil
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data)
}
