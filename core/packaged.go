package srcpack

import (
	"fmt"
	"slices"

	"github.com/opencontainers/go-digest"
)

// Packaged is a packaged source tree: a schema version, free-form metadata,
// and entries in canonical order.
//
// A Packaged is immutable once built. Accessors return copies.
type Packaged struct {
	version  SchemaVersion
	metadata Metadata
	entries  []Entry
}

// New builds a Packaged tagged with the current schema version.
// Metadata and entries are copied; entries are sorted into canonical order.
func New(metadata Metadata, entries []Entry) *Packaged {
	return newPackaged(SchemaVersionCurrent, metadata.Clone(), slices.Clone(entries))
}

// newPackaged takes ownership of metadata and entries.
func newPackaged(version SchemaVersion, metadata Metadata, entries []Entry) *Packaged {
	if metadata == nil {
		metadata = Metadata{}
	}
	if entries == nil {
		entries = []Entry{}
	}
	SortEntries(entries)
	return &Packaged{version: version, metadata: metadata, entries: entries}
}

// FromFilesystem packages the given files from projectRoot.
//
// One entry is built per file, in the manner of NewEntryFromSource; no
// filtering or deduplication is applied. The result is tagged with the
// current schema version.
func FromFilesystem[F SourceFile](metadata Metadata, projectRoot string, files []F, opts ...PackOption) (*Packaged, error) {
	cfg := packConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := loggerOrDiscard(cfg.logger)
	log.Info("packaging source", "root", projectRoot, "file_count", len(files))

	entries := make([]Entry, 0, len(files))
	var total int
	for _, f := range files {
		e, err := NewEntryFromSource(projectRoot, f)
		if err != nil {
			return nil, err
		}
		log.Debug("packaged file", "path", e.path, "depth", e.depth, "size", len(e.content))
		total += len(e.content)
		entries = append(entries, e)
	}

	p := newPackaged(SchemaVersionCurrent, metadata.Clone(), entries)
	log.Debug("packaging complete", "entries", len(p.entries), "bytes", total)
	return p, nil
}

// Version returns the schema version the instance was built or loaded with.
func (p *Packaged) Version() SchemaVersion {
	return p.version
}

// Metadata returns a copy of the project metadata.
func (p *Packaged) Metadata() Metadata {
	return p.metadata.Clone()
}

// Entries returns the entries in canonical order.
func (p *Packaged) Entries() []Entry {
	return slices.Clone(p.entries)
}

// Len returns the number of entries.
func (p *Packaged) Len() int {
	return len(p.entries)
}

// Entry returns the entry with the given path.
func (p *Packaged) Entry(path string) (Entry, bool) {
	path = NormalizePath(path)
	for _, e := range p.entries {
		if e.path == path {
			return e, true
		}
	}
	return Entry{}, false
}

// TotalSize returns the summed content size of all entries.
func (p *Packaged) TotalSize() int64 {
	var n int64
	for _, e := range p.entries {
		n += int64(len(e.content))
	}
	return n
}

// Digest returns the sha256 digest of the uncompressed manifest encoding.
func (p *Packaged) Digest() (digest.Digest, error) {
	data, err := p.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("digest manifest: %w", err)
	}
	return digest.FromBytes(data), nil
}
