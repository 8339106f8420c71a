package srcpack

import (
	"os"
	"path"
	"path/filepath"
)

// UnwrapToFilesystem writes every entry under destRoot.
//
// Missing directories are created and existing files at entry paths are
// overwritten. Files under destRoot that are not in the manifest are left
// alone. Writes go through an os.Root scoped to destRoot, so no entry can
// escape it. A failure part way through leaves the entries written so far
// in place.
func (p *Packaged) UnwrapToFilesystem(destRoot string, opts ...UnwrapOption) error {
	cfg := unwrapConfig{fileMode: DefaultFileMode}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := loggerOrDiscard(cfg.logger)

	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return &WriteError{Path: destRoot, Err: err}
	}
	root, err := os.OpenRoot(destRoot)
	if err != nil {
		return &WriteError{Path: destRoot, Err: err}
	}
	defer root.Close()

	log.Info("unpacking source", "dest", destRoot, "entries", len(p.entries))
	for _, e := range p.entries {
		name := filepath.FromSlash(e.path)
		if dir := path.Dir(e.path); dir != "." {
			if err := root.MkdirAll(filepath.FromSlash(dir), 0o755); err != nil {
				return &WriteError{Path: filepath.Join(destRoot, name), Err: err}
			}
		}
		if err := root.WriteFile(name, e.content, cfg.fileMode); err != nil {
			return &WriteError{Path: filepath.Join(destRoot, name), Err: err}
		}
		log.Debug("unpacked file", "path", e.path, "size", len(e.content))
	}
	return nil
}
