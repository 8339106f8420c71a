package srcpack

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// manifestRecord is the wire form written for every manifest.
type manifestRecord struct {
	SchemaVersion SchemaVersion `json:"schemaVersion"`
	Metadata      Metadata      `json:"metadata"`
	Entries       []entryRecord `json:"entries"`
}

// entryRecord is the wire form of one entry. An absent module is written as
// the empty string rather than omitted.
type entryRecord struct {
	Path            string `json:"path"`
	Content         string `json:"content"`
	Module          string `json:"module"`
	DependencyDepth int    `json:"dependencyDepth"`
	IsTestFile      bool   `json:"isTestFile"`
}

// Alternate key spellings accepted when loading.
const (
	legacyDepthKey    = "dependency_depth"
	legacyTestFileKey = "is_test_file"
)

// record builds the wire form of p. The schema tag is always the current
// version, even for instances loaded from legacy manifests.
func (p *Packaged) record() manifestRecord {
	entries := make([]entryRecord, len(p.entries))
	for i, e := range p.entries {
		entries[i] = entryRecord{
			Path:            e.path,
			Content:         base64.StdEncoding.EncodeToString(e.content),
			Module:          e.module,
			DependencyDepth: e.depth,
			IsTestFile:      e.testFile,
		}
	}
	return manifestRecord{
		SchemaVersion: SchemaVersionCurrent,
		Metadata:      p.metadata.Clone(),
		Entries:       entries,
	}
}

// MarshalJSON returns the manifest encoding of p.
func (p *Packaged) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeRecord(&buf, p.record()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeRecord writes rec as indented JSON without HTML escaping.
func encodeRecord(w io.Writer, rec manifestRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

// Parse decodes an uncompressed manifest.
//
// The schema version is resolved and metadata migrated before entries are
// interpreted. Entries are returned in canonical order regardless of their
// order in data.
func Parse(data []byte) (*Packaged, error) {
	var fields map[string]json.RawMessage
	if err := decodeJSON(data, &fields); err != nil {
		return nil, &MalformedManifestError{Reason: "manifest must be a JSON object", Err: err}
	}
	if fields == nil {
		return nil, malformed("manifest must be a JSON object")
	}

	version, shape, err := resolveSchema(fields)
	if err != nil {
		return nil, err
	}

	rawEntries, ok := fields["entries"]
	if !ok {
		return nil, malformed("missing entries")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawEntries, &items); err != nil || items == nil {
		return nil, &MalformedManifestError{Reason: "entries must be an array", Err: err}
	}

	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		e, err := decodeEntry(i, item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return newPackaged(version, shape.metadata(), entries), nil
}

func decodeEntry(index int, raw json.RawMessage) (Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Entry{}, &MalformedManifestError{Reason: fmt.Sprintf("entry %d must be an object", index), Err: err}
	}

	var rawPath, rawContent string
	if err := requiredField(fields, "path", index, &rawPath); err != nil {
		return Entry{}, err
	}
	if err := requiredField(fields, "content", index, &rawContent); err != nil {
		return Entry{}, err
	}

	e := Entry{
		path:  NormalizePath(rawPath),
		depth: UnboundedDepth,
	}
	if !validEntryPath(e.path) {
		return Entry{}, malformed("entry %d: invalid path %q", index, rawPath)
	}

	var module string
	if err := optionalField(fields, "module", index, &module); err != nil {
		return Entry{}, err
	}
	if module != "" {
		e.module = NormalizePath(module)
		e.hasModule = true
		if !validModulePath(e.module) {
			return Entry{}, malformed("entry %d: invalid module %q", index, module)
		}
	}

	if err := optionalField(fields, "dependencyDepth", index, &e.depth, legacyDepthKey); err != nil {
		return Entry{}, err
	}
	if e.depth < 0 {
		return Entry{}, malformed("entry %d: negative dependencyDepth %d", index, e.depth)
	}
	if err := optionalField(fields, "isTestFile", index, &e.testFile, legacyTestFileKey); err != nil {
		return Entry{}, err
	}

	content, err := base64.StdEncoding.DecodeString(rawContent)
	if err != nil {
		return Entry{}, &ContentDecodeError{Path: e.path, Err: err}
	}
	e.content = content
	return e, nil
}

// requiredField decodes fields[key] into v, failing when it is missing or null.
func requiredField(fields map[string]json.RawMessage, key string, index int, v any) error {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return malformed("entry %d: missing %s", index, key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &MalformedManifestError{Reason: fmt.Sprintf("entry %d: invalid %s", index, key), Err: err}
	}
	return nil
}

// optionalField decodes the first present, non-null key among key and
// fallbacks into v. v is left untouched when none is present.
func optionalField(fields map[string]json.RawMessage, key string, index int, v any, fallbacks ...string) error {
	for _, k := range append([]string{key}, fallbacks...) {
		raw, ok := fields[k]
		if !ok || isNull(raw) {
			continue
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return &MalformedManifestError{Reason: fmt.Sprintf("entry %d: invalid %s", index, k), Err: err}
		}
		return nil
	}
	return nil
}

// decodeJSON decodes a single JSON value from data, keeping numbers exact.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
