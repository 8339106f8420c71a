package srcpack

import "encoding/json"

// SchemaVersion identifies a manifest layout.
type SchemaVersion string

// Recognized schema versions.
const (
	// SchemaVersionLegacy carries top-level name and version fields. It is
	// only ever read.
	SchemaVersionLegacy SchemaVersion = "1.0.0"

	// SchemaVersionCurrent carries a free-form metadata object.
	SchemaVersionCurrent SchemaVersion = "2.0.0"
)

// Defaults applied to legacy manifests that omit name or version.
const (
	DefaultProjectName    = "untitled"
	DefaultProjectVersion = "0.0.0"
)

// Metadata is free-form project metadata such as name and version.
type Metadata map[string]any

// Clone returns a deep copy of m. Nested objects and arrays are copied too.
// A nil map clones to an empty one.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	return cloneObject(m)
}

func cloneObject(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneObject(v)
	case Metadata:
		return Metadata(cloneObject(v))
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Name returns the "name" key when it holds a string.
func (m Metadata) Name() (string, bool) {
	s, ok := m["name"].(string)
	return s, ok
}

// ProjectVersion returns the "version" key when it holds a string.
func (m Metadata) ProjectVersion() (string, bool) {
	s, ok := m["version"].(string)
	return s, ok
}

// metadataShape is one historical way of carrying metadata in a manifest.
type metadataShape interface {
	metadata() Metadata
}

// legacyMetadata is the "1.0.0" shape: optional top-level name and version.
type legacyMetadata struct {
	name    *string
	version *string
}

func (l legacyMetadata) metadata() Metadata {
	name, version := DefaultProjectName, DefaultProjectVersion
	if l.name != nil {
		name = *l.name
	}
	if l.version != nil {
		version = *l.version
	}
	return Metadata{"name": name, "version": version}
}

// structuredMetadata is the "2.0.0" shape: a metadata object taken verbatim.
type structuredMetadata struct {
	fields map[string]any
}

func (s structuredMetadata) metadata() Metadata {
	return Metadata(s.fields).Clone()
}

// resolveSchema determines the schema version of a decoded manifest object
// and extracts its metadata shape.
//
// A manifest without a schemaVersion key is treated as legacy.
func resolveSchema(fields map[string]json.RawMessage) (SchemaVersion, metadataShape, error) {
	version := SchemaVersionLegacy
	if raw, ok := fields["schemaVersion"]; ok {
		var tag string
		if err := json.Unmarshal(raw, &tag); err != nil {
			return "", nil, &MalformedManifestError{Reason: "schemaVersion must be a string", Err: err}
		}
		version = SchemaVersion(tag)
	}

	switch version {
	case SchemaVersionLegacy:
		shape, err := decodeLegacyMetadata(fields)
		return version, shape, err
	case SchemaVersionCurrent:
		shape, err := decodeStructuredMetadata(fields)
		return version, shape, err
	default:
		return "", nil, &UnknownSchemaVersionError{Version: string(version)}
	}
}

func decodeLegacyMetadata(fields map[string]json.RawMessage) (metadataShape, error) {
	var shape legacyMetadata
	var err error
	if shape.name, err = optionalString(fields, "name"); err != nil {
		return nil, err
	}
	if shape.version, err = optionalString(fields, "version"); err != nil {
		return nil, err
	}
	return shape, nil
}

func decodeStructuredMetadata(fields map[string]json.RawMessage) (metadataShape, error) {
	raw, ok := fields["metadata"]
	if !ok || isNull(raw) {
		return structuredMetadata{fields: map[string]any{}}, nil
	}
	var m map[string]any
	if err := decodeJSON(raw, &m); err != nil {
		return nil, &MalformedManifestError{Reason: "metadata must be an object", Err: err}
	}
	return structuredMetadata{fields: m}, nil
}

func optionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &MalformedManifestError{Reason: key + " must be a string", Err: err}
	}
	return &s, nil
}
