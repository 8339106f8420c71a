package srcpack

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match these with errors.Is.
var (
	// ErrUnknownSchemaVersion is returned when a manifest carries an unrecognized schema tag.
	ErrUnknownSchemaVersion = errors.New("srcpack: unknown schema version")

	// ErrMalformedManifest is returned when a manifest is not structurally valid.
	ErrMalformedManifest = errors.New("srcpack: malformed manifest")

	// ErrContentDecode is returned when an entry's content is not valid base64.
	ErrContentDecode = errors.New("srcpack: invalid entry content")

	// ErrRead is returned when a file cannot be read.
	ErrRead = errors.New("srcpack: read failed")

	// ErrWrite is returned when a file cannot be written.
	ErrWrite = errors.New("srcpack: write failed")

	// ErrPathOutsideProject is returned when a packaged file is not under the project root.
	ErrPathOutsideProject = errors.New("srcpack: path outside project")

	// ErrInvalidEntry is returned when an entry is constructed from invalid values.
	ErrInvalidEntry = errors.New("srcpack: invalid entry")

	// ErrDigestMismatch is returned when a loaded manifest does not match its expected digest.
	ErrDigestMismatch = errors.New("srcpack: digest mismatch")
)

// UnknownSchemaVersionError names the schema tag that could not be resolved.
type UnknownSchemaVersionError struct {
	Version string
}

func (e *UnknownSchemaVersionError) Error() string {
	return fmt.Sprintf("srcpack: unknown schema version: %q", e.Version)
}

// Is reports whether target is ErrUnknownSchemaVersion.
func (e *UnknownSchemaVersionError) Is(target error) bool {
	return target == ErrUnknownSchemaVersion
}

// MalformedManifestError describes why a manifest could not be interpreted.
type MalformedManifestError struct {
	// Reason is a short description of the structural problem.
	Reason string
	// Err is the underlying decode error, if any.
	Err error
}

func (e *MalformedManifestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("srcpack: malformed manifest: %s: %v", e.Reason, e.Err)
	}
	return "srcpack: malformed manifest: " + e.Reason
}

// Is reports whether target is ErrMalformedManifest.
func (e *MalformedManifestError) Is(target error) bool {
	return target == ErrMalformedManifest
}

func (e *MalformedManifestError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return &MalformedManifestError{Reason: fmt.Sprintf(format, args...)}
}

// ContentDecodeError reports an entry whose content framing is invalid.
type ContentDecodeError struct {
	Path string
	Err  error
}

func (e *ContentDecodeError) Error() string {
	return fmt.Sprintf("srcpack: invalid content for %q: %v", e.Path, e.Err)
}

// Is reports whether target is ErrContentDecode.
func (e *ContentDecodeError) Is(target error) bool {
	return target == ErrContentDecode
}

func (e *ContentDecodeError) Unwrap() error {
	return e.Err
}

// ReadError reports a filesystem read failure.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("srcpack: read %s: %v", e.Path, e.Err)
}

// Is reports whether target is ErrRead.
func (e *ReadError) Is(target error) bool {
	return target == ErrRead
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// WriteError reports a filesystem write failure.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("srcpack: write %s: %v", e.Path, e.Err)
}

// Is reports whether target is ErrWrite.
func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// PathOutsideProjectError reports a file that does not live under the project root.
type PathOutsideProjectError struct {
	Path string
	Root string
}

func (e *PathOutsideProjectError) Error() string {
	return fmt.Sprintf("srcpack: %s is not under project root %s", e.Path, e.Root)
}

// Is reports whether target is ErrPathOutsideProject.
func (e *PathOutsideProjectError) Is(target error) bool {
	return target == ErrPathOutsideProject
}
