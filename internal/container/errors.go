package container

import (
	"errors"
	"fmt"
)

var (
	// ErrOutputNotEmpty is returned when the output directory already has entries.
	ErrOutputNotEmpty = errors.New("container: output directory must be empty")

	// ErrInvalidRequest is returned when a build request is incomplete.
	ErrInvalidRequest = errors.New("container: invalid build request")

	// ErrUnsupportedEngine is returned for engines other than docker and podman.
	ErrUnsupportedEngine = errors.New("container: unsupported engine")
)

// OutputNotEmptyError reports the offending output directory.
type OutputNotEmptyError struct {
	Dir     string
	Entries int
}

func (e *OutputNotEmptyError) Error() string {
	return fmt.Sprintf("container: output directory must be empty: %s (%d entries)", e.Dir, e.Entries)
}

// Is reports whether target matches ErrOutputNotEmpty.
func (e *OutputNotEmptyError) Is(target error) bool {
	return target == ErrOutputNotEmpty
}
