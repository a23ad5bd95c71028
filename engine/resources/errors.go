package resources

import (
	"errors"
	"fmt"
)

// ErrFileNotFound marks a FileLoadError caused by a missing file, as opposed
// to an underlying I/O failure.
var ErrFileNotFound = errors.New("file not found")

// FileLoadError is returned by ResourceIO implementations when reading a file
// fails. Missing files wrap ErrFileNotFound.
type FileLoadError struct {
	Path string
	Err  error
}

func (e *FileLoadError) Error() string {
	return fmt.Sprintf("failed to load file '%s': %v", e.Path, e.Err)
}

func (e *FileLoadError) Unwrap() error {
	return e.Err
}

// MissingSourceError is produced when a path names a source that was never
// registered with the manager.
type MissingSourceError struct {
	Source string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("no resource source registered with name '%s'", e.Source)
}

// NoLoaderError is produced when no registered loader claims a path's
// extension. It is committed synchronously as a load error, never returned to
// the caller of Load.
type NoLoaderError struct {
	Kind      ResourceKind
	Extension string
}

func (e *NoLoaderError) Error() string {
	return fmt.Sprintf("there is no resource loader for %s resource (extension %q)", e.Kind, e.Extension)
}
