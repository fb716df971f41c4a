package manifest

import (
	"errors"
	"fmt"
)

// ErrNothingToClean is returned when a drift cleanup finds no broken links.
var ErrNothingToClean = errors.New("nothing to clean")

// LoadError means the manifest is missing or could not be parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError means the manifest could not be written. The previous file on
// disk is left untouched.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// BackupError blocks a mutating operation before any other side effect.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup %s: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// TargetNotFoundError means the requested destination folder is not in the
// tree.
type TargetNotFoundError struct {
	Folder string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("destination folder %q not found", e.Folder)
}

// NameCollisionError reports a duplicate folder name or an existing
// destination path.
type NameCollisionError struct {
	Kind string // folder|file
	Name string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}
