// Package fileops performs the physical side of manifest operations. Every
// path it accepts is relative to a project root and is rejected when it
// escapes that root.
package fileops

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/otiai10/copy"
)

type Root struct {
	Dir string
}

func New(dir string) *Root {
	return &Root{Dir: dir}
}

// Abs resolves a root-relative, slash-separated path.
func (r *Root) Abs(rel string) (string, error) {
	return SafeJoin(r.Dir, filepath.FromSlash(rel))
}

func (r *Root) Exists(rel string) bool {
	p, err := r.Abs(rel)
	if err != nil {
		return false
	}
	_, err = os.Lstat(p)
	return err == nil
}

// IsDir reports whether rel is an existing directory. The empty path is the
// root itself.
func (r *Root) IsDir(rel string) bool {
	p, err := r.Abs(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// Move relocates src to dst, creating dst's parent. A plain rename is tried
// first; across devices it falls back to copy and remove.
func (r *Root) Move(src, dst string) error {
	srcPath, dstPath, err := r.pair(src, dst)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return err
	}
	if err := os.Rename(srcPath, dstPath); err == nil {
		return nil
	}
	return move(srcPath, dstPath)
}

func move(src, dst string) error {
	// Copy file OR directory to destination
	if err := copy.Copy(src, dst, copy.Options{PreserveTimes: true}); err != nil {
		return err
	}

	// Remove source file OR directory after successful copy
	return os.RemoveAll(src)
}

// Import moves a file from outside the root, such as a finished upload, to
// dst under the root.
func (r *Root) Import(src, dst string) error {
	dstPath, err := r.Abs(dst)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(dstPath); err == nil {
		return &ExistsError{Path: dst}
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dstPath); err == nil {
		return nil
	}
	return move(src, dstPath)
}

// Copy duplicates src at dst, keeping modification times.
func (r *Root) Copy(src, dst string) error {
	srcPath, dstPath, err := r.pair(src, dst)
	if err != nil {
		return err
	}
	return copy.Copy(srcPath, dstPath, copy.Options{
		PreserveTimes: true,
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Shallow
		},
	})
}

// Delete removes a single file. A missing file returns an error matching
// fs.ErrNotExist.
func (r *Root) Delete(rel string) error {
	p, err := r.Abs(rel)
	if err != nil {
		return err
	}
	info, err := os.Lstat(p)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "delete", Path: rel, Err: errors.New("is a directory")}
	}
	return os.Remove(p)
}

// Rename gives rel a new base name in the same directory and returns the new
// root-relative path. An extension-less newName keeps the old extension.
func (r *Root) Rename(rel, newName string) (string, error) {
	if err := ValidateName(newName); err != nil {
		return "", err
	}
	newName = WithExtension(path.Base(rel), newName)
	dst := path.Join(path.Dir(rel), newName)
	if dst == rel {
		return dst, nil
	}

	oldPath, newPath, err := r.pair(rel, dst)
	if err != nil {
		return "", err
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", err
	}
	return dst, nil
}

// Mkdir creates rel and its parents. It reports false when the directory
// was already there.
func (r *Root) Mkdir(rel string) (bool, error) {
	p, err := r.Abs(rel)
	if err != nil {
		return false, err
	}
	if info, err := os.Stat(p); err == nil {
		if !info.IsDir() {
			return false, &ExistsError{Path: rel}
		}
		return false, nil
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return false, err
	}
	return true, nil
}

// RenameDir renames the directory oldRel to newRel.
func (r *Root) RenameDir(oldRel, newRel string) error {
	oldPath, newPath, err := r.pair(oldRel, newRel)
	if err != nil {
		return err
	}
	info, err := os.Stat(oldPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "rename", Path: oldRel, Err: errors.New("not a directory")}
	}
	return os.Rename(oldPath, newPath)
}

// pair resolves a source that must exist and a destination that must not.
func (r *Root) pair(src, dst string) (string, string, error) {
	srcPath, err := r.Abs(src)
	if err != nil {
		return "", "", err
	}
	dstPath, err := r.Abs(dst)
	if err != nil {
		return "", "", err
	}
	if _, err := os.Lstat(srcPath); err != nil {
		return "", "", err
	}
	if _, err := os.Lstat(dstPath); err == nil {
		return "", "", &ExistsError{Path: dst}
	}
	return srcPath, dstPath, nil
}
