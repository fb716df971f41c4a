package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// DefaultFileName is the manifest file name inside the project root.
const DefaultFileName = "manifest.json"

// BackupSuffix is appended to the manifest path for the backup copy.
const BackupSuffix = ".bak"

// Store reads and writes one manifest file.
type Store struct {
	Fs   afero.Fs
	Path string
}

// NewStore returns a Store over the OS filesystem.
func NewStore(path string) *Store {
	return &Store{Fs: afero.NewOsFs(), Path: path}
}

// BackupPath is where Backup copies the manifest.
func (s *Store) BackupPath() string {
	return s.Path + BackupSuffix
}

// Exists reports whether the manifest file is present.
func (s *Store) Exists() bool {
	ok, err := afero.Exists(s.Fs, s.Path)
	return err == nil && ok
}

func (s *Store) Load() (*Manifest, error) {
	b, err := afero.ReadFile(s.Fs, s.Path)
	if err != nil {
		return nil, &LoadError{Path: s.Path, Err: err}
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, &LoadError{Path: s.Path, Err: err}
	}
	return &m, nil
}

// Save canonicalizes the children of every folder and rewrites the file
// through a temp file + rename, so a failed write never truncates the
// previous manifest.
func (s *Store) Save(m *Manifest) error {
	SortTree(m.Tree)

	b, err := Encode(m)
	if err != nil {
		return &SaveError{Path: s.Path, Err: err}
	}
	if err := s.atomicWrite(s.Path, b); err != nil {
		return &SaveError{Path: s.Path, Err: err}
	}
	return nil
}

// Encode renders m exactly as Save writes it: two-space indent, no HTML
// escaping.
func Encode(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.toWire()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Backup copies the manifest byte-for-byte to BackupPath. The manifest must
// already exist.
func (s *Store) Backup() error {
	b, err := afero.ReadFile(s.Fs, s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &BackupError{Path: s.Path, Err: errors.New("manifest not found")}
		}
		return &BackupError{Path: s.Path, Err: err}
	}
	if err := s.atomicWrite(s.BackupPath(), b); err != nil {
		return &BackupError{Path: s.Path, Err: err}
	}
	return nil
}

// Init writes an empty manifest when none exists. It reports whether a file
// was created.
func (s *Store) Init(projectName string) (bool, error) {
	if s.Exists() {
		return false, nil
	}
	if err := s.Fs.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return false, &SaveError{Path: s.Path, Err: err}
	}
	if err := s.Save(&Manifest{ProjectName: projectName, Tree: []Node{}}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) atomicWrite(path string, b []byte) error {
	f, err := afero.TempFile(s.Fs, filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = s.Fs.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = s.Fs.Chmod(tmp, 0o644)
	return s.Fs.Rename(tmp, path)
}

// SortTree orders the children of every folder: folders before files,
// folders by name and files by path. The top-level order is kept.
func SortTree(nodes []Node) {
	for _, n := range nodes {
		if f, ok := n.(*Folder); ok {
			sortChildren(f)
		}
	}
}

func sortChildren(f *Folder) {
	sort.SliceStable(f.Children, func(i, j int) bool {
		ai, ak := sortKey(f.Children[i])
		bi, bk := sortKey(f.Children[j])
		if ai != bi {
			return ai < bi
		}
		return ak < bk
	})
	for _, c := range f.Children {
		if cf, ok := c.(*Folder); ok {
			sortChildren(cf)
		}
	}
}

func sortKey(n Node) (int, string) {
	switch n := n.(type) {
	case *Folder:
		return 0, n.Name
	case *File:
		return 1, n.Path
	}
	return 2, ""
}
