package scan

import (
	"fmt"
	"path"
	"strings"
)

// FileData is one entry found by the scanner. Path is relative to the scan
// root and slash-separated.
type FileData struct {
	Parent     *FileData   `json:"-"` // Don't serialize parent to avoid cycles
	Path       string      `json:"path"`
	IsDir      bool        `json:"isDir"`
	IsLink     bool        `json:"isLink"`
	CachedSize int64       `json:"size"`
	Children   []*FileData `json:"children,omitempty"`
}

func newRootFileData() *FileData {
	return &FileData{IsDir: true, CachedSize: -1}
}

func newFileData(parent *FileData, name string, isDir bool, isLink bool, size int64) *FileData {
	return &FileData{
		Parent:     parent,
		Path:       path.Join(parent.Path, name),
		IsDir:      isDir,
		IsLink:     isLink,
		CachedSize: size,
	}
}

// Size is the file size, or the sum of all descendants for a directory.
func (d *FileData) Size() int64 {
	if d.CachedSize != -1 {
		return d.CachedSize
	}

	var s int64
	for _, f := range d.Children {
		if f.CachedSize == -1 && !f.IsDir {
			continue
		}
		s += f.Size()
	}
	d.CachedSize = s
	return s
}

// FindByPath only descends into children that are on the way to target.
func (d *FileData) FindByPath(target string) *FileData {
	if d.Path == target {
		return d
	}

	// Compare with a trailing "/" so "a/b" is not a prefix of "a/bc".
	for _, child := range d.Children {
		if strings.HasPrefix(target+"/", child.Path+"/") {
			return child.FindByPath(target)
		}
	}
	return nil
}

// Files returns the paths of every non-directory entry below d.
func (d *FileData) Files() []string {
	var out []string
	d.eachFile(func(f *FileData) { out = append(out, f.Path) })
	return out
}

func (d *FileData) eachFile(fn func(*FileData)) {
	for _, c := range d.Children {
		if c.IsDir {
			c.eachFile(fn)
			continue
		}
		fn(c)
	}
}

// ToHumanSize formats a byte count for display. Unknown sizes (-1) print as
// "-".
func ToHumanSize(size int64) string {
	if size < 0 {
		return "-"
	}
	units := []string{" B", "KB", "MB", "GB", "TB"}
	if size < 1024 {
		return fmt.Sprintf("%d %s", size, units[0])
	}
	f := float64(size)
	i := 0
	for f >= 1024 && i < len(units)-1 {
		f /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", f, units[i])
}
