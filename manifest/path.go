package manifest

import (
	"path"
	"strings"
)

// Normalize converts p to the slash-separated, cleaned form used for File
// paths and comparison keys. Two spellings of the same root-relative file
// normalize to the same string.
func Normalize(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}

// parentName returns the last segment of the directory holding p, or "" when
// p sits at the root.
func parentName(p string) string {
	dir := path.Dir(Normalize(p))
	if dir == "." || dir == "/" {
		return ""
	}
	return path.Base(dir)
}

func joinFolderPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
