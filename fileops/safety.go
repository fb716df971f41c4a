package fileops

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateName checks that name is a single path segment: not empty, not
// "." or "..", no separators.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &InvalidNameError{Name: name, Reason: "empty name"}
	}
	if name == "." || name == ".." {
		return &InvalidNameError{Name: name, Reason: "reserved name"}
	}
	if strings.ContainsAny(name, `/\`) {
		return &InvalidNameError{Name: name, Reason: "name cannot contain path separators"}
	}
	return nil
}

// SafeJoin joins root and parts and makes sure the result stays inside root.
func SafeJoin(root string, parts ...string) (string, error) {
	p := filepath.Join(append([]string{root}, parts...)...)
	cleanRoot := filepath.Clean(root)
	cleanP := filepath.Clean(p)

	rel, err := filepath.Rel(cleanRoot, cleanP)
	if err != nil {
		return "", err
	}
	relSl := filepath.ToSlash(rel)
	if relSl == ".." || strings.HasPrefix(relSl, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return cleanP, nil
}

// WithExtension keeps the extension of oldName when newName has none.
func WithExtension(oldName, newName string) string {
	if filepath.Ext(newName) != "" {
		return newName
	}
	return newName + filepath.Ext(oldName)
}
