package workspace

import (
	"path"
	"strings"
	"time"

	"asset-manifest/fileops"
	"asset-manifest/manifest"
)

// CreateFolder adds an empty folder at the top level, or inside parent when
// parent names an existing folder. With physical set the matching directory
// (parent/name under the root) is created too.
func (s *Service) CreateFolder(name, icon, parent string, physical bool) Result {
	start := time.Now()
	name = strings.TrimSpace(name)
	parent = strings.Trim(parent, "/")
	dest := path.Join(parent, name)
	if name == "" {
		return s.finish("create-folder", start, nil, dest, errorResult("Folder name cannot be empty."))
	}
	if err := fileops.ValidateName(name); err != nil {
		return s.finish("create-folder", start, nil, dest, errorResult("%v", err))
	}
	if icon == "" {
		icon = manifest.DefaultIcon
	}

	m, err := s.store.Load()
	if err != nil {
		return s.finish("create-folder", start, nil, dest, errorResult("%v", err))
	}
	siblings := &m.Tree
	if parent != "" {
		pf := manifest.FindFolder(m.Tree, parent)
		if pf == nil {
			return s.finish("create-folder", start, nil, dest, errorResult("%v", &manifest.TargetNotFoundError{Folder: parent}))
		}
		siblings = &pf.Children
	}
	if manifest.HasFolder(*siblings, name) {
		return s.finish("create-folder", start, nil, dest, warningResult("%v", &manifest.NameCollisionError{Kind: "folder", Name: name}))
	}
	if err := s.store.Backup(); err != nil {
		return s.finish("create-folder", start, nil, dest, errorResult("%v", err))
	}

	var b batch
	if physical {
		created, err := s.files.Mkdir(dest)
		if err != nil {
			return s.finish("create-folder", start, nil, dest, errorResult("Failed to create directory '%s': %v", dest, err))
		}
		if created {
			b.note("Directory '%s' created.", dest)
		} else {
			b.note("Directory '%s' already exists.", dest)
		}
	}

	*siblings = append(*siblings, &manifest.Folder{Name: name, Icon: icon, Children: []manifest.Node{}})
	if err := s.store.Save(m); err != nil {
		return s.finish("create-folder", start, nil, dest, errorResult("%v", err))
	}
	b.ok()
	return s.finish("create-folder", start, nil, dest, b.result("Folder '%s' added.", name))
}

// RenameFolder renames the folder at folderPath and sets its icon. An empty
// icon keeps the current one. With physical set and a changed name, the
// directory folderPath under the root is renamed as well and every tracked
// path below the folder that starts with the old directory is rewritten.
func (s *Service) RenameFolder(folderPath, newName, icon string, physical bool) Result {
	start := time.Now()
	folderPath = strings.Trim(folderPath, "/")
	newName = strings.TrimSpace(newName)
	sources := []string{folderPath}
	if newName == "" {
		return s.finish("rename-folder", start, sources, newName, errorResult("New folder name cannot be empty."))
	}
	if err := fileops.ValidateName(newName); err != nil {
		return s.finish("rename-folder", start, sources, newName, errorResult("%v", err))
	}

	m, err := s.store.Load()
	if err != nil {
		return s.finish("rename-folder", start, sources, newName, errorResult("%v", err))
	}
	f := manifest.FindFolder(m.Tree, folderPath)
	if f == nil {
		return s.finish("rename-folder", start, sources, newName, errorResult("Folder '%s' not found.", folderPath))
	}
	parent := ""
	siblings := m.Tree
	if i := strings.LastIndex(folderPath, "/"); i >= 0 {
		parent = folderPath[:i]
		siblings = manifest.FindFolder(m.Tree, parent).Children
	}
	for _, n := range siblings {
		if other, ok := n.(*manifest.Folder); ok && other != f && other.Name == newName {
			return s.finish("rename-folder", start, sources, newName, errorResult("%v", &manifest.NameCollisionError{Kind: "folder", Name: newName}))
		}
	}
	if err := s.store.Backup(); err != nil {
		return s.finish("rename-folder", start, sources, newName, errorResult("%v", err))
	}

	var b batch
	newPath := path.Join(parent, newName)
	if physical && newName != f.Name {
		if err := s.files.RenameDir(folderPath, newPath); err != nil {
			return s.finish("rename-folder", start, sources, newPath, errorResult("Failed to rename directory '%s': %v", folderPath, err))
		}
		n := rewritePrefix(f.Children, folderPath+"/", newPath+"/")
		b.note("Directory '%s' renamed to '%s'; %d tracked path(s) updated.", folderPath, newPath, n)
	}

	old := f.Name
	f.Name = newName
	if icon != "" {
		f.Icon = icon
	}
	if err := s.store.Save(m); err != nil {
		return s.finish("rename-folder", start, sources, newPath, errorResult("%v", err))
	}
	b.ok()
	return s.finish("rename-folder", start, sources, newPath, b.result("Folder '%s' updated to '%s'.", old, newName))
}

// rewritePrefix replaces oldPrefix with newPrefix on every File below nodes
// whose path starts with oldPrefix, and returns how many changed.
func rewritePrefix(nodes []manifest.Node, oldPrefix, newPrefix string) int {
	n := 0
	for _, node := range nodes {
		switch node := node.(type) {
		case *manifest.File:
			p := manifest.Normalize(node.Path)
			if strings.HasPrefix(p, oldPrefix) {
				node.Path = newPrefix + strings.TrimPrefix(p, oldPrefix)
				n++
			}
		case *manifest.Folder:
			n += rewritePrefix(node.Children, oldPrefix, newPrefix)
		}
	}
	return n
}
