package manifest

import "strings"

// FilePaths gathers the path of every File in nodes, at any depth.
func FilePaths(nodes []Node) map[string]struct{} {
	paths := make(map[string]struct{})
	collectFilePaths(nodes, paths)
	return paths
}

func collectFilePaths(nodes []Node, into map[string]struct{}) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *File:
			into[Normalize(n.Path)] = struct{}{}
		case *Folder:
			collectFilePaths(n.Children, into)
		}
	}
}

// FolderPaths returns the logical path of every Folder in pre-order: parents
// before children, siblings in tree order.
func FolderPaths(nodes []Node) []string {
	return collectFolderPaths(nodes, "", nil)
}

func collectFolderPaths(nodes []Node, parent string, out []string) []string {
	for _, n := range nodes {
		f, ok := n.(*Folder)
		if !ok {
			continue
		}
		p := joinFolderPath(parent, f.Name)
		out = append(out, p)
		out = collectFolderPaths(f.Children, p, out)
	}
	return out
}

// FindFolder resolves a logical folder path ("Assets/Images") to its Folder.
func FindFolder(nodes []Node, folderPath string) *Folder {
	folderPath = strings.Trim(folderPath, "/")
	if folderPath == "" {
		return nil
	}
	head, rest, _ := strings.Cut(folderPath, "/")
	for _, n := range nodes {
		f, ok := n.(*Folder)
		if !ok || f.Name != head {
			continue
		}
		if rest == "" {
			return f
		}
		if found := FindFolder(f.Children, rest); found != nil {
			return found
		}
	}
	return nil
}

// CountFolders returns how many Folders the tree holds.
func CountFolders(nodes []Node) int {
	return len(FolderPaths(nodes))
}

// HasFolder reports whether a sibling in nodes is a Folder named name.
func HasFolder(nodes []Node, name string) bool {
	for _, n := range nodes {
		if f, ok := n.(*Folder); ok && f.Name == name {
			return true
		}
	}
	return false
}
