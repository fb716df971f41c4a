package manifest

import "fmt"

// Op is the kind of change applied to the tree.
type Op int

const (
	OpAdd Op = iota
	OpRemove
	OpMove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpMove:
		return "move"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Mutation describes one add, remove or move.
//
//   - add:    Path is inserted under the folder whose logical path equals
//     TargetFolder.
//   - remove: every File with path OldPath is stripped.
//   - move:   OldPath is stripped and Path is inserted under the first folder
//     (pre-order) whose name equals the last segment of Path's directory.
type Mutation struct {
	Op           Op
	Path         string
	OldPath      string
	TargetFolder string
}

// Outcome reports how Apply placed the file.
type Outcome struct {
	Handled bool
	// FallbackRoot is set when a move found no destination folder and the
	// file was appended to the top-level tree instead.
	FallbackRoot bool
	// Removed counts File nodes stripped for OldPath.
	Removed int
}

// Apply runs mu against m in memory. An add whose target folder is missing
// returns *TargetNotFoundError and leaves m unchanged.
func Apply(m *Manifest, mu Mutation) (Outcome, error) {
	mu.Path = Normalize(mu.Path)
	mu.OldPath = Normalize(mu.OldPath)

	var out Outcome
	if (mu.Op == OpRemove || mu.Op == OpMove) && mu.OldPath != "" {
		m.Tree, out.Removed = removeFile(m.Tree, mu.OldPath)
	}
	if mu.Op == OpRemove {
		out.Handled = true
		return out, nil
	}

	if insert(m.Tree, mu, "") {
		out.Handled = true
		return out, nil
	}

	switch mu.Op {
	case OpMove:
		if !hasFile(m.Tree, mu.Path) {
			m.Tree = append(m.Tree, &File{Path: mu.Path})
		}
		out.FallbackRoot = true
		return out, nil
	default:
		return out, &TargetNotFoundError{Folder: mu.TargetFolder}
	}
}

// insert walks folders in pre-order looking for the destination of mu and
// appends the file there. It stops at the first match.
func insert(nodes []Node, mu Mutation, parent string) bool {
	for _, n := range nodes {
		f, ok := n.(*Folder)
		if !ok {
			continue
		}
		folderPath := joinFolderPath(parent, f.Name)
		if matches(f, folderPath, mu) {
			if !hasFile(f.Children, mu.Path) {
				f.Children = append(f.Children, &File{Path: mu.Path})
			}
			return true
		}
		if len(f.Children) > 0 && insert(f.Children, mu, folderPath) {
			return true
		}
	}
	return false
}

func matches(f *Folder, folderPath string, mu Mutation) bool {
	switch mu.Op {
	case OpAdd:
		return folderPath == mu.TargetFolder
	case OpMove:
		// Name-only match: the caller knows the physical destination
		// directory, not its place in the manifest.
		name := parentName(mu.Path)
		return name != "" && f.Name == name
	}
	return false
}

func removeFile(nodes []Node, p string) ([]Node, int) {
	return RemoveFiles(nodes, map[string]struct{}{p: {}})
}

// RemoveFiles strips every File whose path is in paths, at every depth.
// Folders are kept even when emptied.
func RemoveFiles(nodes []Node, paths map[string]struct{}) ([]Node, int) {
	removed := 0
	kept := nodes[:0]
	for _, n := range nodes {
		switch n := n.(type) {
		case *File:
			if _, ok := paths[Normalize(n.Path)]; ok {
				removed++
				continue
			}
		case *Folder:
			var r int
			n.Children, r = RemoveFiles(n.Children, paths)
			removed += r
		}
		kept = append(kept, n)
	}
	return kept, removed
}

func hasFile(nodes []Node, p string) bool {
	for _, n := range nodes {
		if f, ok := n.(*File); ok && Normalize(f.Path) == p {
			return true
		}
	}
	return false
}

// Update loads the manifest, applies mu and saves it. Nothing is written when
// Apply fails.
func Update(s *Store, mu Mutation) (Outcome, error) {
	m, err := s.Load()
	if err != nil {
		return Outcome{}, err
	}
	out, err := Apply(m, mu)
	if err != nil {
		return out, err
	}
	if err := s.Save(m); err != nil {
		return out, err
	}
	return out, nil
}
