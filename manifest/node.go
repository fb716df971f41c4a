package manifest

import (
	"encoding/json"
	"fmt"
)

const (
	typeFolder = "folder"
	typeFile   = "file"

	// DefaultIcon is used for folders created without an explicit icon.
	DefaultIcon = "fas fa-folder"
)

// Manifest is the persisted description of the curated asset tree.
type Manifest struct {
	ProjectName string
	Tree        []Node
}

// Node is either a *Folder or a *File.
type Node interface {
	isNode()
}

// Folder is a named container. Its logical path is derived from its
// ancestors and is never stored.
type Folder struct {
	Name     string
	Icon     string
	Children []Node
}

// File is a leaf identified solely by its normalized, root-relative path.
type File struct {
	Path string
}

func (*Folder) isNode() {}
func (*File) isNode()   {}

// wireNode is the on-disk shape of a node. Pointer fields keep files free of
// folder keys while still writing "children": [] for an emptied folder.
type wireNode struct {
	Type     string      `json:"type"`
	Name     *string     `json:"name,omitempty"`
	Icon     *string     `json:"icon,omitempty"`
	Children *[]wireNode `json:"children,omitempty"`
	Path     *string     `json:"path,omitempty"`
}

type wireManifest struct {
	ProjectName string     `json:"project_name"`
	Tree        []wireNode `json:"tree"`
}

func (m *Manifest) toWire() wireManifest {
	return wireManifest{ProjectName: m.ProjectName, Tree: toWire(m.Tree)}
}

func toWire(nodes []Node) []wireNode {
	out := make([]wireNode, 0, len(nodes))
	for _, n := range nodes {
		switch n := n.(type) {
		case *Folder:
			name, icon := n.Name, n.Icon
			children := toWire(n.Children)
			out = append(out, wireNode{Type: typeFolder, Name: &name, Icon: &icon, Children: &children})
		case *File:
			p := n.Path
			out = append(out, wireNode{Type: typeFile, Path: &p})
		}
	}
	return out
}

func fromWire(ws []wireNode) ([]Node, error) {
	nodes := make([]Node, 0, len(ws))
	for _, w := range ws {
		switch w.Type {
		case typeFolder:
			f := &Folder{Name: deref(w.Name), Icon: deref(w.Icon)}
			if w.Children != nil {
				children, err := fromWire(*w.Children)
				if err != nil {
					return nil, err
				}
				f.Children = children
			}
			nodes = append(nodes, f)
		case typeFile:
			nodes = append(nodes, &File{Path: deref(w.Path)})
		default:
			return nil, fmt.Errorf("unknown node type %q", w.Type)
		}
	}
	return nodes, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (m *Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toWire())
}

func (m *Manifest) UnmarshalJSON(b []byte) error {
	var w wireManifest
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	tree, err := fromWire(w.Tree)
	if err != nil {
		return err
	}
	m.ProjectName = w.ProjectName
	m.Tree = tree
	return nil
}

// MarshalJSON lets a bare node (for example a subtree returned by an API)
// encode with the same shape as in the manifest file.
func (f *Folder) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire([]Node{f})[0])
}

func (f *File) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire([]Node{f})[0])
}
