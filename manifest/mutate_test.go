package manifest

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Manifest {
	return &Manifest{ProjectName: "demo", Tree: []Node{
		&Folder{Name: "Assets", Icon: DefaultIcon, Children: []Node{
			&Folder{Name: "Images", Icon: DefaultIcon, Children: []Node{
				&File{Path: "assets/images/a.jpg"},
			}},
			&File{Path: "assets/readme.md"},
		}},
		&Folder{Name: "Docs", Icon: DefaultIcon},
		&File{Path: "index.html"},
	}}
}

func TestApplyAdd(t *testing.T) {
	m := sampleTree()
	before := FilePaths(m.Tree)
	assert.NotContains(t, before, "assets/images/b.jpg")

	out, err := Apply(m, Mutation{Op: OpAdd, Path: "assets/images/b.jpg", TargetFolder: "Assets/Images"})
	require.NoError(t, err)
	assert.True(t, out.Handled)

	after := FilePaths(m.Tree)
	assert.Contains(t, after, "assets/images/b.jpg")
	assert.Len(t, after, len(before)+1)

	images := FindFolder(m.Tree, "Assets/Images")
	require.NotNil(t, images)
	assert.Len(t, images.Children, 2)
}

func TestApplyAddIsIdempotent(t *testing.T) {
	m := sampleTree()
	mu := Mutation{Op: OpAdd, Path: "docs/guide.md", TargetFolder: "Docs"}

	_, err := Apply(m, mu)
	require.NoError(t, err)
	once := FilePaths(m.Tree)

	out, err := Apply(m, mu)
	require.NoError(t, err)
	assert.True(t, out.Handled)
	assert.Equal(t, once, FilePaths(m.Tree))
	assert.Len(t, FindFolder(m.Tree, "Docs").Children, 1)
}

func TestApplyAddMissingTarget(t *testing.T) {
	m := sampleTree()
	_, err := Apply(m, Mutation{Op: OpAdd, Path: "new/file.txt", TargetFolder: "Images"})

	// "Images" only exists nested under Assets; add matches full logical paths.
	var notFound *TargetNotFoundError
	require.True(t, errors.As(err, &notFound), "got %v", err)
	assert.Equal(t, "Images", notFound.Folder)
	assert.NotContains(t, FilePaths(m.Tree), "new/file.txt")
}

func TestApplyRemoveAtAnyDepth(t *testing.T) {
	m := sampleTree()
	m.Tree = append(m.Tree, &File{Path: "assets/images/a.jpg"})

	out, err := Apply(m, Mutation{Op: OpRemove, OldPath: "assets/images/a.jpg"})
	require.NoError(t, err)
	assert.True(t, out.Handled)
	assert.Equal(t, 2, out.Removed)
	assert.NotContains(t, FilePaths(m.Tree), "assets/images/a.jpg")
	assert.NotNil(t, FindFolder(m.Tree, "Assets/Images"), "emptied folders stay")
}

func TestApplyRemoveMissingPath(t *testing.T) {
	m := sampleTree()
	before := FilePaths(m.Tree)

	out, err := Apply(m, Mutation{Op: OpRemove, OldPath: "nope.txt"})
	require.NoError(t, err)
	assert.True(t, out.Handled)
	assert.Zero(t, out.Removed)
	assert.Equal(t, before, FilePaths(m.Tree))
}

func TestApplyMoveMatchesFolderNameAtAnyDepth(t *testing.T) {
	m := &Manifest{Tree: []Node{
		&Folder{Name: "a", Children: []Node{&File{Path: "a/file.txt"}}},
		&Folder{Name: "x", Children: []Node{
			&Folder{Name: "y", Children: []Node{
				&Folder{Name: "b"},
			}},
		}},
	}}

	out, err := Apply(m, Mutation{Op: OpMove, Path: "b/file.txt", OldPath: "a/file.txt"})
	require.NoError(t, err)
	assert.True(t, out.Handled)
	assert.False(t, out.FallbackRoot)

	b := FindFolder(m.Tree, "x/y/b")
	require.NotNil(t, b)
	require.Len(t, b.Children, 1)
	assert.Equal(t, "b/file.txt", b.Children[0].(*File).Path)
	assert.Empty(t, FindFolder(m.Tree, "a").Children)
}

func TestApplyMoveFirstMatchWins(t *testing.T) {
	m := &Manifest{Tree: []Node{
		&Folder{Name: "outer", Children: []Node{
			&Folder{Name: "shared"},
		}},
		&Folder{Name: "shared"},
	}}

	_, err := Apply(m, Mutation{Op: OpMove, Path: "somewhere/shared/f.txt", OldPath: "f.txt"})
	require.NoError(t, err)

	assert.Len(t, FindFolder(m.Tree, "outer/shared").Children, 1)
	assert.Empty(t, m.Tree[1].(*Folder).Children)
}

func TestApplyRenameInsideSameFolder(t *testing.T) {
	m := &Manifest{Tree: []Node{
		&Folder{Name: "images", Children: []Node{&File{Path: "images/a.jpg"}}},
	}}

	_, err := Apply(m, Mutation{Op: OpMove, Path: "images/b.jpg", OldPath: "images/a.jpg"})
	require.NoError(t, err)

	images := FindFolder(m.Tree, "images")
	require.Len(t, images.Children, 1)
	assert.Equal(t, "images/b.jpg", images.Children[0].(*File).Path)
}

func TestApplyMoveFallsBackToRoot(t *testing.T) {
	m := sampleTree()

	out, err := Apply(m, Mutation{Op: OpMove, Path: "elsewhere/a.jpg", OldPath: "assets/images/a.jpg"})
	require.NoError(t, err)
	assert.False(t, out.Handled)
	assert.True(t, out.FallbackRoot)

	last, ok := m.Tree[len(m.Tree)-1].(*File)
	require.True(t, ok)
	assert.Equal(t, "elsewhere/a.jpg", last.Path)
	assert.NotContains(t, FilePaths(m.Tree), "assets/images/a.jpg")
}

func TestApplyMoveToRootLevelFile(t *testing.T) {
	m := sampleTree()

	out, err := Apply(m, Mutation{Op: OpMove, Path: "top.txt", OldPath: "assets/readme.md"})
	require.NoError(t, err)
	assert.True(t, out.FallbackRoot)
	assert.Contains(t, FilePaths(m.Tree), "top.txt")
}

func TestApplyNormalizesPaths(t *testing.T) {
	m := sampleTree()
	_, err := Apply(m, Mutation{Op: OpAdd, Path: `.\docs\guide.md`, TargetFolder: "Docs"})
	require.NoError(t, err)
	assert.Contains(t, FilePaths(m.Tree), "docs/guide.md")
}

func TestUpdatePersistsOnSuccess(t *testing.T) {
	s := newMemStore(t, sampleManifest)

	out, err := Update(s, Mutation{Op: OpAdd, Path: "images/c.jpg", TargetFolder: "Images"})
	require.NoError(t, err)
	assert.True(t, out.Handled)

	m, err := s.Load()
	require.NoError(t, err)
	assert.Contains(t, FilePaths(m.Tree), "images/c.jpg")
}

func TestUpdateAddToMissingFolderLeavesFileUntouched(t *testing.T) {
	s := newMemStore(t, sampleManifest)
	before, err := afero.ReadFile(s.Fs, s.Path)
	require.NoError(t, err)

	_, err = Update(s, Mutation{Op: OpAdd, Path: "new/file.txt", TargetFolder: "Assets"})
	var notFound *TargetNotFoundError
	require.True(t, errors.As(err, &notFound), "got %v", err)

	after, err := afero.ReadFile(s.Fs, s.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateLoadError(t *testing.T) {
	s := newMemStore(t, "")
	_, err := Update(s, Mutation{Op: OpRemove, OldPath: "a"})
	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}
