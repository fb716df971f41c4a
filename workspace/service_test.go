package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"

	"asset-manifest/journal"
	"asset-manifest/logging"
	"asset-manifest/manifest"
	"asset-manifest/scan"
)

type fixture struct {
	svc  *Service
	root string
	logs *observer.ObservedLogs
	jrnl *journal.DB
}

// newFixture writes files under a temp root and saves tree as the manifest.
// A nil tree leaves the manifest absent.
func newFixture(t *testing.T, tree []manifest.Node, files ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o644))
	}
	if tree != nil {
		s := manifest.NewStore(filepath.Join(root, manifest.DefaultFileName))
		require.NoError(t, s.Save(&manifest.Manifest{ProjectName: "demo", Tree: tree}))
	}

	j, err := journal.Open(filepath.Join(root, journal.DefaultFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	logger, logs := logging.NewTestLogger()
	svc := New(Options{
		Root:       root,
		Exclusions: scan.DefaultExclusions(journal.DefaultFileName),
		Journal:    j,
		Metrics:    NewMetrics(prometheus.NewRegistry()),
		Logger:     logger,
	})
	return &fixture{svc: svc, root: root, logs: logs, jrnl: j}
}

func (f *fixture) load(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := f.svc.Tree()
	require.NoError(t, err)
	return m
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(rel)))
	return err == nil
}

func (f *fixture) manifestBytes(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile(f.svc.ManifestPath())
	require.NoError(t, err)
	return b
}

func folder(name string, children ...manifest.Node) *manifest.Folder {
	if children == nil {
		children = []manifest.Node{}
	}
	return &manifest.Folder{Name: name, Icon: manifest.DefaultIcon, Children: children}
}

func file(p string) *manifest.File {
	return &manifest.File{Path: p}
}

func TestAddFiles(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("Docs")}, "docs/a.md", "docs/b.md")

	r := f.svc.AddFiles([]string{"docs/a.md", " ", `docs\b.md`}, "Docs")
	assert.Equal(t, LevelSuccess, r.Level)
	assert.Equal(t, 2, r.Processed)
	assert.Equal(t, "2 file(s) added to 'Docs'.", r.Message)

	docs := manifest.FindFolder(f.load(t).Tree, "Docs")
	require.Len(t, docs.Children, 2)
	assert.True(t, f.exists("manifest.json.bak"))

	entries, err := f.svc.History(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "add", entries[0].Action)
	assert.Equal(t, "Docs", entries[0].Dest)
	assert.Equal(t, []string{"docs/a.md", "docs/b.md"}, entries[0].Sources)
}

func TestAddFilesRequiresSelection(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("Docs")})

	assert.Equal(t, LevelWarning, f.svc.AddFiles(nil, "Docs").Level)
	assert.Equal(t, LevelWarning, f.svc.AddFiles([]string{"a.md"}, "").Level)
	assert.False(t, f.exists("manifest.json.bak"), "no backup for rejected input")
}

func TestAddFilesToMissingFolderLeavesManifestUnchanged(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("Images")}, "new/file.txt")
	before := f.manifestBytes(t)

	r := f.svc.AddFiles([]string{"new/file.txt"}, "Assets")
	assert.Equal(t, LevelError, r.Level)
	assert.Zero(t, r.Processed)
	assert.Contains(t, r.Message, `"Assets" not found`)
	assert.Equal(t, before, f.manifestBytes(t))
}

func TestDeleteFilesCountsMissingFilesAsProcessed(t *testing.T) {
	f := newFixture(t, []manifest.Node{
		folder("Images", file("images/a.jpg"), file("images/b.jpg"), file("images/c.jpg")),
	}, "images/a.jpg", "images/b.jpg")

	r := f.svc.DeleteFiles([]string{"images/a.jpg", "images/b.jpg", "images/c.jpg"})
	assert.Equal(t, LevelSuccess, r.Level)
	assert.Equal(t, 3, r.Processed)
	assert.Len(t, r.Notes, 1)
	assert.Contains(t, r.Notes[0], "images/c.jpg")

	assert.False(t, f.exists("images/a.jpg"))
	assert.False(t, f.exists("images/b.jpg"))
	assert.Empty(t, manifest.FilePaths(f.load(t).Tree))
	assert.NotNil(t, manifest.FindFolder(f.load(t).Tree, "Images"))
}

func TestDeleteFilesAbortsWithoutManifest(t *testing.T) {
	f := newFixture(t, nil, "keep.txt")

	r := f.svc.DeleteFiles([]string{"keep.txt"})
	assert.Equal(t, LevelError, r.Level)
	assert.Contains(t, r.Message, "manifest not found")
	assert.True(t, f.exists("keep.txt"))
}

func TestMoveFilesToNestedFolderByName(t *testing.T) {
	f := newFixture(t, []manifest.Node{
		folder("a", file("a/file.txt")),
		folder("x", folder("y", folder("b"))),
	}, "a/file.txt")

	r := f.svc.MoveFiles([]string{"a/file.txt"}, "b")
	assert.Equal(t, LevelSuccess, r.Level, r.Notes)
	assert.Equal(t, 1, r.Processed)

	assert.True(t, f.exists("b/file.txt"))
	assert.False(t, f.exists("a/file.txt"))
	m := f.load(t)
	b := manifest.FindFolder(m.Tree, "x/y/b")
	require.Len(t, b.Children, 1)
	assert.Equal(t, "b/file.txt", b.Children[0].(*manifest.File).Path)
	assert.Empty(t, manifest.FindFolder(m.Tree, "a").Children)
}

func TestMoveFilesSkipsExistingDestination(t *testing.T) {
	f := newFixture(t, []manifest.Node{
		folder("a", file("a/one.txt"), file("a/two.txt")),
		folder("b", file("b/one.txt")),
	}, "a/one.txt", "a/two.txt", "b/one.txt")

	r := f.svc.MoveFiles([]string{"a/one.txt", "a/two.txt"}, "b")
	assert.Equal(t, LevelWarning, r.Level)
	assert.Equal(t, 1, r.Processed)
	require.Len(t, r.Failures, 1)
	assert.Contains(t, r.Failures[0], "already exists")
	assert.True(t, f.exists("a/one.txt"))
	assert.True(t, f.exists("b/two.txt"))
}

func TestMoveFilesFallsBackToTopLevel(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("Images", file("images/a.jpg"))}, "images/a.jpg")

	r := f.svc.MoveFiles([]string{"images/a.jpg"}, "archive")
	assert.Equal(t, LevelWarning, r.Level)
	assert.Equal(t, 1, r.Processed)
	require.Len(t, r.Notes, 1)
	assert.Contains(t, r.Notes[0], "No folder named 'archive'")

	m := f.load(t)
	last := m.Tree[len(m.Tree)-1].(*manifest.File)
	assert.Equal(t, "archive/a.jpg", last.Path)
	assert.NotEmpty(t, f.logs.FilterMessage("destination folder not found, file added at top level").All())
}

func TestCopyFiles(t *testing.T) {
	f := newFixture(t, []manifest.Node{
		folder("src", file("src/a.txt")),
		folder("dst"),
	}, "src/a.txt", "dst/.keep")

	r := f.svc.CopyFiles([]string{"src/a.txt"}, "dst")
	assert.Equal(t, LevelSuccess, r.Level)
	assert.True(t, f.exists("src/a.txt"))
	assert.True(t, f.exists("dst/a.txt"))
	assert.Contains(t, manifest.FilePaths(f.load(t).Tree), "dst/a.txt")
	assert.Contains(t, manifest.FilePaths(f.load(t).Tree), "src/a.txt")
}

func TestCopyFilesUntrackedWhenFolderPathDiffers(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("Images")}, "a.jpg")

	r := f.svc.CopyFiles([]string{"a.jpg"}, "images")
	assert.Equal(t, LevelWarning, r.Level)
	assert.Equal(t, 1, r.Processed)
	assert.True(t, f.exists("images/a.jpg"))
	assert.NotContains(t, manifest.FilePaths(f.load(t).Tree), "images/a.jpg")

	report, err := f.svc.Analyze()
	require.NoError(t, err)
	assert.Contains(t, report.UntrackedFiles, "images/a.jpg")
}

func TestRenameFileKeepsExtension(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("images", file("images/a.jpg"))}, "images/a.jpg", "images/taken.jpg")

	r := f.svc.RenameFile("images/a.jpg", "cover")
	assert.Equal(t, LevelSuccess, r.Level, r.Message)
	assert.Equal(t, "File renamed to 'cover.jpg'.", r.Message)
	assert.True(t, f.exists("images/cover.jpg"))

	images := manifest.FindFolder(f.load(t).Tree, "images")
	require.Len(t, images.Children, 1)
	assert.Equal(t, "images/cover.jpg", images.Children[0].(*manifest.File).Path)

	r = f.svc.RenameFile("images/cover.jpg", "taken")
	assert.Equal(t, LevelError, r.Level)
	assert.True(t, f.exists("images/cover.jpg"))

	r = f.svc.RenameFile("images/cover.jpg", "../escape")
	assert.Equal(t, LevelError, r.Level)
}

func TestCreateFolder(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("Docs")})

	r := f.svc.CreateFolder("Media", "", "", true)
	assert.Equal(t, LevelSuccess, r.Level)
	assert.Equal(t, []string{"Directory 'Media' created."}, r.Notes)
	assert.True(t, f.exists("Media"))

	m := f.load(t)
	media := manifest.FindFolder(m.Tree, "Media")
	require.NotNil(t, media)
	assert.Equal(t, manifest.DefaultIcon, media.Icon)

	r = f.svc.CreateFolder("Media", "fas fa-film", "", false)
	assert.Equal(t, LevelWarning, r.Level)
	assert.Equal(t, `folder "Media" already exists`, r.Message)

	r = f.svc.CreateFolder("Clips", "fas fa-film", "Media", false)
	assert.Equal(t, LevelSuccess, r.Level)
	assert.Equal(t, "fas fa-film", manifest.FindFolder(f.load(t).Tree, "Media/Clips").Icon)

	assert.Equal(t, LevelError, f.svc.CreateFolder("", "", "", false).Level)
	assert.Equal(t, LevelError, f.svc.CreateFolder("x", "", "Nope", false).Level)
}

func TestRenameFolderPhysical(t *testing.T) {
	f := newFixture(t, []manifest.Node{
		&manifest.Folder{Name: "Images", Icon: "fas fa-image", Children: []manifest.Node{
			file("Images/a.jpg"),
			folder("Sub", file("Images/sub/b.jpg")),
			file("elsewhere/Images/c.jpg"),
		}},
		folder("Docs"),
	}, "Images/a.jpg", "Images/sub/b.jpg")

	r := f.svc.RenameFolder("Images", "Pictures", "", true)
	assert.Equal(t, LevelSuccess, r.Level, r.Message)
	assert.True(t, f.exists("Pictures/a.jpg"))
	assert.False(t, f.exists("Images"))

	m := f.load(t)
	pics := manifest.FindFolder(m.Tree, "Pictures")
	require.NotNil(t, pics)
	assert.Equal(t, "fas fa-image", pics.Icon)
	assert.Equal(t, map[string]struct{}{
		"Pictures/a.jpg":         {},
		"Pictures/sub/b.jpg":     {},
		"elsewhere/Images/c.jpg": {},
	}, manifest.FilePaths(pics.Children))

	r = f.svc.RenameFolder("Pictures", "Docs", "", false)
	assert.Equal(t, LevelError, r.Level)
	assert.Equal(t, LevelError, f.svc.RenameFolder("Missing", "X", "", false).Level)
}

func TestRenameFolderNested(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("A", folder("B"), folder("C"))})

	r := f.svc.RenameFolder("A/B", "D", "fas fa-star", false)
	assert.Equal(t, LevelSuccess, r.Level)
	d := manifest.FindFolder(f.load(t).Tree, "A/D")
	require.NotNil(t, d)
	assert.Equal(t, "fas fa-star", d.Icon)

	assert.Equal(t, LevelError, f.svc.RenameFolder("A/D", "C", "", false).Level)
}

func TestCleanup(t *testing.T) {
	f := newFixture(t, []manifest.Node{
		folder("Images", file("images/a.jpg"), file("images/kept.jpg")),
	}, "images/kept.jpg")

	r := f.svc.Cleanup()
	assert.Equal(t, LevelSuccess, r.Level)
	assert.Equal(t, 1, r.Processed)
	assert.Equal(t, map[string]struct{}{"images/kept.jpg": {}}, manifest.FilePaths(f.load(t).Tree))
	assert.NotNil(t, manifest.FindFolder(f.load(t).Tree, "Images"))
}

func TestCleanupNothingToClean(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("Images", file("images/a.jpg"))}, "images/a.jpg")
	before := f.manifestBytes(t)

	r := f.svc.Cleanup()
	assert.Equal(t, LevelInfo, r.Level)
	assert.Contains(t, r.Message, "nothing to clean")
	assert.Equal(t, before, f.manifestBytes(t))
	assert.False(t, f.exists("manifest.json.bak"))
}

func TestSnapshotAndMetrics(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("Images", file("images/gone.jpg"))}, "docs/readme.md")

	snap, err := f.svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "demo", snap.ProjectName)
	assert.Equal(t, []string{"Images"}, snap.Folders)
	assert.Equal(t, []string{"docs/readme.md"}, snap.UntrackedFiles)
	assert.Equal(t, []string{"images/gone.jpg"}, snap.BrokenLinks)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.BrokenLinks))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.UntrackedFiles))

	f.svc.Cleanup()
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.OperationsTotal.WithLabelValues("cleanup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.ItemsTotal.WithLabelValues("cleanup", "processed")))
}

func TestUpload(t *testing.T) {
	f := newFixture(t, []manifest.Node{folder("Uploads")})
	tmp := filepath.Join(t.TempDir(), "chunk")
	require.NoError(t, os.WriteFile(tmp, []byte("payload"), 0o644))

	r := f.svc.Upload(tmp, "uploads", "photo.png", "Uploads")
	assert.Equal(t, LevelSuccess, r.Level, r.Message)
	assert.True(t, f.exists("uploads/photo.png"))
	assert.Contains(t, manifest.FilePaths(f.load(t).Tree), "uploads/photo.png")

	r = f.svc.Upload(tmp, "uploads", "../evil.png", "")
	assert.Equal(t, LevelError, r.Level)
}

func TestInit(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, LevelSuccess, f.svc.Init("Fresh").Level)
	assert.Equal(t, "Fresh", f.load(t).ProjectName)
	assert.Equal(t, LevelInfo, f.svc.Init("Again").Level)
}

func TestFolderFiles(t *testing.T) {
	f := newFixture(t, []manifest.Node{
		folder("A", file("a/2.txt"), folder("B", file("a/b/1.txt"))),
		file("top.txt"),
	})

	files, err := f.svc.FolderFiles("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/2.txt", "a/b/1.txt"}, files)

	_, err = f.svc.FolderFiles("Z")
	assert.Error(t, err)
}

func TestRewritePrefix(t *testing.T) {
	nodes := []manifest.Node{
		file("old/a.txt"),
		folder("x", file("old/x/b.txt"), file("older/c.txt")),
	}
	assert.Equal(t, 2, rewritePrefix(nodes, "old/", "new/"))
	assert.Equal(t, map[string]struct{}{
		"new/a.txt":   {},
		"new/x/b.txt": {},
		"older/c.txt": {},
	}, manifest.FilePaths(nodes))
}
