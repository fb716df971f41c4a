package scan

import (
	"path"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"asset-manifest/manifest"
)

// Exclusions are base-name patterns (path.Match syntax) ignored by the
// walk. Dirs apply at any depth and prune the whole subtree.
type Exclusions struct {
	Dirs  []string
	Files []string
}

// DefaultExclusions skips VCS and template directories plus the tool's own
// bookkeeping files. Extra file names are appended to the defaults.
func DefaultExclusions(extraFiles ...string) Exclusions {
	files := []string{
		manifest.DefaultFileName,
		manifest.DefaultFileName + manifest.BackupSuffix,
	}
	return Exclusions{
		Dirs:  []string{".git", "templates", "__pycache__"},
		Files: append(files, extraFiles...),
	}
}

func (e Exclusions) SkipDir(name string) bool  { return matchAny(e.Dirs, name) }
func (e Exclusions) SkipFile(name string) bool { return matchAny(e.Files, name) }

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if p == name {
			return true
		}
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Report is the read-only result of comparing a manifest to the disk.
type Report struct {
	BrokenLinks    []string `json:"broken_links"`
	UntrackedFiles []string `json:"untracked_files"`
	// UntrackedSize is the combined size in bytes of UntrackedFiles.
	UntrackedSize int64 `json:"untracked_size"`
}

// Clean reports whether the manifest and the disk agree.
func (r Report) Clean() bool {
	return len(r.BrokenLinks) == 0 && len(r.UntrackedFiles) == 0
}

// Scanner compares manifests against one project root.
type Scanner struct {
	Fs          afero.Fs
	Root        string
	Exclusions  Exclusions
	Concurrency int
	// Progress, when set, is fed by the directory walk.
	Progress *ProgressSpinner
}

// Untracked returns every regular file under the root whose normalized
// relative path is not in tracked, sorted.
func (s *Scanner) Untracked(tracked map[string]struct{}) ([]string, error) {
	untracked, _, err := s.untracked(tracked)
	return untracked, err
}

func (s *Scanner) untracked(tracked map[string]struct{}) ([]string, int64, error) {
	top, err := ScanDirConcurrent(s.Fs, s.Root, s.Exclusions, s.Concurrency, s.Progress)
	if err != nil {
		return nil, 0, err
	}
	untracked := []string{}
	var size int64
	top.eachFile(func(f *FileData) {
		p := manifest.Normalize(f.Path)
		if _, ok := tracked[p]; ok {
			return
		}
		untracked = append(untracked, p)
		if n := f.Size(); n > 0 {
			size += n
		}
	})
	sort.Strings(untracked)
	return untracked, size, nil
}

// BrokenLinks returns the tracked paths with no regular file on disk,
// sorted.
func (s *Scanner) BrokenLinks(tracked map[string]struct{}) []string {
	broken := []string{}
	for p := range tracked {
		info, err := s.Fs.Stat(filepath.Join(s.Root, filepath.FromSlash(p)))
		if err != nil || !info.Mode().IsRegular() {
			broken = append(broken, p)
		}
	}
	sort.Strings(broken)
	return broken
}

// Analyze reports drift for m without modifying anything.
func (s *Scanner) Analyze(m *manifest.Manifest) (Report, error) {
	tracked := manifest.FilePaths(m.Tree)
	untracked, size, err := s.untracked(tracked)
	if err != nil {
		return Report{}, err
	}
	return Report{
		BrokenLinks:    s.BrokenLinks(tracked),
		UntrackedFiles: untracked,
		UntrackedSize:  size,
	}, nil
}

func FindUntracked(fsys afero.Fs, root string, tracked map[string]struct{}, ex Exclusions) ([]string, error) {
	s := &Scanner{Fs: fsys, Root: root, Exclusions: ex}
	return s.Untracked(tracked)
}

func FindBrokenLinks(fsys afero.Fs, root string, tracked map[string]struct{}) []string {
	s := &Scanner{Fs: fsys, Root: root}
	return s.BrokenLinks(tracked)
}

func Analyze(fsys afero.Fs, root string, m *manifest.Manifest, ex Exclusions) (Report, error) {
	s := &Scanner{Fs: fsys, Root: root, Exclusions: ex}
	return s.Analyze(m)
}

// Cleanup strips every File whose path is in broken, at any depth, and
// returns how many nodes were removed. Folders are never removed.
func Cleanup(m *manifest.Manifest, broken []string) int {
	if len(broken) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(broken))
	for _, p := range broken {
		set[manifest.Normalize(p)] = struct{}{}
	}
	var removed int
	m.Tree, removed = manifest.RemoveFiles(m.Tree, set)
	return removed
}
