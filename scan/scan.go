package scan

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/spf13/afero"
)

// ScanDirConcurrent lists everything under root on fsys, skipping excluded
// directory and file names. Directories are read by a pool of workers. Only
// the root directory must be readable; unreadable subdirectories come back
// without children.
func ScanDirConcurrent(fsys afero.Fs, root string, ex Exclusions, concurrency int, spinner *ProgressSpinner) (*FileData, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency()
	}
	w := &walker{
		fsys:    fsys,
		root:    root,
		ex:      ex,
		spinner: spinner,
		dirs:    make(chan *FileData),
	}

	top := newRootFileData()
	if err := w.list(top); err != nil {
		return nil, err
	}

	var workers sync.WaitGroup
	for range concurrency {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for dir := range w.dirs {
				// Subdirectory errors leave dir empty.
				_ = w.list(dir)
				if spinner != nil {
					spinner.DirDone()
				}
				w.pending.Done()
			}
		}()
	}

	w.pending.Wait()
	close(w.dirs)
	workers.Wait()
	return top, nil
}

func DefaultConcurrency() int {
	return min(runtime.GOMAXPROCS(0), runtime.NumCPU())
}

type walker struct {
	fsys    afero.Fs
	root    string
	ex      Exclusions
	spinner *ProgressSpinner

	dirs    chan *FileData
	pending sync.WaitGroup
}

func (w *walker) abs(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

// list reads dir's entries into dir.Children and queues its subdirectories.
func (w *walker) list(dir *FileData) error {
	entries, err := afero.ReadDir(w.fsys, w.abs(dir.Path))
	if err != nil {
		return err
	}
	if w.spinner != nil {
		w.spinner.Found(len(entries))
	}

	children := make([]*FileData, 0, len(entries))
	for _, entry := range entries {
		child, ok := w.entry(dir, entry)
		if !ok {
			continue
		}
		if child.IsDir {
			w.enqueue(child)
		}
		children = append(children, child)
	}
	dir.Children = children
	return nil
}

// entry converts one listing entry. Excluded names, special files and links
// that do not resolve to a regular file are dropped. Linked directories are
// not followed.
func (w *walker) entry(dir *FileData, entry os.FileInfo) (*FileData, bool) {
	name := entry.Name()
	mode := entry.Mode()
	isDir := entry.IsDir()
	isLink := mode&os.ModeSymlink != 0

	if isDir && w.ex.SkipDir(name) || !isDir && w.ex.SkipFile(name) {
		return nil, false
	}

	size := entry.Size()
	switch {
	case isLink:
		info, err := w.fsys.Stat(w.abs(dir.Path + "/" + name))
		if err != nil || !info.Mode().IsRegular() {
			return nil, false
		}
		size = info.Size()
	case isDir:
		size = -1
	case !mode.IsRegular():
		return nil, false
	}
	return newFileData(dir, name, isDir, isLink, size), true
}

// enqueue hands dir to a worker without blocking the caller, which may be a
// worker itself.
func (w *walker) enqueue(dir *FileData) {
	w.pending.Add(1)
	go func() { w.dirs <- dir }()
}
