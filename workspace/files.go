package workspace

import (
	"errors"
	"io/fs"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"asset-manifest/fileops"
	"asset-manifest/manifest"
)

// AddFiles tracks untracked files under the folder whose logical path is
// target.
func (s *Service) AddFiles(paths []string, target string) Result {
	start := time.Now()
	paths = cleanPaths(paths)
	target = strings.Trim(target, "/")
	if len(paths) == 0 || target == "" {
		return s.finish("add", start, paths, target, warningResult("No files or destination folder selected."))
	}
	if err := s.store.Backup(); err != nil {
		return s.finish("add", start, paths, target, errorResult("%v", err))
	}

	var b batch
	for _, p := range paths {
		_, err := manifest.Update(s.store, manifest.Mutation{Op: manifest.OpAdd, Path: p, TargetFolder: target})
		if err != nil {
			b.fail("Failed to add %s: %v", p, err)
			continue
		}
		b.ok()
	}
	return s.finish("add", start, paths, target, b.result("%d file(s) added to '%s'.", b.processed, target))
}

// DeleteFiles removes files from disk and from the manifest. A file that is
// already gone from disk still has its manifest entry removed and counts as
// processed.
func (s *Service) DeleteFiles(paths []string) Result {
	start := time.Now()
	paths = cleanPaths(paths)
	if len(paths) == 0 {
		return s.finish("delete", start, paths, "", warningResult("No files selected."))
	}
	if err := s.store.Backup(); err != nil {
		return s.finish("delete", start, paths, "", errorResult("%v", err))
	}

	var b batch
	for _, p := range paths {
		if err := s.files.Delete(p); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				b.fail("Failed to delete %s: %v", p, err)
				continue
			}
			b.note("%s was already missing from disk.", p)
		}
		if _, err := manifest.Update(s.store, manifest.Mutation{Op: manifest.OpRemove, OldPath: p}); err != nil {
			b.fail("Deleted %s but could not update the manifest: %v", p, err)
			continue
		}
		b.ok()
	}
	return s.finish("delete", start, paths, "", b.result("%d file(s) deleted.", b.processed))
}

// MoveFiles moves each file into destDir, keeping its base name. An empty
// destDir is the project root.
func (s *Service) MoveFiles(paths []string, destDir string) Result {
	return s.transfer("move", paths, destDir)
}

// CopyFiles copies each file into destDir and tracks the copy under the
// folder whose logical path equals destDir.
func (s *Service) CopyFiles(paths []string, destDir string) Result {
	return s.transfer("copy", paths, destDir)
}

func (s *Service) transfer(op string, paths []string, destDir string) Result {
	start := time.Now()
	paths = cleanPaths(paths)
	destDir = manifest.Normalize(destDir)
	if len(paths) == 0 {
		return s.finish(op, start, paths, destDir, warningResult("No files selected."))
	}
	if err := s.store.Backup(); err != nil {
		return s.finish(op, start, paths, destDir, errorResult("%v", err))
	}

	var b batch
	for _, p := range paths {
		dst := path.Join(destDir, path.Base(p))
		if s.files.Exists(dst) {
			b.fail("%v. Skipping %s.", &manifest.NameCollisionError{Kind: "file", Name: dst}, p)
			continue
		}
		if op == "move" {
			s.moveOne(&b, p, dst)
		} else {
			s.copyOne(&b, p, dst, destDir)
		}
	}

	verb := map[string]string{"move": "moved", "copy": "copied"}[op]
	where := destDir
	if where == "" {
		where = "/"
	}
	return s.finish(op, start, paths, destDir, b.result("%d file(s) %s to '%s'.", b.processed, verb, where))
}

func (s *Service) moveOne(b *batch, src, dst string) {
	if err := s.files.Move(src, dst); err != nil {
		b.fail("Failed to move %s: %v", src, err)
		return
	}
	out, err := manifest.Update(s.store, manifest.Mutation{Op: manifest.OpMove, Path: dst, OldPath: src})
	if err != nil {
		b.fail("Moved %s but could not update the manifest: %v", src, err)
		return
	}
	s.noteFallback(b, out, dst)
	b.ok()
}

func (s *Service) copyOne(b *batch, src, dst, destDir string) {
	if err := s.files.Copy(src, dst); err != nil {
		b.fail("Failed to copy %s: %v", src, err)
		return
	}
	_, err := manifest.Update(s.store, manifest.Mutation{Op: manifest.OpAdd, Path: dst, TargetFolder: destDir})
	var notFound *manifest.TargetNotFoundError
	switch {
	case errors.As(err, &notFound):
		b.warn("Copied %s, but %v; the copy is untracked.", dst, err)
	case err != nil:
		b.fail("Copied %s but could not update the manifest: %v", src, err)
		return
	}
	b.ok()
}

// noteFallback warns when a file with a parent directory landed at the top
// level because no folder carries that directory's name.
func (s *Service) noteFallback(b *batch, out manifest.Outcome, dst string) {
	if !out.FallbackRoot || dirName(dst) == "" {
		return
	}
	s.log.Warn("destination folder not found, file added at top level",
		zap.String("path", dst), zap.String("folder", dirName(dst)))
	b.warn("No folder named '%s' in the manifest; %s was added at the top level.", dirName(dst), dst)
}

// RenameFile renames a file in place. When newName has no extension the old
// one is kept.
func (s *Service) RenameFile(p, newName string) Result {
	start := time.Now()
	p = manifest.Normalize(p)
	newName = strings.TrimSpace(newName)
	sources := []string{p}
	if p == "" || newName == "" {
		return s.finish("rename", start, sources, newName, warningResult("Select a file and a new name."))
	}
	if err := fileops.ValidateName(newName); err != nil {
		return s.finish("rename", start, sources, newName, errorResult("%v", err))
	}
	dst := path.Join(path.Dir(p), fileops.WithExtension(path.Base(p), newName))
	if dst == p {
		return s.finish("rename", start, sources, dst, Result{Level: LevelInfo, Message: "Name unchanged."})
	}
	if s.files.Exists(dst) {
		return s.finish("rename", start, sources, dst, errorResult("%v", &manifest.NameCollisionError{Kind: "file", Name: dst}))
	}
	if err := s.store.Backup(); err != nil {
		return s.finish("rename", start, sources, dst, errorResult("%v", err))
	}

	var b batch
	renamed, err := s.files.Rename(p, newName)
	if err != nil {
		b.fail("Failed to rename %s: %v", p, err)
		return s.finish("rename", start, sources, dst, b.result(""))
	}
	out, err := manifest.Update(s.store, manifest.Mutation{Op: manifest.OpMove, Path: renamed, OldPath: p})
	if err != nil {
		b.fail("Renamed %s but could not update the manifest: %v", p, err)
		return s.finish("rename", start, sources, renamed, b.result(""))
	}
	s.noteFallback(&b, out, renamed)
	b.ok()
	return s.finish("rename", start, sources, renamed, b.result("File renamed to '%s'.", path.Base(renamed)))
}

// Upload moves a finished upload from tempPath to destDir/filename under the
// root and, when targetFolder is set, tracks it there.
func (s *Service) Upload(tempPath, destDir, filename, targetFolder string) Result {
	start := time.Now()
	dst := path.Join(manifest.Normalize(destDir), filename)
	sources := []string{filename}
	if err := fileops.ValidateName(filename); err != nil {
		return s.finish("upload", start, sources, dst, errorResult("%v", err))
	}
	targetFolder = strings.Trim(targetFolder, "/")
	if targetFolder != "" {
		if err := s.store.Backup(); err != nil {
			return s.finish("upload", start, sources, dst, errorResult("%v", err))
		}
	}

	var b batch
	if err := s.files.Import(tempPath, dst); err != nil {
		b.fail("Failed to store upload %s: %v", dst, err)
		return s.finish("upload", start, sources, dst, b.result(""))
	}
	if targetFolder != "" {
		_, err := manifest.Update(s.store, manifest.Mutation{Op: manifest.OpAdd, Path: dst, TargetFolder: targetFolder})
		if err != nil {
			b.warn("Uploaded %s, but %v; the file is untracked.", dst, err)
		}
	}
	b.ok()
	return s.finish("upload", start, sources, dst, b.result("Uploaded '%s'.", dst))
}
