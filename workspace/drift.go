package workspace

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"asset-manifest/manifest"
	"asset-manifest/scan"
)

// Snapshot is everything a front-end needs to draw the main screen.
type Snapshot struct {
	ProjectName    string          `json:"project_name"`
	Tree           []manifest.Node `json:"tree"`
	Folders        []string        `json:"folders"`
	UntrackedFiles []string        `json:"untracked_files"`
	BrokenLinks    []string        `json:"broken_links"`
	UntrackedSize  int64           `json:"untracked_size"`
}

// Analyze compares the manifest to the disk without changing either.
func (s *Service) Analyze() (scan.Report, error) {
	m, err := s.store.Load()
	if err != nil {
		return scan.Report{}, err
	}
	return s.analyze(m)
}

func (s *Service) analyze(m *manifest.Manifest) (scan.Report, error) {
	start := time.Now()
	report, err := s.scanner.Analyze(m)
	if err != nil {
		return scan.Report{}, err
	}
	s.metrics.drift(report)
	s.log.Debug("analyzed drift",
		zap.Int("broken", len(report.BrokenLinks)),
		zap.Int("untracked", len(report.UntrackedFiles)),
		zap.Duration("took", time.Since(start)))
	return report, nil
}

func (s *Service) Snapshot() (*Snapshot, error) {
	m, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	report, err := s.analyze(m)
	if err != nil {
		return nil, err
	}
	tree := m.Tree
	if tree == nil {
		tree = []manifest.Node{}
	}
	folders := manifest.FolderPaths(m.Tree)
	if folders == nil {
		folders = []string{}
	}
	return &Snapshot{
		ProjectName:    m.ProjectName,
		Tree:           tree,
		Folders:        folders,
		UntrackedFiles: report.UntrackedFiles,
		BrokenLinks:    report.BrokenLinks,
		UntrackedSize:  report.UntrackedSize,
	}, nil
}

// Cleanup removes every broken link from the manifest. Nothing is written
// when there is nothing to remove.
func (s *Service) Cleanup() Result {
	start := time.Now()
	m, err := s.store.Load()
	if err != nil {
		return s.finish("cleanup", start, nil, "", errorResult("%v", err))
	}
	broken := s.scanner.BrokenLinks(manifest.FilePaths(m.Tree))
	if len(broken) == 0 {
		return s.finish("cleanup", start, nil, "", Result{
			Level:   LevelInfo,
			Message: fmt.Sprintf("No broken links, %v.", manifest.ErrNothingToClean),
		})
	}
	if err := s.store.Backup(); err != nil {
		return s.finish("cleanup", start, broken, "", errorResult("%v", err))
	}

	removed := scan.Cleanup(m, broken)
	if err := s.store.Save(m); err != nil {
		return s.finish("cleanup", start, broken, "", errorResult("%v", err))
	}
	if s.metrics != nil {
		s.metrics.BrokenLinks.Set(0)
	}
	return s.finish("cleanup", start, broken, "", Result{
		Level:     LevelSuccess,
		Message:   fmt.Sprintf("Removed %d broken link(s) from the manifest.", removed),
		Processed: removed,
	})
}
