// Package workspace is the operation boundary shared by the CLI, the
// terminal UI and the web server. Each mutating call takes a backup of the
// manifest, performs the physical file operation, updates the manifest and
// reports the outcome as a Result.
package workspace

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"asset-manifest/config"
	"asset-manifest/fileops"
	"asset-manifest/journal"
	"asset-manifest/manifest"
	"asset-manifest/scan"
)

// Service is not safe for concurrent use; callers that run requests in
// parallel must serialize access.
type Service struct {
	root    string
	store   *manifest.Store
	files   *fileops.Root
	scanner *scan.Scanner
	journal journal.Journal
	metrics *Metrics
	log     *zap.Logger
}

type Options struct {
	Root       string
	Manifest   string
	Exclusions scan.Exclusions
	// Fs backs the manifest and the scanner. Defaults to the OS filesystem.
	Fs      afero.Fs
	Journal journal.Journal
	Metrics *Metrics
	Logger  *zap.Logger
}

func New(opts Options) *Service {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Manifest == "" {
		opts.Manifest = filepath.Join(opts.Root, manifest.DefaultFileName)
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		root:  opts.Root,
		store: &manifest.Store{Fs: opts.Fs, Path: opts.Manifest},
		files: fileops.New(opts.Root),
		scanner: &scan.Scanner{
			Fs:         opts.Fs,
			Root:       opts.Root,
			Exclusions: opts.Exclusions,
		},
		journal: opts.Journal,
		metrics: opts.Metrics,
		log:     opts.Logger.Named("workspace"),
	}
}

// Open builds a Service from cfg. A journal that cannot be opened, for
// example because a running server holds its lock, is replaced by a no-op
// journal with a warning.
func Open(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	var j journal.Journal = journal.Nop{}
	if cfg.Journal.Enabled {
		db, err := journal.Open(filepath.Join(cfg.Root, journal.DefaultFileName))
		if err != nil {
			logger.Warn("journal unavailable, operations will not be recorded", zap.Error(err))
		} else {
			j = db
		}
	}
	return New(Options{
		Root:       cfg.Root,
		Manifest:   cfg.ManifestPath(),
		Exclusions: ExclusionsFor(cfg),
		Journal:    j,
		Metrics:    NewMetrics(reg),
		Logger:     logger,
	})
}

// ExclusionsFor extends the default scan exclusions with the files this tool
// writes and the user's configured patterns.
func ExclusionsFor(cfg *config.Config) scan.Exclusions {
	ex := scan.DefaultExclusions(journal.DefaultFileName, config.DefaultFileName)
	if base := filepath.Base(cfg.ManifestPath()); base != manifest.DefaultFileName {
		ex.Files = append(ex.Files, base, base+manifest.BackupSuffix)
	}
	if cfg.File != "" {
		ex.Files = append(ex.Files, filepath.Base(cfg.File))
	}
	ex.Dirs = append(ex.Dirs, config.UploadsDirName)
	ex.Dirs = append(ex.Dirs, cfg.Exclude.Dirs...)
	ex.Files = append(ex.Files, cfg.Exclude.Files...)
	return ex
}

func (s *Service) Close() error {
	return s.journal.Close()
}

func (s *Service) Root() string {
	return s.root
}

func (s *Service) ManifestPath() string {
	return s.store.Path
}

// SetProgress attaches a spinner to the next scans. Pass nil to detach.
func (s *Service) SetProgress(p *scan.ProgressSpinner) {
	s.scanner.Progress = p
}

// Abs resolves a root-relative path, refusing paths outside the root.
func (s *Service) Abs(rel string) (string, error) {
	return s.files.Abs(manifest.Normalize(rel))
}

// Init creates an empty manifest when there is none.
func (s *Service) Init(projectName string) Result {
	start := time.Now()
	created, err := s.store.Init(projectName)
	if err != nil {
		return s.finish("init", start, nil, "", errorResult("%v", err))
	}
	if !created {
		return s.finish("init", start, nil, "", Result{Level: LevelInfo, Message: "Manifest already exists at " + s.store.Path + "."})
	}
	return s.finish("init", start, nil, "", Result{Level: LevelSuccess, Message: "Created " + s.store.Path + ".", Processed: 1})
}

// Tree loads the manifest as stored.
func (s *Service) Tree() (*manifest.Manifest, error) {
	return s.store.Load()
}

// Folders lists every folder's logical path in tree order.
func (s *Service) Folders() ([]string, error) {
	m, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return manifest.FolderPaths(m.Tree), nil
}

// FolderFiles lists the tracked paths under a folder, at any depth, sorted.
func (s *Service) FolderFiles(folderPath string) ([]string, error) {
	m, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	f := manifest.FindFolder(m.Tree, folderPath)
	if f == nil {
		return nil, &manifest.TargetNotFoundError{Folder: folderPath}
	}
	var files []string
	for p := range manifest.FilePaths(f.Children) {
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}

// History returns the most recent journal entries, newest first.
func (s *Service) History(limit int) ([]journal.Entry, error) {
	return s.journal.Recent(limit)
}

// finish records r in the journal, the metrics and the log.
func (s *Service) finish(op string, start time.Time, sources []string, dest string, r Result) Result {
	s.metrics.observe(op, start, r)

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("level", string(r.Level)),
		zap.Int("processed", r.Processed),
		zap.Duration("took", time.Since(start)),
	}
	if dest != "" {
		fields = append(fields, zap.String("dest", dest))
	}
	if len(r.Failures) > 0 {
		fields = append(fields, zap.Strings("failures", r.Failures))
	}
	switch r.Level {
	case LevelError:
		s.log.Error(r.Message, fields...)
	case LevelWarning:
		s.log.Warn(r.Message, fields...)
	default:
		s.log.Info(r.Message, fields...)
	}

	errs := r.Failures
	if r.Level == LevelError && len(errs) == 0 {
		errs = []string{r.Message}
	}
	err := s.journal.Append(journal.Entry{
		Action:  op,
		Sources: sources,
		Dest:    dest,
		Level:   string(r.Level),
		Errors:  errs,
	})
	if err != nil {
		s.log.Warn("failed to record operation", zap.String("op", op), zap.Error(err))
	}
	return r
}

// cleanPaths normalizes and drops empty entries.
func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = manifest.Normalize(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dirName is the last segment of p's directory, "" at the root.
func dirName(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return path.Base(dir)
}
