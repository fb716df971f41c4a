// Package cli wires the cobra commands. Every command loads the
// configuration, opens a workspace service for the run and prints the
// outcome as styled text or JSON.
package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"asset-manifest/config"
	"asset-manifest/logging"
	"asset-manifest/tui"
	"asset-manifest/workspace"
)

type App struct {
	Root       string
	ConfigPath string
	Manifest   string
	LogLevel   string
	LogFormat  string
	JSON       bool

	cfg *config.Config
	log *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "asset-manifest",
		Short:         "Keep manifest.json in sync with the project's files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  asset-manifest

  # Compare the manifest with the disk
  asset-manifest analyze

  # Track new files under a folder
  asset-manifest add img/logo.png img/icon.png --to Images

  # Serve the web UI with file operations enabled
  asset-manifest serve --write
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.load(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.log != nil {
			return logging.Sync(app.log)
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Root, "root", "", "Project root (default: $ASSETMAN_ROOT or the current directory)")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file (default: <root>/"+config.DefaultFileName+" when present)")
	cmd.PersistentFlags().StringVar(&app.Manifest, "manifest", "", "Manifest file, relative to the root unless absolute")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFormat, "log-format", "", "Log format (console|json)")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print results as JSON")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newFoldersCmd(app))
	cmd.AddCommand(newAnalyzeCmd(app))
	cmd.AddCommand(newCleanCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newMvCmd(app))
	cmd.AddCommand(newCpCmd(app))
	cmd.AddCommand(newRenameCmd(app))
	cmd.AddCommand(newMkfolderCmd(app))
	cmd.AddCommand(newRenameFolderCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// load reads the configuration, applies flag overrides and builds the
// logger. Logs go to the command's stderr.
func (app *App) load(cmd *cobra.Command) error {
	cfg, err := config.Load(app.ConfigPath, app.Root)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("manifest") {
		cfg.Manifest = app.Manifest
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = app.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = app.LogFormat
	}
	if abs, err := filepath.Abs(cfg.Root); err == nil {
		cfg.Root = abs
	}

	logger, err := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	app.cfg = cfg
	app.log = logger
	app.log.Debug("configuration loaded",
		zap.String("root", cfg.Root),
		zap.String("manifest", cfg.ManifestPath()),
		zap.String("file", cfg.File))
	return nil
}

// open builds a service for one command. Callers close it.
func (app *App) open(reg prometheus.Registerer) *workspace.Service {
	return workspace.Open(app.cfg, app.log, reg)
}

func runTUI(app *App) error {
	// The alternate screen owns the terminal; service logs would tear it.
	svc := workspace.Open(app.cfg, zap.NewNop(), nil)
	defer svc.Close()
	return tui.Run(svc)
}

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(app)
		},
	}
}

// ReportedError is returned once a command has already told the user what
// went wrong, so main only sets the exit code.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }
func (e *ReportedError) Unwrap() error { return e.Err }

// Reported reports whether err was already printed.
func Reported(err error) bool {
	var re *ReportedError
	return errors.As(err, &re)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("Error: "+err.Error()))
	return &ReportedError{Err: err}
}
