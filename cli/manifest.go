package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"asset-manifest/scan"
)

// errDrift makes `analyze --check` fail when the manifest and disk differ.
var errDrift = errors.New("manifest and disk differ")

func newInitCmd(app *App) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty manifest in the project root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = app.cfg.ProjectName
			}
			svc := app.open(nil)
			defer svc.Close()
			return writeResult(cmd, app, svc.Init(name))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name (default: config project_name or the root directory name)")
	return cmd
}

func newTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the manifest tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.open(nil)
			defer svc.Close()
			m, err := svc.Tree()
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), m)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTree(m))
			return nil
		},
	}
}

func newFoldersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List every folder's logical path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.open(nil)
			defer svc.Close()
			folders, err := svc.Folders()
			if err != nil {
				return writeErr(cmd, err)
			}
			if folders == nil {
				folders = []string{}
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), folders)
			}
			for _, f := range folders {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}

func newAnalyzeCmd(app *App) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report broken links and untracked files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.open(nil)
			defer svc.Close()

			var spinner *scan.ProgressSpinner
			if !app.JSON && isTerminal(cmd) {
				spinner = scan.NewProgressSpinner(cmd.ErrOrStderr())
				svc.SetProgress(spinner)
			}
			report, err := svc.Analyze()
			if spinner != nil {
				spinner.Stop()
			}
			if err != nil {
				return writeErr(cmd, err)
			}

			if app.JSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
			}
			if check && !report.Clean() {
				return &ReportedError{Err: errDrift}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Exit non-zero when drift is found")
	return cmd
}

func newCleanCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove broken links from the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.open(nil)
			defer svc.Close()
			return writeResult(cmd, app, svc.Cleanup())
		},
	}
}

// isTerminal reports whether the command's stderr is an interactive
// terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.ErrOrStderr().(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
