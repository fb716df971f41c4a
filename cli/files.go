package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newAddCmd(app *App) *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "add <path>... --to <folder>",
		Short: "Track untracked files under a manifest folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.open(nil)
			defer svc.Close()
			return writeResult(cmd, app, svc.AddFiles(args, folder))
		},
	}
	cmd.Flags().StringVar(&folder, "to", "", "Logical path of the target folder, e.g. Assets/Images")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <path>...",
		Aliases: []string{"delete"},
		Short:   "Delete files from disk and from the manifest",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.open(nil)
			defer svc.Close()
			return writeResult(cmd, app, svc.DeleteFiles(args))
		},
	}
}

func newMvCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "mv <path>... <dest-dir>",
		Aliases: []string{"move"},
		Short:   "Move files into a directory and update the manifest",
		Long: strings.TrimSpace(`
Move files into dest-dir, keeping their names. Use "." for the project root.
Each moved file is filed under the first manifest folder named like its new
parent directory, or at the top level when there is none.`),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, dest := splitDest(args)
			svc := app.open(nil)
			defer svc.Close()
			return writeResult(cmd, app, svc.MoveFiles(srcs, dest))
		},
	}
}

func newCpCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "cp <path>... <dest-dir>",
		Aliases: []string{"copy"},
		Short:   "Copy files into a directory and track the copies",
		Long: strings.TrimSpace(`
Copy files into dest-dir. The copies are tracked under the folder whose
logical path equals dest-dir; when there is no such folder they stay
untracked and the result is a warning.`),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, dest := splitDest(args)
			svc := app.open(nil)
			defer svc.Close()
			return writeResult(cmd, app, svc.CopyFiles(srcs, dest))
		},
	}
}

func newRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a file in place, keeping its extension when omitted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.open(nil)
			defer svc.Close()
			return writeResult(cmd, app, svc.RenameFile(args[0], args[1]))
		},
	}
}

// splitDest separates the trailing destination directory. "." and "/"
// mean the project root.
func splitDest(args []string) ([]string, string) {
	dest := args[len(args)-1]
	if dest == "." || dest == "/" {
		dest = ""
	}
	return args[:len(args)-1], dest
}
