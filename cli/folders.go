package cli

import (
	"github.com/spf13/cobra"

	"asset-manifest/manifest"
)

func newMkfolderCmd(app *App) *cobra.Command {
	var (
		icon     string
		parent   string
		physical bool
	)
	cmd := &cobra.Command{
		Use:   "mkfolder <name>",
		Short: "Add a folder to the manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.open(nil)
			defer svc.Close()
			return writeResult(cmd, app, svc.CreateFolder(args[0], icon, parent, physical))
		},
	}
	cmd.Flags().StringVar(&icon, "icon", manifest.DefaultIcon, "Icon class stored with the folder")
	cmd.Flags().StringVar(&parent, "parent", "", "Logical path of the parent folder (default: top level)")
	cmd.Flags().BoolVar(&physical, "physical", false, "Also create the directory <parent>/<name> under the root")
	return cmd
}

func newRenameFolderCmd(app *App) *cobra.Command {
	var (
		icon     string
		physical bool
	)
	cmd := &cobra.Command{
		Use:   "rename-folder <folder-path> <new-name>",
		Short: "Rename a manifest folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := app.open(nil)
			defer svc.Close()
			return writeResult(cmd, app, svc.RenameFolder(args[0], args[1], icon, physical))
		},
	}
	cmd.Flags().StringVar(&icon, "icon", "", "New icon class (default: keep the current one)")
	cmd.Flags().BoolVar(&physical, "physical", false, "Also rename the directory and rewrite tracked paths below it")
	return cmd
}
