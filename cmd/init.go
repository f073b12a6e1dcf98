package cmd

import (
	"path/filepath"

	"github.com/marcus/vc/internal/models"
	"github.com/marcus/vc/internal/output"
	"github.com/marcus/vc/internal/registry"
	"github.com/marcus/vc/internal/repo"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init [dir]",
	Short:   "Create a new repository",
	Long:    `Create a new repository in the given directory (default: the current one) with a single workspace named "default".`,
	Args:    cobra.MaximumNArgs(1),
	GroupID: "repo",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := getBaseDir()
		if len(args) == 1 {
			if filepath.IsAbs(args[0]) {
				dir = args[0]
			} else {
				dir = filepath.Join(dir, args[0])
			}
		}

		r, err := repo.Init(dir)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer r.Close()

		// Record the default workspace's path so 'vc workspace root'
		// resolves it from any process.
		reg, err := registry.Load(r.ControlDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if err := reg.Set(models.DefaultWorkspaceName, r.Root()); err != nil {
			output.Error("%v", err)
			return err
		}

		output.Success("Initialized repository in %s", r.Root())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
