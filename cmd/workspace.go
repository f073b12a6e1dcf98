package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/vc/internal/models"
	"github.com/marcus/vc/internal/output"
	"github.com/marcus/vc/internal/registry"
	"github.com/marcus/vc/internal/repo"
	"github.com/spf13/cobra"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Workspace commands",
	Long:    `Manage the repository's workspaces: named working copies rooted somewhere on disk.`,
	GroupID: "workspace",
}

var workspaceAddCmd = &cobra.Command{
	Use:   "add <destination>",
	Short: "Add a workspace rooted at the given directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer r.Close()

		dest := args[0]
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(getBaseDir(), dest)
		}

		nameFlag, _ := cmd.Flags().GetString("name")
		if nameFlag == "" {
			nameFlag = filepath.Base(dest)
		}
		name := models.WorkspaceName(nameFlag)
		if err := name.Validate(); err != nil {
			output.Error("%v", err)
			return err
		}

		if err := addWorkspace(r, name, dest); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Added workspace %s at %s", name.Symbol(), dest)
		return nil
	},
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked workspaces and their roots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer r.Close()

		names, err := r.WorkspaceNames()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		reg, err := registry.Load(r.ControlDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		for _, name := range names {
			if reg.Exists(name) {
				rec, err := reg.Get(name)
				if err != nil {
					output.Error("%v", err)
					return err
				}
				fmt.Printf("%s: %s\n", name.Symbol(), rec.Path)
			} else {
				// Workspaces created before the registry existed
				fmt.Printf("%s: (no path recorded)\n", name.Symbol())
			}
		}
		return nil
	},
}

var workspaceForgetCmd = &cobra.Command{
	Use:   "forget [<name>...]",
	Short: "Stop tracking a workspace's working-copy commit",
	Long: `Stop tracking a workspace's working-copy commit in the repo.

The workspace is not touched on disk. It can be deleted from disk
before or after running this command. With no arguments, forgets the
current workspace.`,
	ValidArgsFunction: completeWorkspaceNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer r.Close()

		var names []models.WorkspaceName
		if len(args) == 0 {
			names = []models.WorkspaceName{r.CurrentWorkspace()}
		} else {
			for _, arg := range args {
				name := models.WorkspaceName(arg)
				if err := name.Validate(); err != nil {
					output.Error("%v", err)
					return err
				}
				names = append(names, name)
			}
		}

		if err := forgetWorkspaces(r, names); err != nil {
			output.Error("%v", err)
			return err
		}
		return nil
	},
}

var workspaceRootCmd = &cobra.Command{
	Use:   "root",
	Short: "Show the workspace root directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer r.Close()

		wsFlag, _ := cmd.Flags().GetString("workspace")
		name := r.CurrentWorkspace()
		explicit := wsFlag != ""
		if explicit {
			name = models.WorkspaceName(wsFlag)
		}

		path, err := workspaceRoot(r, name, explicit)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		// Verbatim bytes plus newline; no quoting, so the output can
		// feed other tools.
		fmt.Fprintln(os.Stdout, path)
		return nil
	},
}

// addWorkspace registers a new workspace: a view row with a fresh
// working-copy commit and a registry record for its root, committed
// together. The destination directory is created if missing so the
// registry can canonicalize it.
func addWorkspace(r *repo.Repo, name models.WorkspaceName, dest string) error {
	if _, ok, err := r.WCCommit(name); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("workspace %s already exists", name.Symbol())
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	commit, err := repo.NewCommitID()
	if err != nil {
		return err
	}

	tx, err := r.StartTransaction()
	if err != nil {
		return err
	}
	if err := tx.SetWCCommit(name, commit); err != nil {
		tx.Abort()
		return err
	}
	reg, err := registry.Load(r.ControlDir())
	if err != nil {
		tx.Abort()
		return err
	}
	if err := reg.Set(name, dest); err != nil {
		tx.Abort()
		return err
	}
	return tx.Finish(fmt.Sprintf("add workspace %s", name.Symbol()))
}

// forgetWorkspaces removes each workspace's working-copy commit from
// the view and its registry record, in one transaction. Every name is
// validated against the view first so the operation is all-or-nothing
// with respect to user-visible errors.
func forgetWorkspaces(r *repo.Repo, names []models.WorkspaceName) error {
	for _, name := range names {
		if _, ok, err := r.WCCommit(name); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("No such workspace: %s", name.Symbol())
		}
	}

	// Bundle every forget into a single transaction so undo restores
	// all of them at once.
	tx, err := r.StartTransaction()
	if err != nil {
		return err
	}

	reg, err := registry.Load(r.ControlDir())
	if err != nil {
		tx.Abort()
		return err
	}

	for _, name := range names {
		if err := tx.RemoveWCCommit(name); err != nil {
			tx.Abort()
			return err
		}
		// Workspaces created before the registry existed have no
		// entry; that is not an error.
		if reg.Exists(name) {
			if err := reg.Remove(name); err != nil {
				tx.Abort()
				return err
			}
		}
	}

	return tx.Finish(forgetDescription(names))
}

func forgetDescription(names []models.WorkspaceName) string {
	if len(names) == 1 {
		return fmt.Sprintf("forget workspace %s", names[0].Symbol())
	}
	symbols := make([]string, len(names))
	for i, name := range names {
		symbols[i] = name.Symbol()
	}
	return "forget workspaces " + strings.Join(symbols, ", ")
}

// workspaceRoot resolves a workspace name to its canonical on-disk
// root. Unknown names fail only when the user named one explicitly;
// the current workspace of a registry-less legacy repository falls
// back to the repository root.
func workspaceRoot(r *repo.Repo, name models.WorkspaceName, explicit bool) (string, error) {
	// The registry assumes its keys are legal filenames; a name with a
	// path separator would escape the store directory. Such a name can
	// never be tracked, so report it as unknown before touching the
	// filesystem with it.
	if err := name.Validate(); err != nil {
		if explicit {
			return "", fmt.Errorf("No such workspace: %s", name.Symbol())
		}
		return "", err
	}

	reg, err := registry.Load(r.ControlDir())
	if err != nil {
		return "", err
	}

	switch {
	case reg.Exists(name):
		rec, err := reg.Get(name)
		if err != nil {
			return "", err
		}
		return registry.Canonicalize(rec.Path)
	case explicit:
		return "", fmt.Errorf("No such workspace: %s", name.Symbol())
	default:
		return r.Root(), nil
	}
}

// completeWorkspaceNames offers the tracked workspace names as shell
// completion candidates.
func completeWorkspaceNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	r, err := openRepo()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer r.Close()

	names, err := r.WorkspaceNames()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var candidates []string
	for _, name := range names {
		candidates = append(candidates, name.Symbol())
	}
	return candidates, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
	workspaceCmd.AddCommand(workspaceAddCmd)
	workspaceCmd.AddCommand(workspaceListCmd)
	workspaceCmd.AddCommand(workspaceForgetCmd)
	workspaceCmd.AddCommand(workspaceRootCmd)

	workspaceAddCmd.Flags().String("name", "", "Workspace name (defaults to the destination basename)")

	workspaceRootCmd.Flags().StringP("workspace", "w", "", "Name of the workspace (defaults to the current)")
	workspaceRootCmd.RegisterFlagCompletionFunc("workspace", completeWorkspaceNames)
}
