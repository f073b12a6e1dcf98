package cmd

import (
	"fmt"
	"os"

	"github.com/marcus/vc/internal/repo"
	"github.com/spf13/cobra"
)

var baseDir string

// SetVersion sets the version string
func SetVersion(v string) {
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "vc",
	Short: "Minimalist distributed version control",
	Long: `vc - A minimalist distributed version-control CLI.

A repository can have several named workspaces, each a working copy
rooted somewhere on disk. The workspace commands manage the mapping
between workspace names and working-copy paths.`,
	// Commands report their own errors on stderr; keep cobra quiet so
	// each failure prints exactly one line.
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initBaseDir)

	rootCmd.AddGroup(
		&cobra.Group{ID: "repo", Title: "Repository Commands:"},
		&cobra.Group{ID: "workspace", Title: "Workspace Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

func initBaseDir() {
	var err error
	baseDir, err = os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		os.Exit(1)
	}
}

// getBaseDir returns the directory commands operate from
func getBaseDir() string {
	return baseDir
}

// openRepo discovers and opens the repository enclosing the base
// directory.
func openRepo() (*repo.Repo, error) {
	root := repo.FindRoot(getBaseDir())
	if root == "" {
		return nil, fmt.Errorf("no vc repository found (run 'vc init' first)")
	}
	return repo.Open(root)
}
