package cmd

import (
	"fmt"

	"github.com/marcus/vc/internal/models"
	"github.com/marcus/vc/internal/output"
	"github.com/marcus/vc/internal/repo"
	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last operation",
	Long: `Undo the most recent not-yet-undone operation.

Restores the repository view rows the operation changed. Workspace
path registry entries removed by a forget are not restored; re-add the
workspace if you need its path tracked again.

Use 'vc op log' to see recent operations.`,
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer r.Close()

		op, err := r.LastUndoableOp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if op == nil {
			fmt.Println("Nothing to undo")
			return nil
		}

		if err := undoOperation(r, op); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Undid operation %d: %s", op.ID, op.Description)
		return nil
	},
}

// undoOperation reverses op's view changes in a fresh transaction and
// marks op undone. Changes are replayed in reverse so a later change
// to the same row does not clobber an earlier one.
func undoOperation(r *repo.Repo, op *repo.Operation) error {
	tx, err := r.StartTransaction()
	if err != nil {
		return err
	}
	for i := len(op.Changes) - 1; i >= 0; i-- {
		change := op.Changes[i]
		name := models.WorkspaceName(change.Name)
		if change.OldCommit == "" {
			if err := tx.RemoveWCCommit(name); err != nil {
				tx.Abort()
				return err
			}
		} else {
			if err := tx.SetWCCommit(name, change.OldCommit); err != nil {
				tx.Abort()
				return err
			}
		}
	}
	if err := tx.MarkUndone(op.ID); err != nil {
		tx.Abort()
		return err
	}
	return tx.Finish(fmt.Sprintf("undo: %s", op.Description))
}

func init() {
	rootCmd.AddCommand(undoCmd)
}
