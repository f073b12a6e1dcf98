package cmd

import (
	"fmt"
	"time"

	"github.com/marcus/vc/internal/output"
	"github.com/spf13/cobra"
)

var opCmd = &cobra.Command{
	Use:     "op",
	Short:   "Operation log commands",
	GroupID: "system",
}

var opLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show committed operations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer r.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		ops, err := r.Ops(limit)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded")
			return nil
		}
		for _, op := range ops {
			status := ""
			if op.Undone {
				status = " [undone]"
			}
			fmt.Printf("%-4d %s (%s)%s\n", op.ID, op.Description, formatAge(op.CreatedAt), status)
		}
		return nil
	},
}

// formatAge renders a timestamp as a coarse relative age.
func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func init() {
	rootCmd.AddCommand(opCmd)
	opCmd.AddCommand(opLogCmd)

	opLogCmd.Flags().Int("limit", 10, "Max operations to show (0 for all)")
}
