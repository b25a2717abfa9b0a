package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSpendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spending",
		Short: "Show spend against every limit that applies to this agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := client.SpendingSummary(cmd.Context())
			if err != nil {
				return err
			}

			if len(summary.Summaries) == 0 {
				fmt.Println("No spending limits apply to this agent.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LIMIT\tTYPE\tPERIOD\tLIMIT\tSPENT\tREMAINING\tUTIL%")
			for _, s := range summary.Summaries {
				actionType := string(s.ActionType)
				if actionType == "" {
					actionType = "all"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.1f\n",
					s.LimitID, actionType, s.Period, s.Limit, s.Spent, s.Remaining, s.UtilizationPct)
			}
			return w.Flush()
		},
	}
}
