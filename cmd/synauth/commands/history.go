package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/synauth/synauth-go/internal/journal"
	"github.com/synauth/synauth-go/synauth"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit      int
		status     string
		actionType string
		local      bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past action requests and their outcomes",
		Example: `  synauth history
  synauth history --status denied
  synauth history --type purchase --limit 10
  synauth history --local`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if local {
				return printLocalHistory(status, actionType, limit)
			}

			client, _, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			actions, err := client.History(cmd.Context(), synauth.HistoryOpts{
				Limit:      limit,
				Status:     synauth.Status(status),
				ActionType: synauth.ActionType(actionType),
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tRISK\tSTATUS\tTITLE")
			for _, a := range actions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					a.ID, a.ActionType, a.RiskLevel, a.Status, a.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to return")
	cmd.Flags().StringVar(&status, "status", "", "filter by status: pending, approved, denied, expired")
	cmd.Flags().StringVar(&actionType, "type", "", "filter by action category")
	cmd.Flags().BoolVar(&local, "local", false, "read the local journal instead of the backend")

	return cmd
}

// printLocalHistory reads the journal without touching the network.
func printLocalHistory(status, actionType string, limit int) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	store, err := journal.NewStore(cfg.Journal.Path, newLogger(cfg))
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer store.Close() //nolint:errcheck // best-effort cleanup

	entries, err := store.Query(journal.QueryOpts{
		Status:     status,
		ActionType: actionType,
		Limit:      limit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REQUEST\tTYPE\tRISK\tSTATUS\tSUBMITTED\tRESOLVED\tTITLE")
	for _, e := range entries {
		resolved := e.ResolvedAt
		if resolved == "" {
			resolved = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.RequestID, e.ActionType, e.RiskLevel, e.Status, e.SubmittedAt, resolved, e.Title)
	}
	return w.Flush()
}
