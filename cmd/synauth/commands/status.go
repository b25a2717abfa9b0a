package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <request-id>",
		Short: "Check the current status of an action request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			action, err := client.GetStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Request %s: %s\n", action.ID, action.Status)
			if action.Title != "" {
				fmt.Printf("  %s\n", action.Title)
			}
			printOutcome(action)
			return nil
		},
	}
}
