package commands

import (
	"time"

	"github.com/spf13/cobra"
)

func newWaitCmd() *cobra.Command {
	var timeout, interval time.Duration

	cmd := &cobra.Command{
		Use:   "wait <request-id>",
		Short: "Block until an action request resolves",
		Long: "Polls the request at a fixed interval until it is approved, denied, or " +
			"expired, or the timeout elapses. A request still pending at timeout is " +
			"reported as pending, not as an error.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			if timeout <= 0 {
				timeout = cfg.WaitTimeout()
			}
			if interval <= 0 {
				interval = cfg.PollInterval()
			}

			result, err := client.WaitForResult(cmd.Context(), args[0], timeout, interval)
			if err != nil {
				return err
			}
			printOutcome(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "max time to wait (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "delay between status polls (default from config)")

	return cmd
}
