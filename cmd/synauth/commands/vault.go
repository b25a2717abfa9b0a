package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/synauth/synauth-go/synauth"
)

func newVaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Execute API calls through the credential vault",
		Long: "The vault holds third-party credentials server-side. The agent describes " +
			"the HTTP call, a human approves it, and the backend executes it with the " +
			"credential injected — the agent never sees the credential value.",
	}
	cmd.AddCommand(newVaultListCmd(), newVaultCallCmd())
	return cmd
}

func newVaultListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List vault services available to this agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			services, err := client.ListVaultServices(cmd.Context())
			if err != nil {
				return err
			}

			if len(services) == 0 {
				fmt.Println("No vault services configured.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SERVICE\tAUTH\tALLOWED HOSTS\tDESCRIPTION")
			for _, s := range services {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					s.ServiceName, s.AuthType, strings.Join(s.AllowedHosts, ", "), s.Description)
			}
			return w.Flush()
		},
	}
}

func newVaultCallCmd() *cobra.Command {
	var (
		service     string
		method      string
		callURL     string
		headers     []string
		body        string
		description string
		timeout     time.Duration
		interval    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Make an API call with a vaulted credential",
		Example: `  synauth vault call --service openai --method POST \
    --url https://api.openai.com/v1/chat/completions \
    --body '{"model":"gpt-4","messages":[]}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			hdrs := make(map[string]string, len(headers))
			for _, h := range headers {
				k, v, ok := strings.Cut(h, "=")
				if !ok {
					return fmt.Errorf("invalid header %q, want key=value", h)
				}
				hdrs[k] = v
			}

			fmt.Println("Waiting for approval on the paired device...")
			res, err := client.ExecuteVaultCall(cmd.Context(), synauth.VaultCallParams{
				Service:      service,
				Method:       method,
				URL:          callURL,
				Headers:      hdrs,
				Body:         body,
				Description:  description,
				Timeout:      timeout,
				PollInterval: interval,
			})
			if err != nil {
				return err
			}

			if res.StatusCode != 0 {
				fmt.Printf("Executed (HTTP %d)\n", res.StatusCode)
			} else {
				fmt.Println("Executed")
			}
			if len(res.Response) > 0 {
				fmt.Println(string(res.Response))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", "", "vault service name (required)")
	cmd.Flags().StringVar(&method, "method", "GET", "HTTP method")
	cmd.Flags().StringVar(&callURL, "url", "", "full URL to call (required)")
	cmd.Flags().StringArrayVar(&headers, "header", nil, "additional header as key=value (repeatable)")
	cmd.Flags().StringVar(&body, "body", "", "request body")
	cmd.Flags().StringVar(&description, "description", "", "description shown in the approval prompt")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "max time to wait for approval (default 2m)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "delay between status polls (default 3s)")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
