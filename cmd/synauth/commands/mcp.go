package commands

import (
	"github.com/spf13/cobra"

	"github.com/synauth/synauth-go/adapter/mcptool"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the approval tools as an MCP server over stdio",
		Long: `Exposes the SynAuth tools (request_approval, request_payment, vault_api_call,
and friends) to any MCP-capable agent runtime over stdio.

Add to your client config:

  {
    "mcpServers": {
      "synauth": {
        "command": "synauth",
        "args": ["mcp", "--api-key", "YOUR_AGENT_KEY"]
      }
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			s := mcptool.NewServer(client, version, cfg.WaitTimeout(), cfg.PollInterval(), newLogger(cfg))
			return mcptool.Serve(cmd.Context(), s)
		},
	}
}
