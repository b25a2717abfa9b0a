package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/synauth/synauth-go/synauth"
)

func newRequestCmd() *cobra.Command {
	var (
		actionType  string
		title       string
		description string
		risk        string
		amount      float64
		currency    string
		recipient   string
		expires     time.Duration
		callbackURL string
		wait        bool
		timeout     time.Duration
		interval    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Submit an action for human authorization",
		Example: `  synauth request --type communication --title "Send weekly report" --recipient john@company.com --risk low
  synauth request --type purchase --title "Buy API credits" --amount 29.99 --wait
  synauth request --type legal --title "Sign NDA" --risk critical`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, cleanup, err := newClient()
			if err != nil {
				return err
			}
			defer cleanup()

			p := synauth.ActionParams{
				Type:        synauth.ActionType(actionType),
				Title:       title,
				Description: description,
				RiskLevel:   synauth.RiskLevel(risk),
				Recipient:   recipient,
				ExpiresIn:   expires,
				CallbackURL: callbackURL,
			}
			if cmd.Flags().Changed("amount") {
				p.Amount = &amount
				p.Currency = currency
			}

			ctx := cmd.Context()
			action, err := client.RequestAction(ctx, p)
			if err != nil {
				return err
			}

			fmt.Printf("Request %s submitted (%s)\n", action.ID, action.Status)

			if !wait || action.Status.Terminal() {
				printOutcome(action)
				return nil
			}

			if timeout <= 0 {
				timeout = cfg.WaitTimeout()
			}
			if interval <= 0 {
				interval = cfg.PollInterval()
			}
			fmt.Println("Waiting for approval on the paired device...")
			result, err := client.WaitForResult(ctx, action.ID, timeout, interval)
			if err != nil {
				return err
			}
			printOutcome(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&actionType, "type", "", "action category: communication, purchase, data_access, legal, system, scheduling, social")
	cmd.Flags().StringVar(&title, "title", "", "human-readable summary (required)")
	cmd.Flags().StringVar(&description, "description", "", "details shown in the approval prompt")
	cmd.Flags().StringVar(&risk, "risk", "medium", "risk level: low, medium, high, critical")
	cmd.Flags().Float64Var(&amount, "amount", 0, "monetary amount")
	cmd.Flags().StringVar(&currency, "currency", "USD", "currency code")
	cmd.Flags().StringVar(&recipient, "recipient", "", "counterparty of the action")
	cmd.Flags().DurationVar(&expires, "expires", 5*time.Minute, "approval window before the request expires")
	cmd.Flags().StringVar(&callbackURL, "callback-url", "", "URL the backend notifies on resolution")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until the request resolves")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "max time to wait (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "delay between status polls (default from config)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// printOutcome renders a resolution snapshot for humans.
func printOutcome(a *synauth.Action) {
	switch a.Status {
	case synauth.StatusApproved:
		if a.VerifiedBy != "" {
			color.Green("✓ approved by %s", a.VerifiedBy)
		} else {
			color.Green("✓ approved")
		}
		if a.ContentHash != "" {
			fmt.Printf("  content hash: %s\n", a.ContentHash)
		}
	case synauth.StatusDenied:
		if a.DenyReason != "" {
			color.Red("✗ denied: %s", a.DenyReason)
		} else {
			color.Red("✗ denied")
		}
	case synauth.StatusExpired:
		color.Yellow("– expired before anyone resolved it")
	default:
		fmt.Println("… still pending; check again with: synauth status", a.ID)
	}
}
