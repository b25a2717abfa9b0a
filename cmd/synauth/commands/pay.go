package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/synauth/synauth-go/internal/journal"
	"github.com/synauth/synauth-go/synauth"
	"github.com/synauth/synauth-go/synauth/pay"
)

func newPayCmd() *cobra.Command {
	var (
		amount      float64
		merchant    string
		description string
		currency    string
		wait        bool
		timeout     time.Duration
		interval    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Request a payment authorization",
		Example: `  synauth pay --amount 29.99 --merchant OpenAI --description "API credits"
  synauth pay --amount 250 --merchant "Acme Travel" --wait`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			if cfg.APIKey == "" {
				return fmt.Errorf("api key required (use --api-key, SYNAUTH_API_KEY, or the config file)")
			}

			logger := newLogger(cfg)
			opts := []synauth.Option{
				synauth.WithBaseURL(cfg.BaseURL),
				synauth.WithLogger(logger),
			}
			if cfg.Journal.Enabled {
				store, err := journal.NewStore(cfg.Journal.Path, logger)
				if err != nil {
					return fmt.Errorf("opening journal: %w", err)
				}
				defer store.Close() //nolint:errcheck // best-effort cleanup
				opts = append(opts, synauth.WithRecorder(store))
			}

			client := pay.New(cfg.APIKey, opts...)
			ctx := cmd.Context()

			request, err := client.RequestPayment(ctx, pay.PaymentParams{
				Amount:      amount,
				Merchant:    merchant,
				Description: description,
				Currency:    currency,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Payment request %s submitted (%s)\n", request.ID, request.Status)

			if !wait || request.Status.Terminal() {
				printOutcome(request)
				return nil
			}

			if timeout <= 0 {
				timeout = cfg.WaitTimeout()
			}
			if interval <= 0 {
				interval = cfg.PollInterval()
			}
			result, err := client.WaitForResult(ctx, request.ID, timeout, interval)
			if err != nil {
				return err
			}
			printOutcome(result)
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "amount to spend (required)")
	cmd.Flags().StringVar(&merchant, "merchant", "", "who gets paid (required)")
	cmd.Flags().StringVar(&description, "description", "", "what the payment is for")
	cmd.Flags().StringVar(&currency, "currency", "", "currency code (default USD)")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until the payment resolves")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "max time to wait (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "delay between status polls (default from config)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("merchant")

	return cmd
}
