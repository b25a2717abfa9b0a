package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/synauth/synauth-go/internal/appcfg"
	"github.com/synauth/synauth-go/internal/journal"
	"github.com/synauth/synauth-go/synauth"
)

var (
	cfgFile string
	baseURL string
	apiKey  string
)

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "synauth",
		Short: "Request human authorization for agent actions",
		Long: "SynAuth — the authorization layer between AI agents and consequential actions. " +
			"Every email, purchase, or contract goes through a human who approves via " +
			"biometric or TOTP confirmation on a paired device.",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "synauth.yaml", "config file path")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend base URL (overrides config and env)")
	root.PersistentFlags().StringVar(&apiKey, "api-key", "", "agent API key (overrides config and env)")

	root.AddCommand(
		newRequestCmd(),
		newStatusCmd(),
		newWaitCmd(),
		newPayCmd(),
		newHistoryCmd(),
		newSpendingCmd(),
		newVaultCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)

	return root
}

// resolveConfig applies the flag overrides on top of env and config file.
func resolveConfig() (*appcfg.Config, error) {
	return appcfg.Resolve(cfgFile, appcfg.Overrides{BaseURL: baseURL, APIKey: apiKey})
}

func newLogger(cfg *appcfg.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient builds the SDK client from resolved config. The returned
// cleanup closes the journal when one is open.
func newClient() (*synauth.Client, *appcfg.Config, func(), error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.APIKey == "" {
		return nil, nil, nil, fmt.Errorf("api key required (use --api-key, %s, or the config file)", appcfg.EnvAPIKey)
	}

	logger := newLogger(cfg)
	opts := []synauth.Option{
		synauth.WithBaseURL(cfg.BaseURL),
		synauth.WithLogger(logger),
	}

	cleanup := func() {}
	if cfg.Journal.Enabled {
		store, err := journal.NewStore(cfg.Journal.Path, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening journal: %w", err)
		}
		opts = append(opts, synauth.WithRecorder(store))
		cleanup = func() { _ = store.Close() }
	}

	return synauth.New(cfg.APIKey, opts...), cfg, cleanup, nil
}
