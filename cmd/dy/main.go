// Command dy reads and writes DynamoDB items from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacentio/dynabatch/store"
)

var (
	flags  flagValues
	cfg    = defaultSettings()
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "dy",
	Short: "DynamoDB item and batch-write tool",
	Long: `Read and write DynamoDB items as plain JSON.

Items are printed as JSON with numbers kept exactly as stored. Batch writes
are split into BatchWriteItem calls, and unprocessed items are retried with
backoff until they are written or the retry budget runs out.

Use --region local to talk to DynamoDB Local on http://localhost:8000.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = loadSettings(flags, cmd.Flags().Changed)
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: cfg.LogLevel,
		}))
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&flags.Region, "region", "", `AWS region, or "local" for DynamoDB Local`)
	f.StringVar(&flags.Endpoint, "endpoint-url", "", "override the DynamoDB endpoint URL")
	f.StringVar(&flags.Profile, "profile", "", "shared AWS config profile")
	f.StringVarP(&flags.Table, "table", "t", "", "table to read or write")
	f.StringVar(&flags.Config, "config", "", "YAML config file")
	f.StringVar(&flags.LogLevel, "log-level", "warn", "log level: debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dy:", err)
		os.Exit(1)
	}
}

// openStore connects to DynamoDB with the resolved settings.
func openStore(ctx context.Context) (*store.Store, error) {
	client, err := store.LoadClient(ctx, cfg.Client)
	if err != nil {
		return nil, err
	}
	return store.New(client, cfg.Store), nil
}

func requireTable() (string, error) {
	if cfg.Table == "" {
		return "", errors.New("no table given; use --table or set table in --config")
	}
	return cfg.Table, nil
}
