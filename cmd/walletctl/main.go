package main

import (
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bimakw/wallet-aggregator/internal/app"
	"github.com/bimakw/wallet-aggregator/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	root := &cobra.Command{
		Use:          "walletctl",
		Short:        "Polygon wallet asset aggregator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().Duration("timeout", 0, "per-source timeout, 0 keeps the configured value")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot <address>",
		Short: "Aggregate one wallet and print the dashboard as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshot,
	}
	snapshotCmd.Flags().Bool("pretty", false, "indent JSON output")
	root.AddCommand(snapshotCmd)

	pricesCmd := &cobra.Command{
		Use:   "prices <symbol>...",
		Short: "Resolve USD prices for token symbols in one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPrices,
	}
	root.AddCommand(pricesCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Read addresses and commands from stdin and keep the latest snapshot",
		Long: `Each input line is either a wallet address, which supersedes the one
being loaded, or one of the commands:

  more nfts   append the next NFT page
  more txs    append the next transaction page
  refresh     reload the current address
  quit        stop watching`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and wires the services
func setup(cmd *cobra.Command) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Aggregator.SourceTimeout = timeout
	}
	level, _ := cmd.Flags().GetString("log-level")

	logger, err := newLogger(level)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return a, logger, nil
}

// newLogger writes console logs to stderr so stdout stays machine readable
func newLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return cfg.Build()
}

func writeJSON(cmd *cobra.Command, v interface{}, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
