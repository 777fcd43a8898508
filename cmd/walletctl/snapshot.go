package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runSnapshot(cmd *cobra.Command, args []string) error {
	a, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := a.Aggregator.Aggregate(ctx, args[0])
	if err != nil {
		return err
	}

	logger.Info("Aggregated wallet",
		zap.String("address", snap.Address),
		zap.Int("sources", len(snap.Sources)),
	)

	pretty, _ := cmd.Flags().GetBool("pretty")
	return writeJSON(cmd, a.Dashboard.DashboardFromSnapshot(snap), pretty)
}

func runPrices(cmd *cobra.Command, args []string) error {
	a, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := a.Dashboard.GetPrices(ctx, args)
	if err != nil {
		return err
	}
	return writeJSON(cmd, resp.Data, true)
}
