package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sphereswap/internal/config"
	"sphereswap/internal/dashboard"
)

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live terminal view of the market state",
		RunE:  runDashboard,
	}
	cmd.Flags().Duration("interval", 0, "refresh interval")
	addStateFlags(cmd)
	return cmd
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDashboard(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.StateFile, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer closeStore()

	return dashboard.Run(ctx, dashboard.Config{
		Store:    store,
		Interval: cfg.Interval,
		Out:      os.Stdout,
		Clear:    true,
	}, logger)
}
