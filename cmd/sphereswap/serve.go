package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sphereswap/internal/amm"
	"sphereswap/internal/config"
	"sphereswap/internal/server"
	"sphereswap/internal/storage"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "127.0.0.1", "listen address")
	cmd.Flags().Int("port", 8080, "listen port")
	cmd.Flags().StringSlice("tokens", nil, "token symbols used when seeding a fresh market")
	cmd.Flags().StringSlice("reserves", nil, "seed reserves for the first band")
	cmd.Flags().Float64("plane", 600, "seed plane constant for the first band")
	addStateFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
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

	market, err := loadOrSeedMarket(ctx, store, cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.NewGuard(market), store, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", zap.String("addr", addr))
		errCh <- srv.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return srv.Shutdown()
	}
}

// loadOrSeedMarket restores the persisted market, falling back to a fresh
// one-band market from the configured seed when no snapshot exists or the
// snapshot's token list no longer matches the configuration.
func loadOrSeedMarket(ctx context.Context, store storage.Store, cfg config.ServeConfig, logger *zap.Logger) (*amm.Market, error) {
	snap, ok, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		market, err := amm.FromSnapshot(snap)
		if err == nil && sameTokens(market.TokenNames, cfg.Tokens) {
			logger.Info("restored market snapshot", zap.Int("bands", len(market.Bands)))
			return market, nil
		}
		logger.Warn("stored snapshot incompatible with configuration, reseeding",
			zap.Strings("stored", snap.TokenNames),
			zap.Strings("configured", cfg.Tokens))
	}

	reserves := cfg.Reserves
	if len(reserves) != len(cfg.Tokens) {
		reserves = make([]float64, len(cfg.Tokens))
		for i := range reserves {
			reserves[i] = 1000
		}
	}

	market := amm.NewMarket(cfg.Tokens)
	if err := market.AddBand(cfg.Plane, reserves); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, market.Snapshot()); err != nil {
		return nil, err
	}
	logger.Info("seeded fresh market",
		zap.Strings("tokens", cfg.Tokens),
		zap.Float64("plane", cfg.Plane))
	return market, nil
}

func sameTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
