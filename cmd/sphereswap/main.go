package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sphereswap/internal/storage"
	"sphereswap/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "sphereswap",
		Short:        "Hypersphere-invariant AMM simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(
		newInitCmd(),
		newAddBandCmd(),
		newTradeCmd(),
		newPriceCmd(),
		newStateCmd(),
		newAddLiquidityCmd(),
		newWithdrawCmd(),
		newServeCmd(),
		newDashboardCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// openStore picks the snapshot backend: Postgres when a DSN is configured,
// the local file otherwise.
func openStore(ctx context.Context, stateFile, pgDSN string) (storage.Store, func(), error) {
	if pgDSN != "" {
		store, err := postgres.NewStore(ctx, pgDSN, "market")
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return storage.NewFileStore(stateFile), func() {}, nil
}
