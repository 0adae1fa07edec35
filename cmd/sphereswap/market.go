package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"sphereswap/internal/amm"
	"sphereswap/internal/config"
	"sphereswap/internal/dashboard"
	"sphereswap/internal/storage"
)

// The one-shot market commands share a load → operate → save cycle over
// the snapshot store. They assume a single operator; the serve command is
// the concurrent surface.

func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().String("state", "./data/market.json", "snapshot file path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides the file store)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a fresh market with one liquidity band",
		RunE:  runInit,
	}
	cmd.Flags().StringSlice("tokens", nil, "token symbols (comma-separated)")
	cmd.Flags().StringSlice("reserves", nil, "initial reserves for the first band (comma-separated)")
	cmd.Flags().Float64("plane", 600, "plane constant for the first band")
	addStateFlags(cmd)
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadInit(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if len(cfg.Tokens) == 0 {
		return fmt.Errorf("at least one token is required")
	}
	if len(cfg.Reserves) != len(cfg.Tokens) {
		return fmt.Errorf("%d reserves for %d tokens", len(cfg.Reserves), len(cfg.Tokens))
	}
	if cfg.Plane <= 0 {
		return fmt.Errorf("plane constant must be positive")
	}
	for _, r := range cfg.Reserves {
		if r < 0 {
			return fmt.Errorf("reserves must be non-negative")
		}
	}

	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, cfg.StateFile, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer closeStore()

	market := amm.NewMarket(cfg.Tokens)
	if err := market.AddBand(cfg.Plane, cfg.Reserves); err != nil {
		return err
	}
	if err := store.Save(ctx, market.Snapshot()); err != nil {
		return err
	}

	fmt.Printf("market initialised with %d tokens and 1 band (plane %v)\n", len(cfg.Tokens), cfg.Plane)
	return nil
}

func newAddBandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-band",
		Short: "Append a liquidity band to the market",
		RunE:  runAddBand,
	}
	cmd.Flags().StringSlice("reserves", nil, "band reserves (comma-separated)")
	cmd.Flags().Float64("plane", 0, "plane constant")
	addStateFlags(cmd)
	return cmd
}

func runAddBand(cmd *cobra.Command, _ []string) error {
	plane, _ := cmd.Flags().GetFloat64("plane")
	rawReserves, _ := cmd.Flags().GetStringSlice("reserves")
	reserves, err := config.ParseFloats(rawReserves)
	if err != nil {
		return fmt.Errorf("parse reserves: %w", err)
	}
	if plane <= 0 {
		return fmt.Errorf("plane constant must be positive")
	}
	for _, r := range reserves {
		if r < 0 {
			return fmt.Errorf("reserves must be non-negative")
		}
	}

	return withMarket(cmd, func(market *amm.Market) error {
		if err := market.AddBand(plane, reserves); err != nil {
			return err
		}
		fmt.Printf("added band with plane constant %v\n", plane)
		return nil
	})
}

func newTradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade FROM TO AMOUNT",
		Short: "Route a trade across the market's bands",
		Args:  cobra.ExactArgs(3),
		RunE:  runTrade,
	}
	addStateFlags(cmd)
	return cmd
}

func runTrade(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[2], err)
	}

	return withMarket(cmd, func(market *amm.Market) error {
		output, err := market.RouteTrade(args[0], args[1], amount)
		if err != nil {
			return err
		}
		fmt.Printf("swapped %v %s for %v %s\n", amount, args[0], output, args[1])
		return nil
	})
}

func newPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price FROM TO",
		Short: "Show the liquidity-weighted aggregate price",
		Args:  cobra.ExactArgs(2),
		RunE:  runPrice,
	}
	addStateFlags(cmd)
	return cmd
}

func runPrice(cmd *cobra.Command, args []string) error {
	return withMarketReadOnly(cmd, func(market *amm.Market) error {
		price, err := market.AggregatedPrice(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("aggregated price of %s in %s: %v\n", args[1], args[0], price)
		return nil
	})
}

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the current market state",
		RunE:  runState,
	}
	addStateFlags(cmd)
	return cmd
}

func runState(cmd *cobra.Command, _ []string) error {
	return withMarketReadOnly(cmd, func(market *amm.Market) error {
		return dashboard.Render(os.Stdout, market)
	})
}

func newAddLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Deposit liquidity into one band",
		RunE:  runAddLiquidity,
	}
	cmd.Flags().Int("band", 0, "band index")
	cmd.Flags().String("lp", "", "LP identifier")
	cmd.Flags().StringSlice("amounts", nil, "per-token deposit amounts (comma-separated)")
	addStateFlags(cmd)
	return cmd
}

func runAddLiquidity(cmd *cobra.Command, _ []string) error {
	band, _ := cmd.Flags().GetInt("band")
	lpID, _ := cmd.Flags().GetString("lp")
	rawAmounts, _ := cmd.Flags().GetStringSlice("amounts")
	amounts, err := config.ParseFloats(rawAmounts)
	if err != nil {
		return fmt.Errorf("parse amounts: %w", err)
	}
	if lpID == "" {
		return fmt.Errorf("lp identifier is required")
	}
	for _, a := range amounts {
		if a < 0 {
			return fmt.Errorf("amounts must be non-negative")
		}
	}

	return withMarket(cmd, func(market *amm.Market) error {
		if err := market.AddLiquidity(band, lpID, amounts); err != nil {
			return err
		}
		fmt.Printf("added liquidity for LP %s in band %d\n", lpID, band)
		return nil
	})
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw a percentage of an LP position from one band",
		RunE:  runWithdraw,
	}
	cmd.Flags().Int("band", 0, "band index")
	cmd.Flags().String("lp", "", "LP identifier")
	cmd.Flags().Float64("percentage", 1, "fraction of the position to withdraw, in [0,1]")
	addStateFlags(cmd)
	return cmd
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	band, _ := cmd.Flags().GetInt("band")
	lpID, _ := cmd.Flags().GetString("lp")
	percentage, _ := cmd.Flags().GetFloat64("percentage")
	if lpID == "" {
		return fmt.Errorf("lp identifier is required")
	}
	if percentage < 0 || percentage > 1 {
		return fmt.Errorf("percentage must be in [0,1]")
	}

	return withMarket(cmd, func(market *amm.Market) error {
		withdrawn, err := market.WithdrawLiquidity(band, lpID, percentage)
		if err != nil {
			return err
		}
		for i, name := range market.TokenNames {
			fmt.Printf("withdrew %v %s\n", withdrawn[i], name)
		}
		return nil
	})
}

// withMarket loads the snapshot, applies fn, and saves the result.
func withMarket(cmd *cobra.Command, fn func(market *amm.Market) error) error {
	return runAgainstStore(cmd, fn, true)
}

// withMarketReadOnly loads the snapshot and applies fn without saving.
func withMarketReadOnly(cmd *cobra.Command, fn func(market *amm.Market) error) error {
	return runAgainstStore(cmd, fn, false)
}

func runAgainstStore(cmd *cobra.Command, fn func(market *amm.Market) error, save bool) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadState(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, cfg.StateFile, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer closeStore()

	market, err := loadMarket(ctx, store)
	if err != nil {
		return err
	}
	if err := fn(market); err != nil {
		return err
	}
	if save {
		return store.Save(ctx, market.Snapshot())
	}
	return nil
}

func loadMarket(ctx context.Context, store storage.Store) (*amm.Market, error) {
	snap, ok, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no market snapshot found, run init first")
	}
	return amm.FromSnapshot(snap)
}
