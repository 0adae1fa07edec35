// Package dashboard renders a periodically refreshed terminal view of
// market state, rebuilt from the snapshot store on every tick.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"sphereswap/internal/amm"
	"sphereswap/internal/storage"
)

// clearScreen moves the cursor home and wipes the terminal.
const clearScreen = "\033[2J\033[H"

// Config controls the dashboard loop.
type Config struct {
	Store    storage.Store
	Interval time.Duration
	Out      io.Writer
	// Clear redraws in place instead of appending frames.
	Clear bool
}

// Run refreshes the view every Interval until ctx is cancelled. Transient
// load failures are logged and the loop keeps going; the next tick retries.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		if err := refresh(ctx, cfg); err != nil {
			logger.Warn("dashboard refresh", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func refresh(ctx context.Context, cfg Config) error {
	snap, ok, err := cfg.Store.Load(ctx)
	if err != nil {
		return err
	}
	if cfg.Clear {
		if _, err := fmt.Fprint(cfg.Out, clearScreen); err != nil {
			return err
		}
	}
	if !ok {
		_, err := fmt.Fprintln(cfg.Out, "no market snapshot yet")
		return err
	}

	market, err := amm.FromSnapshot(snap)
	if err != nil {
		return err
	}
	return Render(cfg.Out, market)
}

// Render writes a one-frame view of the market: a band table followed by
// the global reserve projection.
func Render(w io.Writer, m *amm.Market) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IDX\tPLANE\tPARALLEL\tSTATE\tRADIUS\tLIQUIDITY")
	for i, band := range m.Bands {
		state := "exterior"
		switch {
		case band.IsInterior():
			state = "interior"
		case band.IsBoundary():
			state = "boundary"
		}
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%s\t%.2f\t%.2f\n",
			i, band.PlaneConstant, band.ParallelMagnitude(), state, band.Pool.Radius, band.Liquidity())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for i, name := range m.TokenNames {
		fmt.Fprintf(w, "%s: %.4f\n", name, m.GlobalReserves[i])
	}
	return nil
}
