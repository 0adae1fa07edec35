package amm

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"sphereswap/internal/model"
)

func TestMarketSnapshotRoundTrip(t *testing.T) {
	m := NewMarket([]string{"USDC", "USDT"})
	if err := m.AddBand(50, []float64{100, 100}); err != nil {
		t.Fatalf("add band failed: %v", err)
	}
	if err := m.AddBand(70, []float64{150, 50}); err != nil {
		t.Fatalf("add band failed: %v", err)
	}
	if err := m.AddLiquidity(0, "alice", []float64{10, 10}); err != nil {
		t.Fatalf("add liquidity failed: %v", err)
	}
	if _, err := m.RouteTrade("USDC", "USDT", 5); err != nil {
		t.Fatalf("trade failed: %v", err)
	}

	snap := m.Snapshot()
	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded model.Snapshot
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	restored, err := FromSnapshot(decoded)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if !reflect.DeepEqual(m, restored) {
		t.Fatalf("round-trip mismatch:\n%+v\n!=\n%+v", m, restored)
	}
}

func TestFromSnapshotRejectsUnknownVersion(t *testing.T) {
	snap := NewMarket([]string{"USDC"}).Snapshot()
	snap.Version = 99

	if _, err := FromSnapshot(snap); err == nil {
		t.Fatalf("expected version error, got nil")
	}
}

func TestFromSnapshotRejectsTokenMismatch(t *testing.T) {
	m := NewMarket([]string{"USDC", "USDT"})
	if err := m.AddBand(50, []float64{100, 100}); err != nil {
		t.Fatalf("add band failed: %v", err)
	}
	snap := m.Snapshot()
	snap.Bands[0].TokenNames = []string{"USDT", "USDC"}

	if _, err := FromSnapshot(snap); err == nil {
		t.Fatalf("expected token mismatch error, got nil")
	}
}

func TestFromSnapshotRejectsLengthMismatch(t *testing.T) {
	m := NewMarket([]string{"USDC", "USDT"})
	if err := m.AddBand(50, []float64{100, 100}); err != nil {
		t.Fatalf("add band failed: %v", err)
	}
	snap := m.Snapshot()
	snap.Bands[0].Reserves = []float64{100}

	if _, err := FromSnapshot(snap); err == nil {
		t.Fatalf("expected length mismatch error, got nil")
	}
}

func TestFromSnapshotRejectsOffSphereBand(t *testing.T) {
	m := NewMarket([]string{"USDC", "USDT"})
	if err := m.AddBand(50, []float64{100, 100}); err != nil {
		t.Fatalf("add band failed: %v", err)
	}
	snap := m.Snapshot()
	// A hand-edited radius puts the reserves off the sphere; loading it
	// must fail rather than produce a market whose first swap faults.
	snap.Bands[0].Radius = 123

	if _, err := FromSnapshot(snap); !errors.Is(err, ErrInvalidReserves) {
		t.Fatalf("expected invalid reserves error, got %v", err)
	}
}

func TestFromSnapshotRecomputesGlobals(t *testing.T) {
	m := NewMarket([]string{"USDC", "USDT"})
	if err := m.AddBand(50, []float64{100, 100}); err != nil {
		t.Fatalf("add band failed: %v", err)
	}
	snap := m.Snapshot()
	// A tampered projection must not survive the restore.
	snap.GlobalReserves = []float64{9999, 9999}

	restored, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !reflect.DeepEqual(restored.GlobalReserves, []float64{100, 100}) {
		t.Fatalf("globals not recomputed: %v", restored.GlobalReserves)
	}
}
