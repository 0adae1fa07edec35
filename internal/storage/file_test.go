package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"sphereswap/internal/model"
)

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Version:        model.SnapshotVersion,
		TokenNames:     []string{"USDC", "USDT"},
		GlobalReserves: []float64{100, 100},
		Bands: []model.BandRecord{
			{
				PlaneConstant: 50,
				Radius:        341.42135623730951,
				Reserves:      []float64{100, 100},
				TokenNames:    []string{"USDC", "USDT"},
				LPShares:      map[string]float64{"alice": 200},
			},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "market.json")
	store := NewFileStore(path)
	ctx := context.Background()

	original := testSnapshot()
	if err := store.Save(ctx, original); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected snapshot to exist")
	}
	if loaded.SavedAt == "" {
		t.Fatalf("expected SavedAt to be stamped on save")
	}

	loaded.SavedAt = ""
	if !reflect.DeepEqual(original, loaded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, loaded)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a missing file")
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected parse error, got nil")
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.json")
	store := NewFileStore(path)
	ctx := context.Background()

	first := testSnapshot()
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	second := testSnapshot()
	second.Bands[0].Reserves = []float64{110, 90.5}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, _, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.Bands[0].Reserves, []float64{110, 90.5}) {
		t.Fatalf("expected second save to win: %v", loaded.Bands[0].Reserves)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}
