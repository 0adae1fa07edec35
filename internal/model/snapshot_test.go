package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSnapshotJSONRoundTrip(t *testing.T) {
	original := Snapshot{
		Version:        SnapshotVersion,
		TokenNames:     []string{"USDC", "USDT", "DAI"},
		GlobalReserves: []float64{1000, 1000, 1000},
		Bands: []BandRecord{
			{
				PlaneConstant: 600,
				Radius:        341.42135623730951,
				Reserves:      []float64{100, 100, 0.30000000000000004},
				TokenNames:    []string{"USDC", "USDT", "DAI"},
				LPShares:      map[string]float64{"alice": 200, "bob": 50.5},
			},
			{
				PlaneConstant: 700,
				Radius:        0,
				Reserves:      []float64{0, 0, 0},
				TokenNames:    []string{"USDC", "USDT", "DAI"},
				LPShares:      map[string]float64{},
			},
		},
		SavedAt: "2025-01-01T00:00:00Z",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Snapshot
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}
