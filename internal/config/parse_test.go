package config

import (
	"reflect"
	"testing"
)

func TestParseFloats(t *testing.T) {
	got, err := ParseFloats([]string{"1000", "0.5", "-3"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []float64{1000, 0.5, -3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseFloatsEmpty(t *testing.T) {
	got, err := ParseFloats(nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestParseFloatsInvalid(t *testing.T) {
	if _, err := ParseFloats([]string{"100", "abc"}); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
}

func TestSplitAndClean(t *testing.T) {
	got := splitAndClean(" USDC, USDT ,,DAI ")
	want := []string{"USDC", "USDT", "DAI"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if splitAndClean("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
