package util

import (
	"testing"
	"time"
)

func TestIsTradingDay(t *testing.T) {
	loc := LoadLocation("Asia/Taipei")
	// Friday 20:00 UTC is Saturday morning in Taipei
	fri := time.Date(2024, 5, 3, 20, 0, 0, 0, time.UTC)
	if IsTradingDay(fri, loc) {
		t.Fatalf("expected weekend in Taipei")
	}
	if !IsTradingDay(fri, time.UTC) {
		t.Fatalf("expected weekday in UTC")
	}
}

func TestLoadLocationFallback(t *testing.T) {
	loc := LoadLocation("Nowhere/Atlantis")
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	if offset != 8*3600 {
		t.Fatalf("unexpected offset %d", offset)
	}
}

func TestSplitSymbols(t *testing.T) {
	got := SplitSymbols(" 0050, 00878 ,,0050,abc")
	want := []string{"0050", "00878", "ABC"}
	if len(got) != len(want) {
		t.Fatalf("unexpected %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected %v", got)
		}
	}
}
