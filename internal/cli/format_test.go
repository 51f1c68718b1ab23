package cli

import "testing"

func TestFormatCost(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{12.345, "$12.35"},
		{-30, "-$30.00"},
		{1234.6, "$1,235"},
	}
	for _, tt := range tests {
		if got := FormatCost(tt.in); got != tt.want {
			t.Errorf("FormatCost(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Fatalf("FormatNumber = %q", got)
	}
	if got := FormatNumber(-1000); got != "-1,000" {
		t.Fatalf("FormatNumber negative = %q", got)
	}
}

func TestFormatMultiplier(t *testing.T) {
	if got := FormatMultiplier(1.1); got != "x1.10 (+10%)" {
		t.Fatalf("increase = %q", got)
	}
	if got := FormatMultiplier(0.9); got != "x0.90 (-10%)" {
		t.Fatalf("decrease = %q", got)
	}
}

func TestFormatPercentAndPoints(t *testing.T) {
	if got := FormatPercent(0.0455); got != "4.5%" && got != "4.6%" {
		t.Fatalf("FormatPercent = %q", got)
	}
	if got := FormatPoints(24.48); got != "24.48%" {
		t.Fatalf("FormatPoints = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Lookalike Spring", 6); got != "Looka…" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("x", 0); got != "" {
		t.Fatalf("Truncate zero = %q", got)
	}
}
