package store

import (
	"math"
	"testing"
)

func TestWidenNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"normal float untouched", 12.5, 12.5},
		{"nan widened", math.NaN(), "NaN"},
		{"inf widened", math.Inf(1), "+Inf"},
		{"beyond int64 widened", 1e19, "10000000000000000000"},
		{"string untouched", "x", "x"},
		{"nil untouched", nil, nil},
		{"int64 untouched", int64(7), int64(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := widenNumeric(tt.in); got != tt.want {
				t.Errorf("widenNumeric(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStringifyAll(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil stays nil", nil, nil},
		{"string passthrough", "x", "x"},
		{"float", 12.5, "12.5"},
		{"int64", int64(7), "7"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stringifyAll(tt.in); got != tt.want {
				t.Errorf("stringifyAll(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteLadderOrder(t *testing.T) {
	ladder := writeLadder()
	if len(ladder) != 3 {
		t.Fatalf("ladder rungs = %d, want 3", len(ladder))
	}
	for i, want := range []string{"pass", "widen-numeric", "stringify-all"} {
		if ladder[i].name != want {
			t.Errorf("rung %d = %q, want %q", i, ladder[i].name, want)
		}
	}
}
