package utils

import (
	"math"
	"testing"
)

func TestRationalFloat(t *testing.T) {
	tests := []struct {
		name   string
		input  Rational
		want   float64
		wantOK bool
	}{
		{name: "whole", input: Rational{7, 1}, want: 7, wantOK: true},
		{name: "fraction", input: Rational{1, 250}, want: 0.004, wantOK: true},
		{name: "zero denominator", input: Rational{5, 0}, wantOK: false},
		{name: "negative", input: Rational{-1, 3}, want: -1.0 / 3, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.input.Float()
			if ok != tt.wantOK {
				t.Fatalf("Float() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Float() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundAndFormatDecimal(t *testing.T) {
	tests := []struct {
		input  float64
		places int
		want   string
	}{
		{7, 1, "7"},
		{7.14, 1, "7.1"},
		{2.86, 1, "2.9"},
		{0.004, 1, "0"},
		{40.4461111111, 6, "40.446111"},
		{49.5, 0, "50"},
	}

	for _, tt := range tests {
		if got := FormatDecimal(Round(tt.input, tt.places)); got != tt.want {
			t.Errorf("FormatDecimal(Round(%v, %d)) = %q, want %q", tt.input, tt.places, got, tt.want)
		}
	}
}

func TestDMSToDecimal(t *testing.T) {
	tests := []struct {
		name   string
		dms    []Rational
		ref    string
		want   float64
		wantOK bool
	}{
		{
			name:   "north",
			dms:    []Rational{{40, 1}, {26, 1}, {46, 1}},
			ref:    "N",
			want:   40.446111,
			wantOK: true,
		},
		{
			name:   "south negates",
			dms:    []Rational{{40, 1}, {26, 1}, {46, 1}},
			ref:    "S",
			want:   -40.446111,
			wantOK: true,
		},
		{
			name:   "west negates",
			dms:    []Rational{{79, 1}, {58, 1}, {56, 1}},
			ref:    "W",
			want:   -79.982222,
			wantOK: true,
		},
		{
			name:   "fractional seconds",
			dms:    []Rational{{40, 1}, {26, 1}, {4660, 100}},
			ref:    "N",
			want:   40.446278,
			wantOK: true,
		},
		{
			name:   "zero denominator component contributes zero",
			dms:    []Rational{{40, 1}, {26, 0}, {46, 1}},
			ref:    "",
			want:   40.012778,
			wantOK: true,
		},
		{
			name:   "too few components",
			dms:    []Rational{{40, 1}, {26, 1}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DMSToDecimal(tt.dms, tt.ref)
			if ok != tt.wantOK {
				t.Fatalf("DMSToDecimal() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("DMSToDecimal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPEXConversions(t *testing.T) {
	if got := Round(ApertureFromAPEX(5), 1); got != 5.7 {
		t.Errorf("ApertureFromAPEX(5) = %v, want 5.7", got)
	}
	if got := ExposureFromAPEX(8); got != 1.0/256 {
		t.Errorf("ExposureFromAPEX(8) = %v, want 1/256", got)
	}
}
