package domain

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		want   float64
		status ParseStatus
	}{
		{"nil", nil, 7, ParseMissing},
		{"float", 3.5, 3.5, ParseOK},
		{"int", 12, 12, ParseOK},
		{"json number", json.Number("42"), 42, ParseOK},
		{"padded string", "  19.25 ", 19.25, ParseOK},
		{"blank string", "   ", 7, ParseMissing},
		{"letters", "n/a", 7, ParseMalformed},
		{"nan", math.NaN(), 7, ParseMalformed},
		{"bool", true, 7, ParseMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFloat(tt.raw, 7)
			if got.Value != tt.want || got.Status != tt.status {
				t.Errorf("ParseFloat(%v) = %v/%s, want %v/%s", tt.raw, got.Value, got.Status, tt.want, tt.status)
			}
			if got.Defaulted() != (tt.status != ParseOK) {
				t.Errorf("Defaulted() = %v", got.Defaulted())
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		raw  any
		want int
	}{
		{"1934", 1934},
		{1934.0, 1934},
		{"72.5", 72},
		{"73.5", 73},
		{"180.7", 180},
		{"-2.5", -2},
		{"", 0},
		{"tall", 0},
	}
	for _, tt := range tests {
		if got := ParseInt(tt.raw); got.Value != tt.want {
			t.Errorf("ParseInt(%v) = %d, want %d", tt.raw, got.Value, tt.want)
		}
	}
}

func TestParseYearPrefix(t *testing.T) {
	tests := []struct {
		date   string
		want   int
		status ParseStatus
	}{
		{"1954-04-13", 1954, ParseOK},
		{"1976", 1976, ParseOK},
		{"", 0, ParseMissing},
		{"76", 0, ParseMalformed},
		{"April 1954", 0, ParseMalformed},
	}
	for _, tt := range tests {
		got := ParseYearPrefix(tt.date)
		if got.Value != tt.want || got.Status != tt.status {
			t.Errorf("ParseYearPrefix(%q) = %d/%s, want %d/%s", tt.date, got.Value, got.Status, tt.want, tt.status)
		}
	}
}
