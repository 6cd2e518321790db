package app

import (
	"testing"
	"time"
)

func TestDurationOr(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{name: "valid", raw: "10m", want: 10 * time.Minute},
		{name: "padded", raw: " 2h ", want: 2 * time.Hour},
		{name: "empty", raw: "", want: time.Minute},
		{name: "garbage", raw: "soon", want: time.Minute},
		{name: "negative", raw: "-5s", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := durationOr(tt.raw, time.Minute); got != tt.want {
				t.Errorf("durationOr(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIntOr(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "valid", raw: "12", want: 12},
		{name: "zero", raw: "0", want: 3},
		{name: "garbage", raw: "many", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intOr(tt.raw, 3); got != tt.want {
				t.Errorf("intOr(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestBoolOr(t *testing.T) {
	if !boolOr("true", false) || boolOr("false", true) {
		t.Error("boolOr() should parse explicit values")
	}
	if !boolOr("", true) {
		t.Error("boolOr() should fall back on empty input")
	}
}
