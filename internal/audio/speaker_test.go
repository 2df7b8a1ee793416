package audio

import (
	"math"
	"testing"
)

func TestLevelToVolume(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{1, 0},
		{1.5, 0},
		{0.5, -1},
		{0.25, -2},
		{0, -10},
		{-1, -10},
	}
	for _, tt := range tests {
		if got := levelToVolume(tt.level); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("levelToVolume(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestClampLevel(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.3, 0.3},
		{1, 1},
		{1.5, 1},
		{math.Inf(1), 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := ClampLevel(tt.in); got != tt.want {
			t.Errorf("ClampLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
