package model

import (
	"math"
	"testing"
)

func TestFormatTemperature(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{21, "21.0"},
		{21.5, "21.5"},
		{21.25, "21.25"},
		{-4, "-4.0"},
		{-0.5, "-0.5"},
		{math.Inf(1), "+Inf"},
	}
	for _, tt := range tests {
		if got := FormatTemperature(tt.in); got != tt.want {
			t.Errorf("FormatTemperature(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClamped(t *testing.T) {
	got := ControlState{LED: true, AnalogOutput: 300, FanSpeed: -5}.Clamped()
	want := ControlState{LED: true, AnalogOutput: 255, FanSpeed: 0}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if ClampLevel(128) != 128 {
		t.Error("in-range level changed")
	}
}
