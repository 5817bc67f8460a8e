package model

import (
	"math"
	"strconv"
	"strings"
)

// FormatTemperature prints the shortest representation, always keeping a decimal
// part for finite values (21 -> "21.0", 21.25 -> "21.25").
func FormatTemperature(t float64) string {
	s := strconv.FormatFloat(t, 'f', -1, 64)
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return s
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func OnOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
